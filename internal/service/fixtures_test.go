package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"rentsearch/internal/config"
	"rentsearch/internal/model"
	"rentsearch/internal/nlp"
	"rentsearch/internal/repository"
)

func ptr[T any](v T) *T { return &v }

func fixtureListings() []model.Listing {
	now := time.Now()
	listing := func(id int64, title, district string, t model.PropertyType, price float64, rooms int, rating float64, views int, ageDays int) model.Listing {
		return model.Listing{
			ID:            id,
			Title:         title,
			PropertyType:  t,
			District:      district,
			Municipality:  district + " Metro",
			Price:         price,
			NumRooms:      rooms,
			RentalPurpose: model.PurposeAny,
			Status:        model.StatusAvailable,
			IsApproved:    true,
			AverageRating: rating,
			ViewsCount:    views,
			CreatedAt:     now.Add(-time.Duration(ageDays) * 24 * time.Hour),
		}
	}

	sunny := listing(1, "Sunny room near Ratna Park", "Kathmandu", model.PropertyRoom, 5000, 1, 4.5, 40, 2)
	sunny.Latitude = ptr(27.7041)
	sunny.Longitude = ptr(85.3145)

	unapproved := listing(5, "Hidden room", "Kathmandu", model.PropertyRoom, 8000, 1, 5, 0, 1)
	unapproved.IsApproved = false

	return []model.Listing{
		sunny,
		listing(2, "Family flat in Jawalakhel", "Lalitpur", model.PropertyFlat, 15000, 2, 3.5, 10, 20),
		listing(3, "Old house with garden", "Bhaktapur", model.PropertyHouse, 35000, 4, 0, 0, 200),
		listing(4, "Student room in Baneshwor", "Kathmandu", model.PropertyRoom, 12000, 1, 3.0, 5, 60),
		unapproved,
	}
}

func newFixtureStore() *repository.MemoryRepository {
	return repository.NewMemoryRepository(fixtureListings(), []model.Amenity{{ID: 1, Name: "WiFi"}, {ID: 2, Name: "Parking"}})
}

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{PageSize: 2, MaxPageSize: 3, MapDefaultLimit: 200, MapMaxLimit: 500, SuggestionLimit: 10}
}

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{HistoryLimit: 4, ResultLimit: 8, RecommendationLimit: 6, PriceFlex: 1.2}
}

func newRules(t *testing.T) *nlp.RuleExtractor {
	t.Helper()
	rules, err := nlp.NewDefaultRuleExtractor("")
	if err != nil {
		t.Fatalf("failed to build rule extractor: %v", err)
	}
	return rules
}

// fakeCompleter returns a canned completion and records the request
type fakeCompleter struct {
	enabled bool
	content string
	err     error
	calls   int
	last    ChatCompletionRequest
}

func (f *fakeCompleter) IsEnabled() bool { return f.enabled }

func (f *fakeCompleter) ChatCompletion(_ context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}

	body, _ := json.Marshal(map[string]any{
		"id":      "cmpl-1",
		"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": f.content}}},
	})
	var resp ChatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
