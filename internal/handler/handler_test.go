package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rentsearch/internal/config"
	"rentsearch/internal/model"
	"rentsearch/internal/nlp"
	"rentsearch/internal/repository"
	"rentsearch/internal/service"

	"github.com/gin-gonic/gin"
)

type testServer struct {
	router *gin.Engine
	search *service.SearchService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	lat, lng := 27.7041, 85.3145
	now := time.Now()
	listings := []model.Listing{
		{ID: 1, Title: "Sunny room", District: "Kathmandu", PropertyType: model.PropertyRoom, Price: 5000, NumRooms: 1,
			Status: model.StatusAvailable, IsApproved: true, AverageRating: 4.5, Latitude: &lat, Longitude: &lng,
			Amenities: model.JSONArray{"WiFi"}, CreatedAt: now.Add(-time.Hour)},
		{ID: 2, Title: "Family flat", District: "Lalitpur", PropertyType: model.PropertyFlat, Price: 15000, NumRooms: 2,
			Status: model.StatusAvailable, IsApproved: true, AverageRating: 3.5, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: 3, Title: "Big house", District: "Bhaktapur", PropertyType: model.PropertyHouse, Price: 35000, NumRooms: 4,
			Status: model.StatusAvailable, IsApproved: true, CreatedAt: now.Add(-3 * time.Hour)},
		{ID: 4, Title: "Pending room", District: "Kathmandu", PropertyType: model.PropertyRoom, Price: 4000,
			Status: model.StatusAvailable, IsApproved: false, CreatedAt: now},
	}
	store := repository.NewMemoryRepository(listings, []model.Amenity{{ID: 1, Name: "WiFi", Icon: "wifi"}})

	rules, err := nlp.NewDefaultRuleExtractor("")
	if err != nil {
		t.Fatalf("failed to build rule extractor: %v", err)
	}

	searchCfg := config.SearchConfig{PageSize: 12, MaxPageSize: 50, MapDefaultLimit: 200, MapMaxLimit: 500, SuggestionLimit: 10}
	chatCfg := config.ChatConfig{HistoryLimit: 8, ResultLimit: 8, RecommendationLimit: 6, PriceFlex: 1.2}

	searchService := service.NewSearchService(store, searchCfg, 3)
	t.Cleanup(searchService.Wait)
	chatService := service.NewChatService(nil, rules, searchService, service.NewRanker(0.5, 0.3, 0.2), chatCfg)

	router := gin.New()
	RegisterRoutes(router, Handlers{
		Search:    NewSearchHandler(searchService, searchCfg),
		Chat:      NewChatHandler(chatService),
		Embedding: NewEmbeddingHandler(searchService),
		Feedback:  NewFeedbackHandler(searchService),
	})
	return &testServer{router: router, search: searchService}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

func TestSearchHandler_List(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		wantIDs []int64
	}{
		{"All searchable listings", http.MethodGet, "/api/v1/listings", "", []int64{1, 2, 3}},
		{"Price bound", http.MethodGet, "/api/v1/listings?max_price=20000", "", []int64{1, 2}},
		{"Malformed values are dropped", http.MethodGet, "/api/v1/listings?max_price=cheap&num_rooms=-1&property_type=castle", "", []int64{1, 2, 3}},
		{"Min above max is empty", http.MethodGet, "/api/v1/listings?min_price=30000&max_price=1000", "", []int64{}},
		{"Sorted by price", http.MethodGet, "/api/v1/listings?sort=price_desc", "", []int64{3, 2, 1}},
		{"JSON search", http.MethodPost, "/api/v1/listings/search", `{"filters": {"district": "lalit", "min_price": "10,000"}}`, []int64{2}},
		{"JSON search with amenities", http.MethodPost, "/api/v1/listings/search", `{"filters": {"amenities": ["wifi"]}, "page_size": 500}`, []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("Status = %d, body %s", w.Code, w.Body.String())
			}
			var page model.ListingPage
			decode(t, w, &page)
			if len(page.Results) != len(tt.wantIDs) {
				t.Fatalf("Results = %+v, want ids %v", page.Results, tt.wantIDs)
			}
			for i, id := range tt.wantIDs {
				if page.Results[i].ID != id {
					t.Errorf("Results[%d] = %d, want %d", i, page.Results[i].ID, id)
				}
			}
		})
	}

	if w := s.do(t, http.MethodPost, "/api/v1/listings/search", "{not json"); w.Code != http.StatusBadRequest {
		t.Errorf("Malformed body status = %d, want 400", w.Code)
	}
}

func TestSearchHandler_Detail(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/listings/1", http.StatusOK},
		{"/api/v1/listings/4", http.StatusNotFound},
		{"/api/v1/listings/99", http.StatusNotFound},
		{"/api/v1/listings/abc", http.StatusBadRequest},
		{"/api/v1/listings/99/similar", http.StatusNotFound},
		{"/api/v1/listings/1/similar", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if w := s.do(t, http.MethodGet, tt.path, ""); w.Code != tt.want {
				t.Errorf("Status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}

	w := s.do(t, http.MethodGet, "/api/v1/listings/2", "")
	var l model.Listing
	decode(t, w, &l)
	if l.ViewsCount != 1 {
		t.Errorf("ViewsCount = %d, want 1", l.ViewsCount)
	}
}

func TestSearchHandler_Map(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name        string
		query       string
		wantCount   int
		wantMarkers int
	}{
		{"Coordinates required by default", "", 1, 1},
		{"Coordinates not required", "?has_coords=false", 3, 3},
		{"Bounding box excludes missing coordinates", "?ne_lat=28&ne_lng=86&sw_lat=27&sw_lng=85", 1, 1},
		{"Partial box is dropped", "?ne_lat=28&has_coords=false", 3, 3},
		{"Minimum rating", "?has_coords=false&min_rating=4", 1, 1},
		{"Limit caps markers but not the count", "?has_coords=false&limit=2", 3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/api/v1/map/listings"+tt.query, "")
			var resp model.MapResponse
			decode(t, w, &resp)
			if resp.Count != tt.wantCount {
				t.Errorf("Count = %d, want %d", resp.Count, tt.wantCount)
			}
			if len(resp.Properties) != tt.wantMarkers {
				t.Errorf("Markers = %d, want %d", len(resp.Properties), tt.wantMarkers)
			}
		})
	}
}

func TestSearchHandler_Catalogue(t *testing.T) {
	s := newTestServer(t)

	var amenities []model.Amenity
	decode(t, s.do(t, http.MethodGet, "/api/v1/amenities", ""), &amenities)
	if len(amenities) != 1 || amenities[0].Name != "WiFi" {
		t.Errorf("Amenities = %+v", amenities)
	}

	var suggestions model.SuggestionsResponse
	decode(t, s.do(t, http.MethodGet, "/api/v1/search/suggestions?q=kath", ""), &suggestions)
	if len(suggestions.Suggestions) != 1 || suggestions.Suggestions[0].Value != "Kathmandu" {
		t.Errorf("Suggestions = %+v", suggestions)
	}
}

func TestChatHandler(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name      string
		path      string
		body      string
		wantCode  int
		wantError string
	}{
		{"Malformed chat body", "/api/v1/chat", "{", http.StatusBadRequest, "Invalid JSON"},
		{"Empty message", "/api/v1/chat", `{"message": "   "}`, http.StatusBadRequest, "Message is required"},
		{"Insights without district", "/api/v1/chat/insights", `{}`, http.StatusBadRequest, "District is required"},
		{"Malformed recommendations body", "/api/v1/chat/recommendations", "nope", http.StatusBadRequest, "Invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, tt.path, tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("Status = %d, want %d", w.Code, tt.wantCode)
			}
			var body map[string]string
			decode(t, w, &body)
			if body["error"] != tt.wantError {
				t.Errorf("Error = %q, want %q", body["error"], tt.wantError)
			}
		})
	}

	w := s.do(t, http.MethodPost, "/api/v1/chat", `{"message": "kotha chahiyo kathmandu ma 15000 samma"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d", w.Code)
	}
	var resp model.ChatResponse
	decode(t, w, &resp)
	if resp.PropertyCount != 1 || resp.Properties[0].ID != 1 || resp.Intent != model.IntentSearch {
		t.Errorf("Chat response = %+v", resp)
	}
	if resp.DetectedLanguage != model.LanguageNepali {
		t.Errorf("DetectedLanguage = %v", resp.DetectedLanguage)
	}

	var insights model.AreaInsights
	decode(t, s.do(t, http.MethodPost, "/api/v1/chat/insights", `{"district": "Lalitpur"}`), &insights)
	if !insights.Found || insights.TotalProperties != 1 || insights.AveragePrice != 15000 {
		t.Errorf("Insights = %+v", insights)
	}

	var recs model.RecommendationResponse
	decode(t, s.do(t, http.MethodPost, "/api/v1/chat/recommendations", `{"preferences": {"max_price": 5000}}`), &recs)
	if recs.Count != 1 || recs.Recommendations[0].ID != 1 {
		t.Errorf("Recommendations = %+v", recs)
	}
}

func TestEmbeddingAndFeedbackHandlers(t *testing.T) {
	s := newTestServer(t)

	batches := []struct {
		name        string
		body        string
		wantStatus  int
		wantSuccess int
		wantErrors  []string
	}{
		{
			name:        "All stored",
			body:        `{"embeddings": [{"listing_id": 1, "embedding": [1, 0, 0]}, {"listing_id": 3, "embedding": [0, 1, 0]}]}`,
			wantStatus:  http.StatusOK,
			wantSuccess: 2,
		},
		{
			name:        "Wrong dimension is reported per item",
			body:        `{"embeddings": [{"listing_id": 1, "embedding": [1, 0, 0]}, {"listing_id": 2, "embedding": [1, 0]}]}`,
			wantStatus:  http.StatusPartialContent,
			wantSuccess: 1,
			wantErrors:  []string{"listing_id 2: expected 3 dimensions, got 2"},
		},
		{
			name:        "Screened items",
			body:        `{"embeddings": [{"listing_id": 2, "embedding": [1, 1, 0]}, {"listing_id": 0, "embedding": [1, 0, 0]}, {"listing_id": 3, "embedding": []}, {"listing_id": 2, "embedding": [0, 0, 1]}]}`,
			wantStatus:  http.StatusPartialContent,
			wantSuccess: 1,
			wantErrors: []string{
				"item 1: listing_id must be positive",
				"listing_id 3: empty embedding",
				"listing_id 2: duplicate in batch",
			},
		},
		{
			name:       "Nothing stored",
			body:       `{"embeddings": [{"listing_id": 99, "embedding": [1, 0, 0]}]}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantErrors: []string{"listing_id 99: not found"},
		},
	}
	for _, tt := range batches {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/embeddings/batch", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			var batch model.EmbeddingBatchResponse
			decode(t, w, &batch)
			if batch.Success != tt.wantSuccess {
				t.Errorf("Success = %d, want %d", batch.Success, tt.wantSuccess)
			}
			if batch.Dimensions != 3 {
				t.Errorf("Dimensions = %d, want 3", batch.Dimensions)
			}
			if len(batch.Errors) != len(tt.wantErrors) {
				t.Fatalf("Errors = %v, want %v", batch.Errors, tt.wantErrors)
			}
			for i := range tt.wantErrors {
				if batch.Errors[i] != tt.wantErrors[i] {
					t.Errorf("Errors[%d] = %q, want %q", i, batch.Errors[i], tt.wantErrors[i])
				}
			}
		})
	}

	w := s.do(t, http.MethodGet, "/api/v1/listings", "")
	var page model.ListingPage
	decode(t, w, &page)
	s.search.Wait()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"Known search", `{"search_id": "` + page.SearchID + `", "listing_id": 1, "action": "click"}`, http.StatusOK},
		{"Unknown search", `{"search_id": "missing", "listing_id": 1, "action": "click"}`, http.StatusNotFound},
		{"Invalid action", `{"search_id": "` + page.SearchID + `", "listing_id": 1, "action": "like"}`, http.StatusBadRequest},
		{"Missing fields", `{"action": "click"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := s.do(t, http.MethodPost, "/api/v1/feedback", tt.body); w.Code != tt.want {
				t.Errorf("Status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}

	if w := s.do(t, http.MethodGet, "/api/v1/unknown", ""); w.Code != http.StatusNotFound {
		t.Errorf("Unknown route status = %d", w.Code)
	}
}
