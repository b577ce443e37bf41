package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rentsearch/internal/filter"
	"rentsearch/internal/model"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixture(id int64, district, municipality string, ptype model.PropertyType, price float64) model.Listing {
	return model.Listing{
		ID:           id,
		Title:        string(ptype) + " in " + district,
		PropertyType: ptype,
		District:     district,
		Municipality: municipality,
		Price:        price,
		NumRooms:     2,
		Status:       model.StatusAvailable,
		IsApproved:   true,
		CreatedAt:    baseTime.Add(time.Duration(id) * time.Hour),
	}
}

func newFixtureStore() *MemoryRepository {
	hidden := fixture(5, "Kathmandu", "Kirtipur", model.PropertyRoom, 4000)
	hidden.IsApproved = false
	rented := fixture(6, "Kathmandu", "Baneshwor", model.PropertyFlat, 9000)
	rented.Status = model.StatusRented

	return NewMemoryRepository([]model.Listing{
		fixture(1, "Kathmandu", "Baneshwor", model.PropertyRoom, 8000),
		fixture(2, "Kathmandu", "Kalimati", model.PropertyFlat, 18000),
		fixture(3, "Lalitpur", "Jawalakhel", model.PropertyFlat, 22000),
		fixture(4, "Bhaktapur", "", model.PropertyHouse, 35000),
		hidden,
		rented,
	}, []model.Amenity{{ID: 2, Name: "WiFi"}, {ID: 1, Name: "Parking"}})
}

func TestMemoryRepository_OnlySearchable(t *testing.T) {
	repo := newFixtureStore()
	ctx := context.Background()

	total, err := repo.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if total != 4 {
		t.Errorf("Count = %d, want 4", total)
	}

	if l, _ := repo.GetListing(ctx, 5); l != nil {
		t.Error("Expected unapproved listing to be hidden")
	}
	if l, _ := repo.GetListing(ctx, 6); l != nil {
		t.Error("Expected rented listing to be hidden")
	}
	if l, _ := repo.GetListing(ctx, 1); l == nil {
		t.Error("Expected listing 1 to be found")
	}
}

func TestMemoryRepository_Find(t *testing.T) {
	repo := newFixtureStore()

	q := filter.NewQuery(&model.FilterSet{Sort: model.SortPriceAsc}, nil)
	q.Limit = 2
	q.Offset = 1
	got, err := repo.Find(context.Background(), q)
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 3 {
		t.Errorf("Find window = %v, want listings [2 3]", got)
	}
}

func TestMemoryRepository_CountByType(t *testing.T) {
	repo := newFixtureStore()

	district := "kathmandu"
	counts, err := repo.CountByType(context.Background(), filter.Build(&model.FilterSet{District: &district}, nil))
	if err != nil {
		t.Fatalf("CountByType returned error: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("Expected 2 types, got %+v", counts)
	}
	if counts[0].PropertyType != model.PropertyFlat || counts[0].Count != 1 || counts[0].PriceSum != 18000 {
		t.Errorf("Unexpected flat bucket: %+v", counts[0])
	}
	if counts[1].PropertyType != model.PropertyRoom || counts[1].Count != 1 {
		t.Errorf("Unexpected room bucket: %+v", counts[1])
	}
}

func TestMemoryRepository_Suggest(t *testing.T) {
	repo := newFixtureStore()
	ctx := context.Background()

	tests := []struct {
		kind  model.SuggestionKind
		q     string
		limit int
		want  []string
	}{
		{model.SuggestDistrict, "pur", 5, []string{"Bhaktapur", "Lalitpur"}},
		{model.SuggestDistrict, "kath", 5, []string{"Kathmandu"}},
		{model.SuggestMunicipality, "a", 2, []string{"Baneshwor", "Jawalakhel"}},
		{model.SuggestTitle, "FLAT", 5, []string{"flat in Kathmandu", "flat in Lalitpur"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.q, func(t *testing.T) {
			got, err := repo.Suggest(ctx, tt.kind, tt.q, tt.limit)
			if err != nil {
				t.Fatalf("Suggest returned error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Suggest = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Suggest[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestMemoryRepository_IncrementViews(t *testing.T) {
	repo := newFixtureStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.IncrementViews(ctx, 2); err != nil {
			t.Fatalf("IncrementViews returned error: %v", err)
		}
	}
	l, _ := repo.GetListing(ctx, 2)
	if l.ViewsCount != 3 {
		t.Errorf("ViewsCount = %d, want 3", l.ViewsCount)
	}
}

func TestMemoryRepository_ListAmenities(t *testing.T) {
	repo := newFixtureStore()

	got, err := repo.ListAmenities(context.Background())
	if err != nil {
		t.Fatalf("ListAmenities returned error: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Parking" || got[1].Name != "WiFi" {
		t.Errorf("ListAmenities = %+v, want ordered by name", got)
	}
}

func TestMemoryRepository_SimilarListings(t *testing.T) {
	repo := newFixtureStore()
	ctx := context.Background()

	success, errs := repo.BatchUpdateEmbeddings(ctx, []model.EmbeddingItem{
		{ListingID: 1, Embedding: []float32{1, 0, 0}},
		{ListingID: 2, Embedding: []float32{0.9, 0.1, 0}},
		{ListingID: 3, Embedding: []float32{0, 1, 0}},
		{ListingID: 4, Embedding: []float32{0.5, 0.5, 0}},
		{ListingID: 99, Embedding: []float32{1, 1, 1}},
	})
	if success != 4 || len(errs) != 1 {
		t.Fatalf("BatchUpdateEmbeddings = %d ok, %v errors", success, errs)
	}

	got, err := repo.SimilarListings(ctx, 1, 2)
	if err != nil {
		t.Fatalf("SimilarListings returned error: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 4 {
		t.Errorf("SimilarListings = %v, want [2 4]", got)
	}

	if got, _ := repo.SimilarListings(ctx, 5, 2); got != nil {
		t.Errorf("Expected no neighbours without an embedding, got %v", got)
	}
}

func TestMemoryRepository_SearchLogs(t *testing.T) {
	repo := newFixtureStore()
	ctx := context.Background()

	old := &model.SearchLog{SearchID: "old", CreatedAt: baseTime.AddDate(0, 0, -100)}
	recent := &model.SearchLog{SearchID: "recent", CreatedAt: baseTime}
	for _, entry := range []*model.SearchLog{old, recent} {
		if err := repo.LogSearch(ctx, entry); err != nil {
			t.Fatalf("LogSearch returned error: %v", err)
		}
	}

	if err := repo.LogFeedback(ctx, "recent", 2, "click"); err != nil {
		t.Fatalf("LogFeedback returned error: %v", err)
	}
	if err := repo.LogFeedback(ctx, "missing", 2, "click"); err != ErrSearchNotFound {
		t.Errorf("LogFeedback(missing) = %v, want ErrSearchNotFound", err)
	}
	if _, action, _ := repo.SearchLog("recent"); action != "click" {
		t.Errorf("action = %q, want click", action)
	}

	n, err := repo.PurgeSearchLogs(ctx, baseTime.AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("PurgeSearchLogs returned error: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d logs, want 1", n)
	}
	if _, _, ok := repo.SearchLog("old"); ok {
		t.Error("Expected old log to be purged")
	}
}

func TestLoadMemoryRepository(t *testing.T) {
	seed := `
amenities:
  - {id: 1, name: WiFi, icon: wifi}
listings:
  - id: 10
    title: Sunny flat
    property_type: flat
    district: Pokhara
    price: 15000
    num_rooms: 2
    status: available
    is_approved: true
    amenities: [WiFi]
    latitude: 28.21
    longitude: 83.98
    created_at: 2024-01-02T10:00:00Z
`
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("failed to write seed: %v", err)
	}

	repo, err := LoadMemoryRepository(path)
	if err != nil {
		t.Fatalf("LoadMemoryRepository returned error: %v", err)
	}
	l, _ := repo.GetListing(context.Background(), 10)
	if l == nil {
		t.Fatal("Expected seeded listing")
	}
	if !l.HasLocation() || len(l.Amenities) != 1 || l.Amenities[0] != "WiFi" {
		t.Errorf("Unexpected seeded listing: %+v", l)
	}

	if _, err := LoadMemoryRepository(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing seed file")
	}
}
