package service

import (
	"context"
	"testing"

	"rentsearch/internal/model"
)

func listingIDs(items []model.Listing) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestSearchService_List(t *testing.T) {
	store := newFixtureStore()
	svc := NewSearchService(store, testSearchConfig(), 0)
	ctx := context.Background()

	tests := []struct {
		name     string
		filters  *model.FilterSet
		page     int
		size     int
		wantIDs  []int64
		wantPage int
		wantSize int
	}{
		{"Default page size", nil, 1, 0, []int64{1, 2}, 1, 2},
		{"Second page", nil, 2, 0, []int64{4, 3}, 2, 2},
		{"Page past the end yields the last page", nil, 9, 0, []int64{4, 3}, 2, 2},
		{"Page size clamped to maximum", nil, 1, 100, []int64{1, 2, 4}, 1, 3},
		{"Filtered", &model.FilterSet{District: ptr("kathmandu")}, 1, 0, []int64{1, 4}, 1, 2},
		{"Empty result", &model.FilterSet{MinPrice: ptr(20000.0), MaxPrice: ptr(10000.0)}, 1, 0, []int64{}, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.List(ctx, tt.filters, tt.page, tt.size)
			if err != nil {
				t.Fatalf("List returned error: %v", err)
			}
			if got := listingIDs(page.Results); !equalIDs(got, tt.wantIDs) {
				t.Errorf("Results = %v, want %v", got, tt.wantIDs)
			}
			if page.Number != tt.wantPage || page.Size != tt.wantSize {
				t.Errorf("Page = %d size %d, want %d size %d", page.Number, page.Size, tt.wantPage, tt.wantSize)
			}
			if page.SearchID == "" {
				t.Error("Expected a search id")
			}
		})
	}

	svc.Wait()
	page, err := svc.List(ctx, nil, 1, 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	svc.Wait()
	entry, _, ok := store.SearchLog(page.SearchID)
	if !ok {
		t.Fatalf("Search %s was not logged", page.SearchID)
	}
	if entry.Surface != SurfaceList || entry.ResultCount != 4 || !equalIDs(entry.ListingIDs, []int64{1, 2}) {
		t.Errorf("Logged search = %+v", entry)
	}
}

func TestSearchService_Map(t *testing.T) {
	svc := NewSearchService(newFixtureStore(), testSearchConfig(), 0)
	defer svc.Wait()
	ctx := context.Background()

	resp, err := svc.Map(ctx, nil, &model.MapFilters{RequireCoords: true}, 200)
	if err != nil {
		t.Fatalf("Map returned error: %v", err)
	}
	if resp.Count != 1 || resp.Properties[0].ID != 1 {
		t.Errorf("Map = %+v", resp)
	}

	box := &model.BoundingBox{NorthEastLat: 27.6, NorthEastLng: 85.2, SouthWestLat: 27.5, SouthWestLng: 85.1}
	resp, err = svc.Map(ctx, nil, &model.MapFilters{Bounds: box}, 200)
	if err != nil {
		t.Fatalf("Map returned error: %v", err)
	}
	if resp.Count != 0 || resp.Properties == nil {
		t.Errorf("Expected an empty marker list, got %+v", resp)
	}

	resp, err = svc.Map(ctx, nil, &model.MapFilters{}, 2)
	if err != nil {
		t.Fatalf("Map returned error: %v", err)
	}
	if resp.Count != 4 || len(resp.Properties) != 2 {
		t.Errorf("Expected 2 of 4 markers, got count %d with %d markers", resp.Count, len(resp.Properties))
	}
}

func TestSearchService_GetListing(t *testing.T) {
	svc := NewSearchService(newFixtureStore(), testSearchConfig(), 0)
	ctx := context.Background()

	for want := 41; want <= 42; want++ {
		l, err := svc.GetListing(ctx, 1)
		if err != nil || l == nil {
			t.Fatalf("GetListing = %v, %v", l, err)
		}
		if l.ViewsCount != want {
			t.Errorf("ViewsCount = %d, want %d", l.ViewsCount, want)
		}
	}

	for _, id := range []int64{5, 99} {
		l, err := svc.GetListing(ctx, id)
		if err != nil || l != nil {
			t.Errorf("GetListing(%d) = %v, %v; want nil, nil", id, l, err)
		}
	}
}

func TestSearchService_Suggestions(t *testing.T) {
	svc := NewSearchService(newFixtureStore(), testSearchConfig(), 0)
	ctx := context.Background()

	got, err := svc.Suggestions(ctx, "ka")
	if err != nil {
		t.Fatalf("Suggestions returned error: %v", err)
	}
	want := []model.Suggestion{
		{Type: model.SuggestDistrict, Value: "Kathmandu"},
		{Type: model.SuggestMunicipality, Value: "Kathmandu Metro"},
	}
	if len(got) != len(want) {
		t.Fatalf("Suggestions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Suggestions[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	got, err = svc.Suggestions(ctx, "k")
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("Short query = %v, %v; want empty list", got, err)
	}
}

func TestSearchService_Embeddings(t *testing.T) {
	svc := NewSearchService(newFixtureStore(), testSearchConfig(), 3)
	ctx := context.Background()

	success, errs := svc.UpdateEmbeddings(ctx, []model.EmbeddingItem{
		{ListingID: 1, Embedding: []float32{1, 0, 0}},
		{ListingID: 2, Embedding: []float32{1, 0}},
		{ListingID: 4, Embedding: []float32{0.9, 0.1, 0}},
		{ListingID: 99, Embedding: []float32{0, 1, 0}},
	})
	if success != 2 || len(errs) != 2 {
		t.Errorf("UpdateEmbeddings = %d, %v", success, errs)
	}

	similar, err := svc.Similar(ctx, 1, 5)
	if err != nil {
		t.Fatalf("Similar returned error: %v", err)
	}
	if !equalIDs(listingIDs(similar), []int64{4}) {
		t.Errorf("Similar = %v, want [4]", listingIDs(similar))
	}

	similar, err = svc.Similar(ctx, 99, 5)
	if err != nil || similar != nil {
		t.Errorf("Similar of a missing listing = %v, %v", similar, err)
	}

	similar, err = svc.Similar(ctx, 3, 5)
	if err != nil || similar == nil || len(similar) != 0 {
		t.Errorf("Similar without an embedding = %v, %v; want empty list", similar, err)
	}
}
