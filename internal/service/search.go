package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"rentsearch/internal/config"
	"rentsearch/internal/filter"
	"rentsearch/internal/model"
	"rentsearch/internal/repository"

	"github.com/google/uuid"
)

// Search log surfaces
const (
	SurfaceList = "list"
	SurfaceMap  = "map"
	SurfaceChat = "chat"
)

// suggestionsPerKind caps the entries contributed by one suggestion kind
const suggestionsPerKind = 5

// SearchService handles search business logic
type SearchService struct {
	store         repository.ListingStore
	cfg           config.SearchConfig
	embeddingDims int
	pending       sync.WaitGroup
}

// NewSearchService creates a new search service
func NewSearchService(store repository.ListingStore, cfg config.SearchConfig, embeddingDims int) *SearchService {
	return &SearchService{
		store:         store,
		cfg:           cfg,
		embeddingDims: embeddingDims,
	}
}

// PageSize resolves a requested page size against the configured default
// and maximum. Oversized requests are clamped.
func (s *SearchService) PageSize(n int) int {
	if n <= 0 {
		n = s.cfg.PageSize
	}
	if n > s.cfg.MaxPageSize {
		n = s.cfg.MaxPageSize
	}
	return n
}

// List returns one page of the listings matching fs. A page past the end
// yields the last page.
func (s *SearchService) List(ctx context.Context, fs *model.FilterSet, page, pageSize int) (*model.ListingPage, error) {
	start := time.Now()
	q := filter.NewQuery(fs, nil)

	total, err := s.store.Count(ctx, q.Predicates)
	if err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	info := filter.Paginate(total, page, s.PageSize(pageSize))
	q.Limit = info.Size
	q.Offset = info.Offset()

	results, err := s.store.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to find listings: %w", err)
	}
	if results == nil {
		results = []model.Listing{}
	}

	took := time.Since(start).Milliseconds()
	return &model.ListingPage{
		PageInfo: info,
		SearchID: s.logSearch(SurfaceList, keywordOf(fs), fs, total, results, took),
		Results:  results,
		Took:     took,
	}, nil
}

// Map returns up to limit markers for the listings matching fs and the
// map-only predicates
func (s *SearchService) Map(ctx context.Context, fs *model.FilterSet, extras *model.MapFilters, limit int) (*model.MapResponse, error) {
	start := time.Now()
	q := filter.NewQuery(fs, extras)
	q.Limit = limit

	total, err := s.store.Count(ctx, q.Predicates)
	if err != nil {
		return nil, fmt.Errorf("failed to count map listings: %w", err)
	}
	listings, err := s.store.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to find map listings: %w", err)
	}

	markers := make([]model.MapMarker, 0, len(listings))
	for i := range listings {
		markers = append(markers, listings[i].Marker())
	}
	s.logSearch(SurfaceMap, keywordOf(fs), fs, total, listings, time.Since(start).Milliseconds())

	return &model.MapResponse{Count: total, Properties: markers}, nil
}

// Match returns the best limit listings for a chat search, highest rated
// first unless fs asks for another order
func (s *SearchService) Match(ctx context.Context, fs *model.FilterSet, limit int, message string) ([]model.Listing, string, error) {
	start := time.Now()
	q := filter.NewQuery(fs, nil)
	if fs == nil || fs.Sort == "" {
		q.Sort = model.SortRating
	}
	q.Limit = limit

	listings, err := s.store.Find(ctx, q)
	if err != nil {
		return nil, "", fmt.Errorf("failed to match listings: %w", err)
	}
	id := s.logSearch(SurfaceChat, message, fs, len(listings), listings, time.Since(start).Milliseconds())
	return listings, id, nil
}

// Candidates returns listings matching preds ordered by rating
func (s *SearchService) Candidates(ctx context.Context, preds []filter.Predicate, limit int) ([]model.Listing, error) {
	listings, err := s.store.Find(ctx, &filter.Query{Predicates: preds, Sort: model.SortRating, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}
	return listings, nil
}

// CountByType groups the listings matching preds by property type
func (s *SearchService) CountByType(ctx context.Context, preds []filter.Predicate) ([]repository.TypeCount, error) {
	counts, err := s.store.CountByType(ctx, preds)
	if err != nil {
		return nil, fmt.Errorf("failed to count by type: %w", err)
	}
	return counts, nil
}

// GetListing retrieves a single listing by ID and records the view.
// It returns nil when the listing is missing or not public.
func (s *SearchService) GetListing(ctx context.Context, listingID int64) (*model.Listing, error) {
	listing, err := s.store.GetListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	if listing == nil {
		return nil, nil
	}

	if err := s.store.IncrementViews(ctx, listingID); err != nil {
		log.Printf("⚠️  Failed to count view of listing %d: %v", listingID, err)
	} else {
		listing.ViewsCount++
	}
	return listing, nil
}

// Similar returns the listings closest to listingID by embedding. It
// returns nil when the listing itself is missing.
func (s *SearchService) Similar(ctx context.Context, listingID int64, limit int) ([]model.Listing, error) {
	listing, err := s.store.GetListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	if listing == nil {
		return nil, nil
	}

	similar, err := s.store.SimilarListings(ctx, listingID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find similar listings: %w", err)
	}
	if similar == nil {
		similar = []model.Listing{}
	}
	return similar, nil
}

// Amenities returns the amenity catalogue
func (s *SearchService) Amenities(ctx context.Context) ([]model.Amenity, error) {
	amenities, err := s.store.ListAmenities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list amenities: %w", err)
	}
	if amenities == nil {
		amenities = []model.Amenity{}
	}
	return amenities, nil
}

// Suggestions returns autocomplete entries for q. Queries shorter than two
// characters get no suggestions.
func (s *SearchService) Suggestions(ctx context.Context, q string) ([]model.Suggestion, error) {
	out := []model.Suggestion{}
	if utf8.RuneCountInString(q) < 2 {
		return out, nil
	}

	for _, kind := range []model.SuggestionKind{model.SuggestDistrict, model.SuggestMunicipality, model.SuggestTitle} {
		values, err := s.store.Suggest(ctx, kind, q, suggestionsPerKind)
		if err != nil {
			return nil, fmt.Errorf("failed to suggest %s: %w", kind, err)
		}
		for _, v := range values {
			out = append(out, model.Suggestion{Type: kind, Value: v})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	if s.cfg.SuggestionLimit > 0 && len(out) > s.cfg.SuggestionLimit {
		out = out[:s.cfg.SuggestionLimit]
	}
	return out, nil
}

// EmbeddingDims is the vector size stored embeddings must have; 0 accepts any
func (s *SearchService) EmbeddingDims() int {
	return s.embeddingDims
}

// UpdateEmbeddings updates embeddings for multiple listings. Vectors of the
// wrong dimension are reported and skipped.
func (s *SearchService) UpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	var valid []model.EmbeddingItem
	var errors []string
	for _, item := range items {
		if s.embeddingDims > 0 && len(item.Embedding) != s.embeddingDims {
			errors = append(errors, fmt.Sprintf("listing_id %d: expected %d dimensions, got %d",
				item.ListingID, s.embeddingDims, len(item.Embedding)))
			continue
		}
		valid = append(valid, item)
	}
	if len(valid) == 0 {
		return 0, errors
	}

	success, storeErrors := s.store.BatchUpdateEmbeddings(ctx, valid)
	return success, append(errors, storeErrors...)
}

// LogFeedback logs user feedback/action
func (s *SearchService) LogFeedback(ctx context.Context, searchID string, listingID int64, action string) error {
	return s.store.LogFeedback(ctx, searchID, listingID, action)
}

// PurgeSearchLogs deletes search logs older than the retention window
func (s *SearchService) PurgeSearchLogs(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.store.PurgeSearchLogs(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to purge search logs: %w", err)
	}
	return n, nil
}

// Wait blocks until every pending search log write has finished
func (s *SearchService) Wait() {
	s.pending.Wait()
}

// logSearch records the search in the background and returns its id
func (s *SearchService) logSearch(surface, query string, fs *model.FilterSet, total int, results []model.Listing, took int64) string {
	entry := &model.SearchLog{
		SearchID:       uuid.NewString(),
		Surface:        surface,
		Query:          query,
		Filters:        fs,
		ResultCount:    total,
		ListingIDs:     make([]int64, len(results)),
		ResponseTimeMs: int(took),
		CreatedAt:      time.Now(),
	}
	for i := range results {
		entry.ListingIDs[i] = results[i].ID
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.LogSearch(ctx, entry); err != nil {
			log.Printf("⚠️  Failed to log search %s: %v", entry.SearchID, err)
		}
	}()

	return entry.SearchID
}

func keywordOf(fs *model.FilterSet) string {
	if fs == nil || fs.Keyword == nil {
		return ""
	}
	return *fs.Keyword
}
