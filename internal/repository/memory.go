package repository

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"rentsearch/internal/filter"
	"rentsearch/internal/model"

	"gopkg.in/yaml.v3"
)

// Seed is the YAML document the memory store is loaded from
type Seed struct {
	Amenities []model.Amenity `yaml:"amenities"`
	Listings  []model.Listing `yaml:"listings"`
}

type searchLogEntry struct {
	model.SearchLog
	ClickedListingID int64
	Action           string
}

// MemoryRepository keeps listings in process memory. It evaluates the same
// predicates as the SQL backend and serves development and tests.
type MemoryRepository struct {
	mu         sync.RWMutex
	listings   []model.Listing
	amenities  []model.Amenity
	embeddings map[int64][]float32
	logs       map[string]*searchLogEntry
	now        func() time.Time
}

// NewMemoryRepository creates a store over the given listings
func NewMemoryRepository(listings []model.Listing, amenities []model.Amenity) *MemoryRepository {
	return &MemoryRepository{
		listings:   append([]model.Listing(nil), listings...),
		amenities:  append([]model.Amenity(nil), amenities...),
		embeddings: make(map[int64][]float32),
		logs:       make(map[string]*searchLogEntry),
		now:        time.Now,
	}
}

// LoadMemoryRepository creates a store from a YAML seed file. An empty path
// yields an empty store.
func LoadMemoryRepository(path string) (*MemoryRepository, error) {
	if path == "" {
		return NewMemoryRepository(nil, nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return NewMemoryRepository(seed.Listings, seed.Amenities), nil
}

// Close is a no-op
func (r *MemoryRepository) Close() error {
	return nil
}

// searchable returns a copy of the searchable base set. Callers must hold mu.
func (r *MemoryRepository) searchable() []model.Listing {
	out := make([]model.Listing, 0, len(r.listings))
	for i := range r.listings {
		if r.listings[i].Searchable() {
			out = append(out, r.listings[i])
		}
	}
	return out
}

// Count returns the number of searchable listings matching preds
func (r *MemoryRepository) Count(_ context.Context, preds []filter.Predicate) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(filter.Filter(r.searchable(), preds)), nil
}

// Find returns the ordered window of listings matching q
func (r *MemoryRepository) Find(_ context.Context, q *filter.Query) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	window, _ := filter.Run(r.searchable(), q)
	return window, nil
}

// CountByType groups the listings matching preds by property type
func (r *MemoryRepository) CountByType(_ context.Context, preds []filter.Predicate) ([]TypeCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byType := map[model.PropertyType]*TypeCount{}
	for _, l := range filter.Filter(r.searchable(), preds) {
		tc, ok := byType[l.PropertyType]
		if !ok {
			tc = &TypeCount{PropertyType: l.PropertyType}
			byType[l.PropertyType] = tc
		}
		tc.Count++
		tc.PriceSum += l.Price
	}

	counts := make([]TypeCount, 0, len(byType))
	for _, tc := range byType {
		counts = append(counts, *tc)
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].PropertyType < counts[j].PropertyType })
	return counts, nil
}

// GetListing returns a searchable listing by id
func (r *MemoryRepository) GetListing(_ context.Context, id int64) (*model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.listings {
		if r.listings[i].ID == id && r.listings[i].Searchable() {
			l := r.listings[i]
			return &l, nil
		}
	}
	return nil, nil
}

// IncrementViews bumps the view counter of a listing
func (r *MemoryRepository) IncrementViews(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.listings {
		if r.listings[i].ID == id {
			r.listings[i].ViewsCount++
			return nil
		}
	}
	return nil
}

// ListAmenities returns the amenity catalogue ordered by name
func (r *MemoryRepository) ListAmenities(_ context.Context) ([]model.Amenity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]model.Amenity{}, r.amenities...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Suggest returns distinct values of one field containing q
func (r *MemoryRepository) Suggest(_ context.Context, kind model.SuggestionKind, q string, limit int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(q)
	seen := map[string]bool{}
	var values []string
	for _, l := range r.searchable() {
		var v string
		switch kind {
		case model.SuggestDistrict:
			v = l.District
		case model.SuggestMunicipality:
			v = l.Municipality
		case model.SuggestTitle:
			v = l.Title
		default:
			return nil, fmt.Errorf("unsupported suggestion kind %q", kind)
		}
		if v == "" || seen[v] || !strings.Contains(strings.ToLower(v), needle) {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}

	sort.Strings(values)
	if limit > 0 && len(values) > limit {
		values = values[:limit]
	}
	return values, nil
}

// SimilarListings ranks searchable listings by cosine similarity to the
// embedding of id
func (r *MemoryRepository) SimilarListings(_ context.Context, id int64, limit int) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, ok := r.embeddings[id]
	if !ok {
		return nil, nil
	}

	type scored struct {
		listing model.Listing
		score   float64
	}
	var candidates []scored
	for _, l := range r.searchable() {
		vec, ok := r.embeddings[l.ID]
		if !ok || l.ID == id {
			continue
		}
		candidates = append(candidates, scored{listing: l, score: cosine(source, vec)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].listing.ID > candidates[j].listing.ID
	})

	out := []model.Listing{}
	for _, c := range candidates {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, c.listing)
	}
	return out, nil
}

// BatchUpdateEmbeddings stores embeddings for known listings
func (r *MemoryRepository) BatchUpdateEmbeddings(_ context.Context, items []model.EmbeddingItem) (int, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	known := make(map[int64]bool, len(r.listings))
	for _, l := range r.listings {
		known[l.ID] = true
	}

	success := 0
	var errors []string
	for _, item := range items {
		if !known[item.ListingID] {
			errors = append(errors, fmt.Sprintf("listing_id %d: not found", item.ListingID))
			continue
		}
		r.embeddings[item.ListingID] = append([]float32(nil), item.Embedding...)
		success++
	}
	return success, errors
}

// LogSearch records an executed search
func (r *MemoryRepository) LogSearch(_ context.Context, entry *model.SearchLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := &searchLogEntry{SearchLog: *entry}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	r.logs[entry.SearchID] = e
	return nil
}

// LogFeedback attaches a user action to a logged search
func (r *MemoryRepository) LogFeedback(_ context.Context, searchID string, listingID int64, action string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.logs[searchID]
	if !ok {
		return ErrSearchNotFound
	}
	e.ClickedListingID = listingID
	e.Action = action
	return nil
}

// PurgeSearchLogs deletes search logs created before the cutoff
func (r *MemoryRepository) PurgeSearchLogs(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, e := range r.logs {
		if e.CreatedAt.Before(before) {
			delete(r.logs, id)
			n++
		}
	}
	return n, nil
}

// SearchLog returns a logged search by id
func (r *MemoryRepository) SearchLog(searchID string) (model.SearchLog, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.logs[searchID]
	if !ok {
		return model.SearchLog{}, "", false
	}
	return e.SearchLog, e.Action, true
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
