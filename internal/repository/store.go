package repository

import (
	"context"
	"errors"
	"time"

	"rentsearch/internal/filter"
	"rentsearch/internal/model"
)

// ErrSearchNotFound is returned when feedback references an unknown search id
var ErrSearchNotFound = errors.New("search not found")

// TypeCount aggregates the listings of one property type
type TypeCount struct {
	PropertyType model.PropertyType `db:"property_type"`
	Count        int                `db:"count"`
	PriceSum     float64            `db:"price_sum"`
}

// ListingStore is the storage contract shared by the PostgreSQL and
// in-memory backends. Every read is scoped to the searchable base set:
// approved listings with status available.
type ListingStore interface {
	// Count returns the number of listings matching every predicate
	Count(ctx context.Context, preds []filter.Predicate) (int, error)
	// Find returns the ordered window of matching listings
	Find(ctx context.Context, q *filter.Query) ([]model.Listing, error)
	// CountByType groups the matching listings by property type
	CountByType(ctx context.Context, preds []filter.Predicate) ([]TypeCount, error)

	// GetListing returns nil, nil when the listing does not exist or is not searchable
	GetListing(ctx context.Context, id int64) (*model.Listing, error)
	IncrementViews(ctx context.Context, id int64) error
	ListAmenities(ctx context.Context) ([]model.Amenity, error)
	Suggest(ctx context.Context, kind model.SuggestionKind, q string, limit int) ([]string, error)

	SimilarListings(ctx context.Context, id int64, limit int) ([]model.Listing, error)
	BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string)

	LogSearch(ctx context.Context, entry *model.SearchLog) error
	LogFeedback(ctx context.Context, searchID string, listingID int64, action string) error
	PurgeSearchLogs(ctx context.Context, before time.Time) (int64, error)

	Close() error
}

var (
	_ ListingStore = (*PostgresRepository)(nil)
	_ ListingStore = (*MemoryRepository)(nil)
)
