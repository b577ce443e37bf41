package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"rentsearch/internal/filter"
	"rentsearch/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Count returns the number of searchable listings matching preds
func (r *PostgresRepository) Count(ctx context.Context, preds []filter.Predicate) (int, error) {
	where, err := buildWhere(preds)
	if err != nil {
		return 0, err
	}

	var total int
	query := fmt.Sprintf("SELECT COUNT(*) FROM properties p WHERE %s", where)
	if err := r.db.GetContext(ctx, &total, query, where.args...); err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return total, nil
}

// Find returns the ordered window of listings matching q
func (r *PostgresRepository) Find(ctx context.Context, q *filter.Query) ([]model.Listing, error) {
	where, err := buildWhere(q.Predicates)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM properties p WHERE %s ORDER BY %s",
		listingColumns, where, orderBy(q))
	if q.Limit > 0 {
		query += " LIMIT " + where.arg(q.Limit)
	}
	if q.Offset > 0 {
		query += " OFFSET " + where.arg(q.Offset)
	}

	listings := []model.Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, where.args...); err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}
	return listings, nil
}

// CountByType groups the listings matching preds by property type
func (r *PostgresRepository) CountByType(ctx context.Context, preds []filter.Predicate) ([]TypeCount, error) {
	where, err := buildWhere(preds)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT p.property_type, COUNT(*) AS count, COALESCE(SUM(p.price), 0) AS price_sum
		FROM properties p
		WHERE %s
		GROUP BY p.property_type
		ORDER BY p.property_type`, where)

	var counts []TypeCount
	if err := r.db.SelectContext(ctx, &counts, query, where.args...); err != nil {
		return nil, fmt.Errorf("failed to aggregate listings: %w", err)
	}
	return counts, nil
}

// GetListing retrieves a single searchable listing by its ID
func (r *PostgresRepository) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	var listing model.Listing
	query := fmt.Sprintf("SELECT %s FROM properties p WHERE %s AND p.id = $1", listingColumns, baseScope)
	err := r.db.GetContext(ctx, &listing, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &listing, nil
}

// IncrementViews bumps the view counter in a single statement
func (r *PostgresRepository) IncrementViews(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE properties SET views_count = views_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

// ListAmenities returns the amenity catalogue
func (r *PostgresRepository) ListAmenities(ctx context.Context) ([]model.Amenity, error) {
	amenities := []model.Amenity{}
	err := r.db.SelectContext(ctx, &amenities, `SELECT id, name, COALESCE(icon, '') AS icon FROM amenities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list amenities: %w", err)
	}
	return amenities, nil
}

var suggestColumns = map[model.SuggestionKind]string{
	model.SuggestDistrict:     "p.district",
	model.SuggestMunicipality: "p.municipality",
	model.SuggestTitle:        "p.title",
}

// Suggest returns distinct values of one field containing q
func (r *PostgresRepository) Suggest(ctx context.Context, kind model.SuggestionKind, q string, limit int) ([]string, error) {
	col, ok := suggestColumns[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported suggestion kind %q", kind)
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT %[1]s FROM properties p
		WHERE %[2]s AND %[1]s <> '' AND %[1]s ILIKE $1
		ORDER BY %[1]s
		LIMIT $2`, col, baseScope)

	var values []string
	if err := r.db.SelectContext(ctx, &values, query, likePattern(q), limit); err != nil {
		return nil, fmt.Errorf("failed to fetch suggestions: %w", err)
	}
	return values, nil
}

// SimilarListings returns the searchable listings nearest to the embedding
// of id by cosine distance. A listing without an embedding has no neighbours.
func (r *PostgresRepository) SimilarListings(ctx context.Context, id int64, limit int) ([]model.Listing, error) {
	var source pgvector.Vector
	err := r.db.GetContext(ctx, &source, `SELECT embedding FROM properties WHERE id = $1 AND embedding IS NOT NULL`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load embedding: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM properties p
		WHERE %s AND p.id <> $1 AND p.embedding IS NOT NULL
		ORDER BY p.embedding <=> $2, p.id DESC
		LIMIT $3`, listingColumns, baseScope)

	listings := []model.Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, id, source, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch similar listings: %w", err)
	}
	return listings, nil
}

// BatchUpdateEmbeddings updates embeddings for multiple listings
func (r *PostgresRepository) BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	success := 0
	var errors []string

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		errors = append(errors, fmt.Sprintf("failed to start transaction: %v", err))
		return success, errors
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `UPDATE properties SET embedding = $1, updated_at = NOW() WHERE id = $2`)
	if err != nil {
		errors = append(errors, fmt.Sprintf("failed to prepare statement: %v", err))
		return success, errors
	}
	defer stmt.Close()

	for _, item := range items {
		res, err := stmt.ExecContext(ctx, pgvector.NewVector(item.Embedding), item.ListingID)
		if err != nil {
			errors = append(errors, fmt.Sprintf("listing_id %d: %v", item.ListingID, err))
			continue
		}
		if n, _ := res.RowsAffected(); n == 0 {
			errors = append(errors, fmt.Sprintf("listing_id %d: not found", item.ListingID))
			continue
		}
		success++
	}

	if err := tx.Commit(); err != nil {
		errors = append(errors, fmt.Sprintf("failed to commit transaction: %v", err))
		return 0, errors
	}

	return success, errors
}

// LogSearch records an executed search
func (r *PostgresRepository) LogSearch(ctx context.Context, entry *model.SearchLog) error {
	var filters []byte
	if entry.Filters != nil {
		var err error
		if filters, err = json.Marshal(entry.Filters); err != nil {
			return fmt.Errorf("failed to encode filters: %w", err)
		}
	}

	query := `
		INSERT INTO search_logs (search_id, surface, query, filters, result_count, returned_listing_ids, response_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.SearchID, entry.Surface, entry.Query, filters,
		entry.ResultCount, pq.Array(entry.ListingIDs), entry.ResponseTimeMs)
	if err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}
	return nil
}

// LogFeedback logs user feedback/action
func (r *PostgresRepository) LogFeedback(ctx context.Context, searchID string, listingID int64, action string) error {
	query := `
		UPDATE search_logs
		SET clicked_listing_id = $2, action = $3
		WHERE search_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, searchID, listingID, action)
	if err != nil {
		return fmt.Errorf("failed to log feedback: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSearchNotFound
	}
	return nil
}

// PurgeSearchLogs deletes search logs created before the cutoff
func (r *PostgresRepository) PurgeSearchLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM search_logs WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge search logs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
