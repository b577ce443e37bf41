package model

import "time"

// SearchRequest is the JSON body of POST /api/v1/listings/search. Filters
// stay loosely typed so malformed values can be dropped one by one.
type SearchRequest struct {
	Filters  map[string]any `json:"filters"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// PageInfo describes one page of a paginated result
type PageInfo struct {
	Number     int  `json:"page"`
	Size       int  `json:"page_size"`
	TotalItems int  `json:"count"`
	TotalPages int  `json:"total_pages"`
	Next       *int `json:"next"`
	Previous   *int `json:"previous"`
}

// Offset returns the index of the first item of the page
func (p PageInfo) Offset() int {
	return (p.Number - 1) * p.Size
}

// ListingPage is an ordered page of search results
type ListingPage struct {
	PageInfo
	SearchID string    `json:"search_id,omitempty"`
	Results  []Listing `json:"results"`
	Took     int64     `json:"took_ms"`
}

// MapResponse is the body returned by the map endpoint
type MapResponse struct {
	Count      int         `json:"count"`
	Properties []MapMarker `json:"properties"`
}

// SuggestionKind identifies which field a suggestion came from
type SuggestionKind string

const (
	SuggestDistrict     SuggestionKind = "district"
	SuggestMunicipality SuggestionKind = "municipality"
	SuggestTitle        SuggestionKind = "title"
)

// Suggestion is one autocomplete entry
type Suggestion struct {
	Type  SuggestionKind `json:"type" db:"type"`
	Value string         `json:"value" db:"value"`
}

// SuggestionsResponse is the body returned by the suggestions endpoint
type SuggestionsResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// SearchLog records one executed search
type SearchLog struct {
	SearchID       string     `json:"search_id" db:"search_id"`
	Surface        string     `json:"surface" db:"surface"`
	Query          string     `json:"query" db:"query"`
	Filters        *FilterSet `json:"filters" db:"-"`
	ResultCount    int        `json:"result_count" db:"result_count"`
	ListingIDs     []int64    `json:"returned_listing_ids" db:"-"`
	ResponseTimeMs int        `json:"response_time_ms" db:"response_time_ms"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// EmbeddingBatchRequest represents a batch embedding update request
type EmbeddingBatchRequest struct {
	Embeddings []EmbeddingItem `json:"embeddings" binding:"required"`
}

// EmbeddingItem is one listing embedding
type EmbeddingItem struct {
	ListingID int64     `json:"listing_id" binding:"required"`
	Embedding []float32 `json:"embedding" binding:"required"`
}

// EmbeddingBatchResponse represents the response for batch embedding update
type EmbeddingBatchResponse struct {
	Success    int      `json:"success"`
	Failed     int      `json:"failed"`
	Dimensions int      `json:"dimensions,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

// FeedbackRequest represents user feedback on a search result
type FeedbackRequest struct {
	SearchID  string `json:"search_id" binding:"required"`
	ListingID int64  `json:"listing_id" binding:"required"`
	Action    string `json:"action" binding:"required"`
}

// FeedbackResponse represents feedback response
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
