package model

// Language is the language a reply is written in
type Language string

const (
	LanguageEnglish Language = "english"
	LanguageNepali  Language = "nepali"
)

// ParseLanguage maps a free-form value to a Language
func ParseLanguage(s string) (Language, bool) {
	switch Language(s) {
	case LanguageEnglish, LanguageNepali:
		return Language(s), true
	}
	return "", false
}

// Intent classifies a chat message
type Intent string

const (
	IntentSearch         Intent = "search"
	IntentQuestion       Intent = "question"
	IntentGreeting       Intent = "greeting"
	IntentHelp           Intent = "help"
	IntentThanks         Intent = "thanks"
	IntentLanguageSwitch Intent = "language_switch"
	IntentComparison     Intent = "comparison"
	IntentRecommendation Intent = "recommendation"
)

// ChatMessage is one turn of the caller-supplied conversation history
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserLocation is the optional approximate location of the user
type UserLocation struct {
	District  string   `json:"district"`
	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lng,omitempty"`
}

// ChatRequest is the body of POST /api/v1/chat. Language is
// "auto", "english" or "nepali".
type ChatRequest struct {
	Message  string        `json:"message"`
	History  []ChatMessage `json:"history"`
	Location *UserLocation `json:"location"`
	Language string        `json:"language"`
}

// Preference returns the explicit language override, if any
func (r *ChatRequest) Preference() (Language, bool) {
	return ParseLanguage(r.Language)
}

// Extraction is what a filter extractor makes of a chat message
type Extraction struct {
	Response         string     `json:"response"`
	Filters          *FilterSet `json:"filters"`
	Intent           Intent     `json:"intent"`
	Suggestions      []string   `json:"suggestions"`
	DetectedLanguage Language   `json:"detected_language"`
}

// ChatResponse is the body returned by the chat endpoint
type ChatResponse struct {
	Response         string           `json:"response"`
	Properties       []ListingSummary `json:"properties"`
	Filters          *FilterSet       `json:"filters"`
	Intent           Intent           `json:"intent"`
	Suggestions      []string         `json:"suggestions"`
	PropertyCount    int              `json:"property_count"`
	DetectedLanguage Language         `json:"detected_language"`
	SearchID         string           `json:"search_id,omitempty"`
}

// Preferences are the soft constraints used for recommendations
type Preferences struct {
	District     string       `json:"district"`
	MaxPrice     float64      `json:"max_price"`
	PropertyType PropertyType `json:"property_type"`
}

// RecommendationRequest is the body of POST /api/v1/chat/recommendations
type RecommendationRequest struct {
	Preferences Preferences `json:"preferences"`
	Viewed      []int64     `json:"viewed_properties"`
}

// Recommendation is a ranked listing with the reasons it was picked
type Recommendation struct {
	ListingSummary
	Score          float64  `json:"score"`
	MatchedReasons []string `json:"matched_reasons"`
}

// RecommendationResponse is the body returned by the recommendations endpoint
type RecommendationResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
	Count           int              `json:"count"`
}

// InsightsRequest is the body of POST /api/v1/chat/insights
type InsightsRequest struct {
	District string `json:"district"`
}

// AreaInsights summarizes the listings of one district
type AreaInsights struct {
	Found           bool           `json:"found"`
	Message         string         `json:"message,omitempty"`
	District        string         `json:"district,omitempty"`
	AveragePrice    float64        `json:"average_price"`
	TotalProperties int            `json:"total_properties"`
	MostCommonType  string         `json:"most_common_type,omitempty"`
	TypeBreakdown   map[string]int `json:"type_breakdown,omitempty"`
}
