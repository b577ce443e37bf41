package service

import (
	"math"
	"sort"
	"strings"
	"time"

	"rentsearch/internal/model"
)

// Match reason constants
const (
	ReasonHighlyRated       = "Highly rated"
	ReasonPopular           = "Popular"
	ReasonNewlyListed       = "Newly listed"
	ReasonWithinBudget      = "Within budget"
	ReasonPreferredDistrict = "In preferred district"
	ReasonGeneralMatch      = "General match"
)

// Ranker scores recommendation candidates
type Ranker struct {
	weightRating     float64
	weightPopularity float64
	weightRecency    float64
	now              func() time.Time
}

// NewRanker creates a new ranker with specified weights
func NewRanker(weightRating, weightPopularity, weightRecency float64) *Ranker {
	return &Ranker{
		weightRating:     weightRating,
		weightPopularity: weightPopularity,
		weightRecency:    weightRecency,
		now:              time.Now,
	}
}

// Rank scores listings against the preferences and returns them best
// first. Ties keep the lower id first.
func (r *Ranker) Rank(listings []model.Listing, prefs *model.Preferences) []model.Recommendation {
	maxViews := 0
	for i := range listings {
		if listings[i].ViewsCount > maxViews {
			maxViews = listings[i].ViewsCount
		}
	}

	results := make([]model.Recommendation, 0, len(listings))
	for i := range listings {
		l := &listings[i]

		ratingScore := l.AverageRating / 5
		if ratingScore > 1 {
			ratingScore = 1
		}
		popularityScore := r.calculatePopularityScore(l.ViewsCount, maxViews)
		recencyScore := r.calculateRecencyScore(l.CreatedAt)

		score := (r.weightRating * ratingScore) +
			(r.weightPopularity * popularityScore) +
			(r.weightRecency * recencyScore)

		results = append(results, model.Recommendation{
			ListingSummary: l.Summary(),
			Score:          math.Round(score*1000) / 1000,
			MatchedReasons: r.generateMatchedReasons(l, prefs, popularityScore),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	return results
}

// calculatePopularityScore normalizes views against the busiest candidate
func (r *Ranker) calculatePopularityScore(views, maxViews int) float64 {
	if maxViews <= 0 {
		return 0
	}
	return float64(views) / float64(maxViews)
}

// calculateRecencyScore decays with listing age.
// After 30 days: ~0.74, after 60 days: ~0.55, after 90 days: ~0.41
func (r *Ranker) calculateRecencyScore(createdAt time.Time) float64 {
	if createdAt.IsZero() {
		return 0.5
	}

	days := r.now().Sub(createdAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Exp(-0.01 * days)
}

func (r *Ranker) generateMatchedReasons(l *model.Listing, prefs *model.Preferences, popularity float64) []string {
	reasons := []string{}

	if l.AverageRating >= 4 {
		reasons = append(reasons, ReasonHighlyRated)
	}
	if l.ViewsCount > 0 && popularity >= 0.5 {
		reasons = append(reasons, ReasonPopular)
	}
	if !l.CreatedAt.IsZero() && r.now().Sub(l.CreatedAt) < 7*24*time.Hour {
		reasons = append(reasons, ReasonNewlyListed)
	}

	if prefs != nil {
		if prefs.MaxPrice > 0 && l.Price <= prefs.MaxPrice {
			reasons = append(reasons, ReasonWithinBudget)
		}
		district := strings.TrimSpace(prefs.District)
		if district != "" && strings.Contains(strings.ToLower(l.District), strings.ToLower(district)) {
			reasons = append(reasons, ReasonPreferredDistrict)
		}
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonGeneralMatch)
	}
	return reasons
}
