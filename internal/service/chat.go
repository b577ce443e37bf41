package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"rentsearch/internal/config"
	"rentsearch/internal/filter"
	"rentsearch/internal/model"
	"rentsearch/internal/nlp"
)

// minCandidates is the smallest pool ranked for recommendations
const minCandidates = 30

// ChatService answers chat messages, recommendations and area questions
type ChatService struct {
	primary FilterExtractor
	rules   *nlp.RuleExtractor
	search  *SearchService
	ranker  *Ranker
	cfg     config.ChatConfig
}

// NewChatService creates a chat service. primary may be nil, in which
// case every message goes to the rule extractor.
func NewChatService(primary FilterExtractor, rules *nlp.RuleExtractor, search *SearchService, ranker *Ranker, cfg config.ChatConfig) *ChatService {
	return &ChatService{
		primary: primary,
		rules:   rules,
		search:  search,
		ranker:  ranker,
		cfg:     cfg,
	}
}

// Chat interprets the message and runs the resulting search. Extraction
// and search failures are logged and never reach the caller.
func (s *ChatService) Chat(ctx context.Context, req *model.ChatRequest) *model.ChatResponse {
	ext := s.extract(ctx, req)

	resp := &model.ChatResponse{
		Response:         ext.Response,
		Properties:       []model.ListingSummary{},
		Filters:          ext.Filters,
		Intent:           ext.Intent,
		Suggestions:      ext.Suggestions,
		DetectedLanguage: ext.DetectedLanguage,
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []string{}
	}
	if resp.DetectedLanguage == "" {
		resp.DetectedLanguage = model.LanguageEnglish
	}

	if ext.Filters != nil {
		listings, searchID, err := s.search.Match(ctx, ext.Filters, s.cfg.ResultLimit, req.Message)
		if err != nil {
			log.Printf("❌ Chat search failed: %v", err)
		} else {
			resp.SearchID = searchID
			for i := range listings {
				resp.Properties = append(resp.Properties, listings[i].Summary())
			}
		}
		if len(resp.Properties) == 0 {
			resp.Response += s.rules.NoResults(resp.DetectedLanguage)
		}
	}

	resp.PropertyCount = len(resp.Properties)
	return resp
}

// extract tries the primary extractor once and falls back to the rules
func (s *ChatService) extract(ctx context.Context, req *model.ChatRequest) *model.Extraction {
	if s.primary != nil {
		ext, err := s.primary.Extract(ctx, req)
		if err == nil && ext != nil {
			return ext
		}
		log.Printf("⚠️  %s extractor failed, falling back to %s: %v", s.primary.Name(), s.rules.Name(), err)
	}

	ext, _ := s.rules.Extract(ctx, req)
	log.Printf("[DEBUG] %s extractor - intent: %s, language: %s, filters: %t",
		s.rules.Name(), ext.Intent, ext.DetectedLanguage, ext.Filters != nil)
	return ext
}

// Recommend ranks listings against soft preferences. The price ceiling is
// relaxed by the configured flex factor and viewed listings are skipped.
func (s *ChatService) Recommend(ctx context.Context, req *model.RecommendationRequest) (*model.RecommendationResponse, error) {
	prefs := req.Preferences
	prefs.District = strings.TrimSpace(prefs.District)

	var preds []filter.Predicate
	if prefs.District != "" {
		preds = append(preds, filter.Contains(prefs.District, filter.FieldDistrict))
	}
	if prefs.MaxPrice > 0 && !math.IsInf(prefs.MaxPrice, 0) {
		preds = append(preds, filter.AtMost(filter.FieldPrice, prefs.MaxPrice*s.cfg.PriceFlex))
	} else {
		prefs.MaxPrice = 0
	}
	if t := filter.ParsePropertyType(string(prefs.PropertyType)); t != nil {
		preds = append(preds, filter.Equals(filter.FieldPropertyType, string(*t)))
	}
	if len(req.Viewed) > 0 {
		preds = append(preds, filter.ExcludeIDs(req.Viewed))
	}

	limit := s.cfg.RecommendationLimit
	pool := limit * 5
	if pool < minCandidates {
		pool = minCandidates
	}

	candidates, err := s.search.Candidates(ctx, preds, pool)
	if err != nil {
		return nil, err
	}

	ranked := s.ranker.Rank(candidates, &prefs)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return &model.RecommendationResponse{Recommendations: ranked, Count: len(ranked)}, nil
}

// Insights summarizes the listings of a district
func (s *ChatService) Insights(ctx context.Context, district string) (*model.AreaInsights, error) {
	district = strings.TrimSpace(district)
	counts, err := s.search.CountByType(ctx, []filter.Predicate{filter.Contains(district, filter.FieldDistrict)})
	if err != nil {
		return nil, err
	}

	byType := make(map[model.PropertyType]int, len(counts))
	total := 0
	sum := 0.0
	for _, tc := range counts {
		byType[tc.PropertyType] += tc.Count
		total += tc.Count
		sum += tc.PriceSum
	}
	if total == 0 {
		return &model.AreaInsights{
			Found:   false,
			Message: fmt.Sprintf("I don't have much data about %s yet.", district),
		}, nil
	}

	insights := &model.AreaInsights{
		Found:           true,
		District:        district,
		AveragePrice:    math.Round(sum / float64(total)),
		TotalProperties: total,
		TypeBreakdown:   make(map[string]int, len(byType)),
	}

	best := 0
	pick := func(t model.PropertyType) {
		n := byType[t]
		if n == 0 {
			return
		}
		insights.TypeBreakdown[t.Label()] += n
		if n > best {
			best = n
			insights.MostCommonType = t.Label()
		}
		delete(byType, t)
	}
	for _, t := range model.PropertyTypes {
		pick(t)
	}
	for _, tc := range counts {
		pick(tc.PropertyType)
	}

	return insights, nil
}
