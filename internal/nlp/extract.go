package nlp

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"rentsearch/internal/filter"
	"rentsearch/internal/model"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RuleExtractor extracts filters from chat messages with fixed bilingual
// lookup tables. It needs no network and never fails, so it is always
// available as the last resort behind the language model.
type RuleExtractor struct {
	lex       *Lexicon
	cues      []keyword
	districts table
	types     table
	purposes  table
	prices    []*regexp.Regexp
	rooms     *regexp.Regexp
	wards     []*regexp.Regexp
	intents   []intentRule
	printer   *message.Printer
}

// NewRuleExtractor compiles a lexicon into an extractor
func NewRuleExtractor(lex *Lexicon) (*RuleExtractor, error) {
	prices, err := compilePatterns(lex.PricePatterns)
	if err != nil {
		return nil, err
	}
	wards, err := compilePatterns(lex.WardPatterns)
	if err != nil {
		return nil, err
	}
	rooms, err := regexp.Compile(lex.RoomPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid room pattern: %w", err)
	}

	e := &RuleExtractor{
		lex:       lex,
		cues:      compileWords(lex.NepaliCues),
		districts: compileTable(lex.Districts),
		types:     compileTable(lex.PropertyTypes),
		purposes:  compileTable(lex.Purposes),
		prices:    prices,
		rooms:     rooms,
		wards:     wards,
		printer:   message.NewPrinter(language.English),
	}
	for _, rule := range lex.Intents {
		e.intents = append(e.intents, intentRule{IntentRule: rule, keys: compileKeywords(rule.Keys)})
	}
	return e, nil
}

// NewDefaultRuleExtractor builds an extractor from the lexicon at path, or
// from the built-in lexicon when path is empty
func NewDefaultRuleExtractor(path string) (*RuleExtractor, error) {
	lex, err := LoadLexicon(path)
	if err != nil {
		return nil, err
	}
	return NewRuleExtractor(lex)
}

// Name identifies the extractor in logs
func (e *RuleExtractor) Name() string {
	return "rules"
}

// Extract implements the chat filter extraction contract. It never returns
// an error.
func (e *RuleExtractor) Extract(_ context.Context, req *model.ChatRequest) (*model.Extraction, error) {
	override, _ := req.Preference()
	return e.Parse(req.Message, override), nil
}

// Parse extracts filters from text. Filter extraction takes priority over
// the greeting/help/thanks/language-switch dispatch.
func (e *RuleExtractor) Parse(text string, override model.Language) *model.Extraction {
	u := newUtterance(text)

	lang := override
	if lang != model.LanguageEnglish && lang != model.LanguageNepali {
		lang = e.detect(u)
	}

	if fs := e.extractFilters(u); !fs.IsEmpty() {
		return &model.Extraction{
			Response:         e.describe(fs, lang),
			Filters:          fs,
			Intent:           model.IntentSearch,
			Suggestions:      e.lex.Search.Suggestions.In(lang),
			DetectedLanguage: lang,
		}
	}

	for _, rule := range e.intents {
		if !anyIn(rule.keys, u) {
			continue
		}
		replyLang := lang
		if to, ok := model.ParseLanguage(rule.SwitchTo); ok {
			replyLang = to
		}
		return &model.Extraction{
			Response:         rule.Text.In(replyLang),
			Intent:           rule.Intent,
			Suggestions:      rule.Suggestions.In(replyLang),
			DetectedLanguage: replyLang,
		}
	}

	intent := e.lex.Fallback.Intent
	if intent == "" {
		intent = model.IntentQuestion
	}
	return &model.Extraction{
		Response:         e.lex.Fallback.Text.In(lang),
		Intent:           intent,
		Suggestions:      e.lex.Fallback.Suggestions.In(lang),
		DetectedLanguage: lang,
	}
}

// NoResults is appended to a search reply that matched nothing
func (e *RuleExtractor) NoResults(lang model.Language) string {
	return e.lex.NoResults.In(lang)
}

func (e *RuleExtractor) extractFilters(u *utterance) *model.FilterSet {
	fs := &model.FilterSet{}

	if v, ok := e.districts.lookup(u); ok {
		fs.District = &v
	}
	if v, ok := e.types.lookup(u); ok {
		fs.PropertyType = filter.ParsePropertyType(v)
	}
	fs.MaxPrice = e.price(u)
	if v, ok := e.purposes.lookup(u); ok {
		fs.RentalPurpose = filter.ParseRentalPurpose(v)
	}
	if m := e.rooms.FindStringSubmatch(u.lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			fs.NumRooms = &n
		}
	}
	for _, re := range e.wards {
		if m := re.FindStringSubmatch(u.lower); m != nil {
			ward := m[1]
			fs.WardNumber = &ward
			break
		}
	}

	return filter.Normalize(fs)
}

// price tries the Nepali number phrases first, then the regex patterns in
// order over the lowercased text with thousands separators removed
func (e *RuleExtractor) price(u *utterance) *float64 {
	for _, np := range e.lex.NumberPhrases {
		if strings.Contains(u.raw, np.Phrase) {
			v := np.Value
			return &v
		}
	}
	stripped := strings.ReplaceAll(u.lower, ",", "")
	for _, re := range e.prices {
		if m := re.FindStringSubmatch(stripped); m != nil {
			if v := filter.ParseNumber(m[1]); v != nil {
				return v
			}
		}
	}
	return nil
}

func (e *RuleExtractor) describe(fs *model.FilterSet, lang model.Language) string {
	var en, np []string

	if fs.District != nil {
		en = append(en, "in "+*fs.District)
		np = append(np, *fs.District+"मा")
	}
	if fs.PropertyType != nil {
		t := string(*fs.PropertyType)
		en = append(en, "("+t+")")
		np = append(np, "("+lookupOr(e.lex.Search.TypeNames, t)+")")
	}
	if fs.MaxPrice != nil {
		amount := e.printer.Sprintf("%d", int64(*fs.MaxPrice))
		en = append(en, "under Rs. "+amount)
		np = append(np, "Rs. "+amount+" भन्दा कममा")
	}
	if fs.RentalPurpose != nil {
		p := string(*fs.RentalPurpose)
		en = append(en, "for "+p)
		np = append(np, lookupOr(e.lex.Search.PurposePhrases, p))
	}
	if fs.NumRooms != nil {
		en = append(en, fmt.Sprintf("with %d+ rooms", *fs.NumRooms))
		np = append(np, fmt.Sprintf("%d+ कोठासहित", *fs.NumRooms))
	}

	parts := en
	if lang == model.LanguageNepali {
		parts = np
	}
	desc := strings.Join(parts, " ")
	if desc == "" {
		desc = e.lex.Search.Generic.In(lang)
	}
	return fmt.Sprintf(e.lex.Search.Template.In(lang), desc)
}

func lookupOr(m map[string]string, key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return key
}
