// Package nlp is the rule-based fallback for turning chat messages into
// search filters. It understands English, Devanagari Nepali and Romanized
// Nepali through ordered lookup tables loaded from a YAML lexicon.
package nlp

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"rentsearch/internal/model"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexicon []byte

// Entry maps a set of keywords onto one canonical value
type Entry struct {
	Value string   `yaml:"value"`
	Keys  []string `yaml:"keys"`
}

// NumberPhrase is a Nepali number-word compound with its value
type NumberPhrase struct {
	Phrase string  `yaml:"phrase"`
	Value  float64 `yaml:"value"`
}

// Bilingual holds one text in both reply languages
type Bilingual struct {
	English string `yaml:"english"`
	Nepali  string `yaml:"nepali"`
}

// In returns the text for lang, falling back to English
func (b Bilingual) In(lang model.Language) string {
	if lang == model.LanguageNepali && b.Nepali != "" {
		return b.Nepali
	}
	return b.English
}

// BilingualList holds one list in both reply languages
type BilingualList struct {
	English []string `yaml:"english"`
	Nepali  []string `yaml:"nepali"`
}

// In returns a copy of the list for lang, falling back to English
func (b BilingualList) In(lang model.Language) []string {
	src := b.English
	if lang == model.LanguageNepali && len(b.Nepali) > 0 {
		src = b.Nepali
	}
	return append([]string{}, src...)
}

// IntentRule is one row of the no-filter dispatch table
type IntentRule struct {
	Intent      model.Intent  `yaml:"intent"`
	SwitchTo    string        `yaml:"switch_to"`
	Keys        []string      `yaml:"keys"`
	Text        Bilingual     `yaml:"text"`
	Suggestions BilingualList `yaml:"suggestions"`
}

// SearchReply configures the reply sent when filters were found
type SearchReply struct {
	Template       Bilingual         `yaml:"template"`
	Generic        Bilingual         `yaml:"generic"`
	Suggestions    BilingualList     `yaml:"suggestions"`
	TypeNames      map[string]string `yaml:"type_names"`
	PurposePhrases map[string]string `yaml:"purpose_phrases"`
}

// Lexicon is the raw, uncompiled rule set
type Lexicon struct {
	NepaliCues    []string       `yaml:"nepali_cues"`
	Districts     []Entry        `yaml:"districts"`
	PropertyTypes []Entry        `yaml:"property_types"`
	NumberPhrases []NumberPhrase `yaml:"number_phrases"`
	PricePatterns []string       `yaml:"price_patterns"`
	Purposes      []Entry        `yaml:"purposes"`
	RoomPattern   string         `yaml:"room_pattern"`
	WardPatterns  []string       `yaml:"ward_patterns"`
	Search        SearchReply    `yaml:"search"`
	NoResults     Bilingual      `yaml:"no_results"`
	Intents       []IntentRule   `yaml:"intents"`
	Fallback      IntentRule     `yaml:"fallback"`
}

// ParseLexicon decodes a YAML lexicon
func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}
	if len(lex.Districts) == 0 || len(lex.PropertyTypes) == 0 {
		return nil, fmt.Errorf("lexicon is missing district or property type tables")
	}
	return &lex, nil
}

// LoadLexicon reads a lexicon file, or the built-in one when path is empty
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return ParseLexicon(defaultLexicon)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon %s: %w", path, err)
	}
	return ParseLexicon(data)
}

// keyword is a compiled lookup key
type keyword struct {
	text string
	re   *regexp.Regexp
}

func newKeyword(k string, whole bool) keyword {
	k = strings.TrimSpace(k)
	if hasDevanagari(k) {
		return keyword{text: k}
	}
	lower := strings.ToLower(k)
	expr := `\b` + regexp.QuoteMeta(lower)
	if whole {
		expr += `\b`
	}
	return keyword{text: lower, re: regexp.MustCompile(expr)}
}

// in reports whether the keyword occurs in the message
func (k keyword) in(m *utterance) bool {
	if k.re != nil {
		return k.re.MatchString(m.lower)
	}
	return strings.Contains(m.raw, k.text) || strings.Contains(m.lower, k.text)
}

func compileKeywords(keys []string) []keyword {
	return compile(keys, false)
}

// compileWords compiles keys that must match whole words
func compileWords(keys []string) []keyword {
	return compile(keys, true)
}

func compile(keys []string, whole bool) []keyword {
	out := make([]keyword, 0, len(keys))
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			continue
		}
		out = append(out, newKeyword(k, whole))
	}
	return out
}

func anyIn(keys []keyword, m *utterance) bool {
	for _, k := range keys {
		if k.in(m) {
			return true
		}
	}
	return false
}

type table struct {
	values []string
	keys   [][]keyword
}

func compileTable(entries []Entry) table {
	t := table{}
	for _, e := range entries {
		t.values = append(t.values, e.Value)
		t.keys = append(t.keys, compileKeywords(e.Keys))
	}
	return t
}

// lookup returns the value of the first entry with a matching key
func (t table) lookup(m *utterance) (string, bool) {
	for i, keys := range t.keys {
		if anyIn(keys, m) {
			return t.values[i], true
		}
	}
	return "", false
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

type intentRule struct {
	IntentRule
	keys []keyword
}

// utterance is the input in both case forms. The lowered form also carries
// Devanagari digits as ASCII so the numeric patterns see one script.
type utterance struct {
	raw   string
	lower string
}

func newUtterance(s string) *utterance {
	return &utterance{raw: s, lower: strings.Map(asciiDigit, strings.ToLower(s))}
}

func asciiDigit(r rune) rune {
	if r >= '०' && r <= '९' {
		return '0' + (r - '०')
	}
	return r
}
