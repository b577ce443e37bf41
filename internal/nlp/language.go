package nlp

import "rentsearch/internal/model"

func isDevanagari(r rune) bool {
	return r >= 0x0900 && r <= 0x097F
}

func hasDevanagari(s string) bool {
	for _, r := range s {
		if isDevanagari(r) {
			return true
		}
	}
	return false
}

// DetectLanguage classifies a message as Nepali when it contains Devanagari
// or a Romanized-Nepali cue word, English otherwise. A non-empty override
// wins over detection.
func (e *RuleExtractor) DetectLanguage(text string, override model.Language) model.Language {
	if override == model.LanguageEnglish || override == model.LanguageNepali {
		return override
	}
	return e.detect(newUtterance(text))
}

func (e *RuleExtractor) detect(m *utterance) model.Language {
	if hasDevanagari(m.raw) || anyIn(e.cues, m) {
		return model.LanguageNepali
	}
	return model.LanguageEnglish
}
