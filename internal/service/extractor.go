package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"rentsearch/internal/filter"
	"rentsearch/internal/model"
	"rentsearch/internal/nlp"
	"rentsearch/internal/utils"
)

// FilterExtractor turns a chat message into a reply and an optional filter set
type FilterExtractor interface {
	// Name identifies the extractor in logs
	Name() string
	// Extract interprets one message. An error means the caller should fall back.
	Extract(ctx context.Context, req *model.ChatRequest) (*model.Extraction, error)
}

var (
	_ FilterExtractor = (*LLMExtractor)(nil)
	_ FilterExtractor = (*nlp.RuleExtractor)(nil)
)

// LLMExtractor asks an OpenAI-compatible chat model to extract filters
type LLMExtractor struct {
	client       ChatCompleter
	rules        *nlp.RuleExtractor
	historyLimit int
	timeout      time.Duration
}

// NewLLMExtractor creates an extractor backed by client. rules is used for
// language detection when the model reply cannot be parsed.
func NewLLMExtractor(client ChatCompleter, rules *nlp.RuleExtractor, historyLimit int, timeout time.Duration) *LLMExtractor {
	return &LLMExtractor{
		client:       client,
		rules:        rules,
		historyLimit: historyLimit,
		timeout:      timeout,
	}
}

// Name identifies the extractor in logs
func (e *LLMExtractor) Name() string {
	return "llm"
}

// llmReply is the JSON object the model is asked to return
type llmReply struct {
	Response         string         `json:"response"`
	Filters          map[string]any `json:"filters"`
	Intent           string         `json:"intent"`
	Suggestions      []string       `json:"suggestions"`
	DetectedLanguage string         `json:"detected_language"`
}

// Extract makes a single completion request. Transport and envelope errors
// are returned; a reply that is not JSON becomes a plain question answer.
func (e *LLMExtractor) Extract(ctx context.Context, req *model.ChatRequest) (*model.Extraction, error) {
	if !e.client.IsEnabled() {
		return nil, fmt.Errorf("chat model is not configured")
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.client.ChatCompletion(ctx, ChatCompletionRequest{
		Messages:       e.messages(req),
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	content, err := resp.Content()
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	override, _ := req.Preference()

	var reply llmReply
	if err := utils.ParseAIJSON(content, &reply); err != nil {
		log.Printf("[DEBUG] ⚠️  Model reply is not JSON, returning it as text: %v", err)
		return &model.Extraction{
			Response:         content,
			Intent:           model.IntentQuestion,
			Suggestions:      []string{},
			DetectedLanguage: e.rules.DetectLanguage(req.Message, override),
		}, nil
	}

	return e.toExtraction(&reply, req, override), nil
}

// messages assembles the prompt: instructions, hints, recent history, message
func (e *LLMExtractor) messages(req *model.ChatRequest) []ChatMessage {
	msgs := []ChatMessage{{Role: "system", Content: systemPrompt}}

	if lang, ok := req.Preference(); ok {
		hint := englishHint
		if lang == model.LanguageNepali {
			hint = nepaliHint
		}
		msgs = append(msgs, ChatMessage{Role: "system", Content: hint})
	}

	if req.Location != nil && strings.TrimSpace(req.Location.District) != "" {
		msgs = append(msgs, ChatMessage{
			Role:    "system",
			Content: fmt.Sprintf("User's approximate location: %s", strings.TrimSpace(req.Location.District)),
		})
	}

	var history []ChatMessage
	for _, m := range req.History {
		if (m.Role != "user" && m.Role != "assistant") || strings.TrimSpace(m.Content) == "" {
			continue
		}
		history = append(history, ChatMessage{Role: m.Role, Content: m.Content})
	}
	if e.historyLimit > 0 && len(history) > e.historyLimit {
		history = history[len(history)-e.historyLimit:]
	}
	msgs = append(msgs, history...)

	return append(msgs, ChatMessage{Role: "user", Content: req.Message})
}

func (e *LLMExtractor) toExtraction(reply *llmReply, req *model.ChatRequest, override model.Language) *model.Extraction {
	out := &model.Extraction{
		Response:    strings.TrimSpace(reply.Response),
		Suggestions: reply.Suggestions,
	}
	if out.Suggestions == nil {
		out.Suggestions = []string{}
	}

	switch {
	case override != "":
		out.DetectedLanguage = override
	default:
		if lang, ok := model.ParseLanguage(strings.ToLower(strings.TrimSpace(reply.DetectedLanguage))); ok {
			out.DetectedLanguage = lang
		} else {
			out.DetectedLanguage = e.rules.DetectLanguage(req.Message, "")
		}
	}

	if reply.Filters != nil {
		fs := filter.FromMap(reply.Filters)
		fs.Amenities = utils.CanonicalAmenities(fs.Amenities)
		if !fs.IsEmpty() {
			out.Filters = fs
		}
	}

	out.Intent = parseIntent(reply.Intent)
	if out.Intent == "" {
		out.Intent = model.IntentQuestion
		if out.Filters != nil {
			out.Intent = model.IntentSearch
		}
	}

	if out.Response == "" {
		out.Response = e.rules.Parse(req.Message, out.DetectedLanguage).Response
	}

	log.Printf("[DEBUG] 🎯 Model extraction - intent: %s, language: %s, filters: %t",
		out.Intent, out.DetectedLanguage, out.Filters != nil)
	return out
}

func parseIntent(s string) model.Intent {
	switch intent := model.Intent(strings.ToLower(strings.TrimSpace(s))); intent {
	case model.IntentSearch, model.IntentQuestion, model.IntentGreeting, model.IntentHelp,
		model.IntentThanks, model.IntentLanguageSwitch, model.IntentComparison, model.IntentRecommendation:
		return intent
	}
	return ""
}
