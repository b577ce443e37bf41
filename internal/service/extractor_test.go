package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"rentsearch/internal/model"
)

func TestLLMExtractor_Extract(t *testing.T) {
	rules := newRules(t)

	tests := []struct {
		name    string
		content string
		message string
		check   func(t *testing.T, ext *model.Extraction)
	}{
		{
			name: "JSON reply with filters",
			content: `{"response": "Here are flats in Lalitpur", "detected_language": "english",
				"filters": {"district": "Lalitpur", "property_type": "Flat", "max_price": "20,000", "amenities": ["wifi", "car park"]},
				"intent": "search", "suggestions": ["Cheaper options"]}`,
			message: "flat in lalitpur under 20000 with wifi",
			check: func(t *testing.T, ext *model.Extraction) {
				if ext.Filters == nil {
					t.Fatal("Expected filters")
				}
				if *ext.Filters.District != "Lalitpur" || *ext.Filters.PropertyType != model.PropertyFlat || *ext.Filters.MaxPrice != 20000 {
					t.Errorf("Filters = %+v", ext.Filters)
				}
				if len(ext.Filters.Amenities) != 2 || ext.Filters.Amenities[0] != "WiFi" || ext.Filters.Amenities[1] != "Parking" {
					t.Errorf("Amenities = %v", ext.Filters.Amenities)
				}
				if ext.Intent != model.IntentSearch {
					t.Errorf("Intent = %v", ext.Intent)
				}
			},
		},
		{
			name:    "Fenced reply with null filters",
			content: "```json\n{\"response\": \"Namaste!\", \"filters\": null, \"intent\": \"greeting\", \"detected_language\": \"nepali\"}\n```",
			message: "namaste",
			check: func(t *testing.T, ext *model.Extraction) {
				if ext.Filters != nil {
					t.Errorf("Expected nil filters, got %+v", ext.Filters)
				}
				if ext.Intent != model.IntentGreeting || ext.DetectedLanguage != model.LanguageNepali {
					t.Errorf("Intent = %v, language = %v", ext.Intent, ext.DetectedLanguage)
				}
				if ext.Suggestions == nil {
					t.Error("Suggestions should be an empty list, not nil")
				}
			},
		},
		{
			name:    "Filters with only invalid values become null",
			content: `{"response": "ok", "filters": {"property_type": "castle", "max_price": "cheap"}}`,
			message: "castle please",
			check: func(t *testing.T, ext *model.Extraction) {
				if ext.Filters != nil {
					t.Errorf("Expected nil filters, got %+v", ext.Filters)
				}
				if ext.Intent != model.IntentQuestion {
					t.Errorf("Intent = %v, want question", ext.Intent)
				}
			},
		},
		{
			name:    "Missing intent is inferred from filters",
			content: `{"response": "Looking", "filters": {"district": "Pokhara"}}`,
			message: "pokhara",
			check: func(t *testing.T, ext *model.Extraction) {
				if ext.Intent != model.IntentSearch {
					t.Errorf("Intent = %v, want search", ext.Intent)
				}
			},
		},
		{
			name:    "Plain text reply",
			content: "काठमाडौंमा धेरै कोठाहरू छन्।",
			message: "काठमाडौंमा कोठा छ?",
			check: func(t *testing.T, ext *model.Extraction) {
				if ext.Response != "काठमाडौंमा धेरै कोठाहरू छन्।" {
					t.Errorf("Response = %q", ext.Response)
				}
				if ext.Filters != nil || ext.Intent != model.IntentQuestion {
					t.Errorf("Filters = %+v, intent = %v", ext.Filters, ext.Intent)
				}
				if ext.DetectedLanguage != model.LanguageNepali {
					t.Errorf("DetectedLanguage = %v", ext.DetectedLanguage)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeCompleter{enabled: true, content: tt.content}
			e := NewLLMExtractor(client, rules, 8, time.Second)

			ext, err := e.Extract(context.Background(), &model.ChatRequest{Message: tt.message})
			if err != nil {
				t.Fatalf("Extract returned error: %v", err)
			}
			tt.check(t, ext)
		})
	}
}

func TestLLMExtractor_Errors(t *testing.T) {
	rules := newRules(t)
	req := &model.ChatRequest{Message: "flat in kathmandu"}

	disabled := &fakeCompleter{enabled: false}
	if _, err := NewLLMExtractor(disabled, rules, 8, 0).Extract(context.Background(), req); err == nil {
		t.Error("Expected an error when the client is disabled")
	}
	if disabled.calls != 0 {
		t.Errorf("Disabled client was called %d times", disabled.calls)
	}

	failing := &fakeCompleter{enabled: true, err: errors.New("status 500")}
	if _, err := NewLLMExtractor(failing, rules, 8, 0).Extract(context.Background(), req); err == nil {
		t.Error("Expected transport errors to be returned")
	}
	if failing.calls != 1 {
		t.Errorf("Expected exactly one attempt, got %d", failing.calls)
	}

	empty := &fakeCompleter{enabled: true, content: "   "}
	if _, err := NewLLMExtractor(empty, rules, 8, 0).Extract(context.Background(), req); err == nil {
		t.Error("Expected an error for empty content")
	}
}

func TestLLMExtractor_Messages(t *testing.T) {
	client := &fakeCompleter{enabled: true, content: `{"response": "ok"}`}
	e := NewLLMExtractor(client, newRules(t), 2, 0)

	req := &model.ChatRequest{
		Message:  "any flats?",
		Language: "nepali",
		Location: &model.UserLocation{District: "Lalitpur"},
		History: []model.ChatMessage{
			{Role: "user", Content: "first"},
			{Role: "assistant", Content: "second"},
			{Role: "system", Content: "ignore me"},
			{Role: "user", Content: "third"},
		},
	}
	ext, err := e.Extract(context.Background(), req)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if ext.DetectedLanguage != model.LanguageNepali {
		t.Errorf("Language override ignored: %v", ext.DetectedLanguage)
	}

	msgs := client.last.Messages
	if len(msgs) != 6 {
		t.Fatalf("Expected 6 messages, got %d: %+v", len(msgs), msgs)
	}
	if msgs[0].Content != systemPrompt || msgs[1].Content != nepaliHint {
		t.Errorf("Unexpected system messages: %q, %q", msgs[0].Content, msgs[1].Content)
	}
	if !strings.Contains(msgs[2].Content, "Lalitpur") {
		t.Errorf("Expected location hint, got %q", msgs[2].Content)
	}
	if msgs[3].Content != "second" || msgs[4].Content != "third" {
		t.Errorf("History not trimmed to the latest two: %+v", msgs[3:5])
	}
	if msgs[5].Role != "user" || msgs[5].Content != "any flats?" {
		t.Errorf("Last message = %+v", msgs[5])
	}
	if client.last.ResponseFormat == nil || client.last.ResponseFormat.Type != "json_object" {
		t.Errorf("Expected json_object response format")
	}
}
