package ai

import (
	"strings"
	"testing"
	"time"
)

func TestParseDraftResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr bool
		check   func(*testing.T, *testDraft)
	}{
		{
			name:    "clean json",
			content: `{"intent":"create_event","title":"Standup","date":"2025-05-08","start_time":"09:30"}`,
			check: func(t *testing.T, d *testDraft) {
				if d.Intent != "create_event" || d.Title != "Standup" {
					t.Errorf("draft = %+v", d)
				}
				if d.Date != "2025-05-08" || d.StartTime != "09:30" {
					t.Errorf("temporal fields = %q %q", d.Date, d.StartTime)
				}
			},
		},
		{
			name:    "json wrapped in prose",
			content: "Here is the command:\n```json\n{\"intent\":\"create_reminder\",\"title\":\"Pay rent\"}\n```",
			check: func(t *testing.T, d *testDraft) {
				if d.Intent != "create_reminder" || d.Title != "Pay rent" {
					t.Errorf("draft = %+v", d)
				}
			},
		},
		{
			name:    "missing intent defaults to event",
			content: `{"title":"Lunch"}`,
			check: func(t *testing.T, d *testDraft) {
				if d.Intent != "create_event" {
					t.Errorf("Intent = %q, want create_event default", d.Intent)
				}
			},
		},
		{
			name:    "not json at all",
			content: "I could not understand that request.",
			wantErr: true,
		},
		{
			name:    "empty response",
			content: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			draft, err := parseDraftResponse(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDraftResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.check != nil {
				tt.check(t, &testDraft{
					Intent:    draft.Intent,
					Title:     draft.Title,
					Date:      draft.Date,
					StartTime: draft.StartTime,
				})
			}
		})
	}
}

type testDraft struct {
	Intent    string
	Title     string
	Date      string
	StartTime string
}

func TestBuildDraftPrompt(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.May, 7, 10, 0, 0, 0, time.UTC)
	prompt := buildDraftPrompt("lunch with Sam tomorrow at noon", now, "America/New_York")

	for _, want := range []string{
		"lunch with Sam tomorrow at noon",
		"2025-05-07",
		"Wednesday",
		"America/New_York",
		"Return only valid JSON",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestProviderRegistry(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry()
	RegisterOpenAI(registry)

	if _, err := registry.GetProvider("openai", map[string]string{}); err == nil {
		t.Error("expected error without api_key")
	}

	p, err := registry.GetProvider("openai", map[string]string{"api_key": "sk-test"})
	if err != nil {
		t.Fatalf("GetProvider() error = %v", err)
	}
	if p == nil {
		t.Fatal("provider is nil")
	}

	if _, err := registry.GetProvider("nonexistent", nil); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestDraftCacheKey(t *testing.T) {
	t.Parallel()

	morning := time.Date(2025, time.May, 7, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2025, time.May, 7, 22, 0, 0, 0, time.UTC)
	nextDay := time.Date(2025, time.May, 8, 8, 0, 0, 0, time.UTC)

	// Same utterance and date: identical keys regardless of clock time.
	if draftCacheKey("lunch tomorrow", morning, "UTC") != draftCacheKey("lunch tomorrow", evening, "UTC") {
		t.Error("keys differ within the same day")
	}
	// A new day changes what "tomorrow" means, so the key must change.
	if draftCacheKey("lunch tomorrow", morning, "UTC") == draftCacheKey("lunch tomorrow", nextDay, "UTC") {
		t.Error("keys match across days")
	}
	if draftCacheKey("lunch tomorrow", morning, "UTC") == draftCacheKey("lunch tomorrow", morning, "Asia/Tokyo") {
		t.Error("keys match across zones")
	}
	if draftCacheKey("lunch tomorrow", morning, "UTC") == draftCacheKey("dinner tomorrow", morning, "UTC") {
		t.Error("keys match across utterances")
	}
}

func TestSanitizeAPIKey(t *testing.T) {
	t.Parallel()

	if got := SanitizeAPIKey(""); got != "" {
		t.Errorf("empty key = %q", got)
	}
	if got := SanitizeAPIKey("short"); got != RedactedValue {
		t.Errorf("short key = %q, want fully redacted", got)
	}
	got := SanitizeAPIKey("sk-aaaabbbbccccdddd")
	if !strings.HasPrefix(got, "sk-a") || !strings.HasSuffix(got, "dddd") || !strings.Contains(got, RedactedValue) {
		t.Errorf("long key = %q, want edges visible and middle redacted", got)
	}
}
