package zoom

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ganderhq/gander/internal/models"
)

func testCommand() *models.StructuredCommand {
	return &models.StructuredCommand{
		Kind:        models.KindEvent,
		Title:       "Design Review",
		Date:        models.DateSpec{Year: 2025, Month: time.May, Day: 8},
		Start:       models.TimeOfDay{Hour: 14},
		End:         models.TimeOfDay{Hour: 15},
		EndDate:     models.DateSpec{Year: 2025, Month: time.May, Day: 8},
		Timezone:    "UTC",
		ZoomMeeting: true,
	}
}

func TestCreateMeeting(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotMeeting createMeetingRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if grant := r.Form.Get("grant_type"); grant != "account_credentials" {
			t.Errorf("grant_type = %q, want account_credentials", grant)
		}
		if acct := r.Form.Get("account_id"); acct != "acct-1" {
			t.Errorf("account_id = %q, want acct-1", acct)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "client-1" || pass != "secret-1" {
			t.Errorf("basic auth = %q/%q", user, pass)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/v2/users/me/meetings", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotMeeting); err != nil {
			t.Errorf("decode meeting request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Meeting{ID: 42, JoinURL: "https://zoom.example/j/42", Topic: gotMeeting.Topic})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := NewClient(context.Background(), Config{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		AccountID:    "acct-1",
		TokenURL:     srv.URL + "/oauth/token",
		APIBase:      srv.URL + "/v2",
	}, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	meeting, err := client.CreateMeeting(context.Background(), testCommand())
	if err != nil {
		t.Fatalf("CreateMeeting() error = %v", err)
	}

	if meeting.ID != 42 || meeting.JoinURL != "https://zoom.example/j/42" {
		t.Errorf("meeting = %+v", meeting)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
	if gotMeeting.Topic != "Design Review" || gotMeeting.Duration != 60 {
		t.Errorf("meeting request = %+v", gotMeeting)
	}
	if gotMeeting.StartTime != "2025-05-08T14:00:00" {
		t.Errorf("StartTime = %q", gotMeeting.StartTime)
	}
}

func TestCreateMeeting_APIError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	})
	mux.HandleFunc("/v2/users/me/meetings", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := NewClient(context.Background(), Config{
		ClientID: "c", ClientSecret: "s", AccountID: "a",
		TokenURL: srv.URL + "/oauth/token",
		APIBase:  srv.URL + "/v2",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := client.CreateMeeting(context.Background(), testCommand()); err == nil {
		t.Error("expected error for non-201 response")
	}
}

func TestNewClient_MissingCredentials(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(context.Background(), Config{ClientID: "only-id"}, nil); err == nil {
		t.Error("expected error for incomplete credentials")
	}
}

func TestCreateMeeting_ZeroDuration(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := NewClient(context.Background(), Config{
		ClientID: "c", ClientSecret: "s", AccountID: "a",
		TokenURL: srv.URL + "/oauth/token",
		APIBase:  srv.URL,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	cmd := testCommand()
	cmd.End = cmd.Start
	if _, err := client.CreateMeeting(context.Background(), cmd); err == nil {
		t.Error("expected error for zero duration")
	}
}
