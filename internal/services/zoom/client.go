// Package zoom creates meetings through Zoom's server-to-server OAuth
// API so finalized event commands marked as Zoom meetings can carry a
// join link.
package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/ganderhq/gander/internal/models"
)

const (
	defaultTokenURL = "https://zoom.us/oauth/token"
	defaultAPIBase  = "https://api.zoom.us/v2"

	meetingTypeScheduled = 2
)

// Client talks to the Zoom REST API. Tokens come from the
// account_credentials grant and are reused until they expire.
type Client struct {
	httpClient *http.Client
	apiBase    string
	logger     *zap.Logger
}

// Config holds the server-to-server OAuth app credentials
type Config struct {
	ClientID     string
	ClientSecret string
	AccountID    string

	// TokenURL and APIBase override the Zoom endpoints in tests.
	TokenURL string
	APIBase  string
}

// NewClient builds a Zoom client. The underlying HTTP client injects
// a bearer token on every request and refreshes it as needed.
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.AccountID == "" {
		return nil, fmt.Errorf("zoom client id, secret, and account id are all required")
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}

	src := &accountTokenSource{ctx: ctx, cfg: cfg}
	return &Client{
		httpClient: oauth2.NewClient(ctx, oauth2.ReuseTokenSource(nil, src)),
		apiBase:    strings.TrimRight(cfg.APIBase, "/"),
		logger:     logger,
	}, nil
}

// accountTokenSource implements the account_credentials grant, which
// the generic client-credentials flow cannot express.
type accountTokenSource struct {
	ctx context.Context
	cfg Config
}

func (s *accountTokenSource) Token() (*oauth2.Token, error) {
	form := url.Values{
		"grant_type": {"account_credentials"},
		"account_id": {s.cfg.AccountID},
	}
	req, err := http.NewRequestWithContext(s.ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.SetBasicAuth(s.cfg.ClientID, s.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token request returned status %d", resp.StatusCode)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token response contained no access token")
	}

	return &oauth2.Token{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		Expiry:      time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
	}, nil
}

// Meeting is the subset of Zoom's meeting object the engine consumes
type Meeting struct {
	ID       int64  `json:"id"`
	JoinURL  string `json:"join_url"`
	StartURL string `json:"start_url"`
	Topic    string `json:"topic"`
}

type createMeetingRequest struct {
	Topic     string `json:"topic"`
	Type      int    `json:"type"`
	StartTime string `json:"start_time"`
	Duration  int    `json:"duration"`
	Timezone  string `json:"timezone"`
	Agenda    string `json:"agenda,omitempty"`
}

// CreateMeeting schedules a Zoom meeting matching the command's start,
// duration, and timezone, and returns the join link.
func (c *Client) CreateMeeting(ctx context.Context, cmd *models.StructuredCommand) (*Meeting, error) {
	loc, err := time.LoadLocation(cmd.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid command timezone %q: %w", cmd.Timezone, err)
	}
	start := cmd.Date.Time(cmd.Start, loc)
	end := cmd.EndDate.Time(cmd.End, loc)
	duration := int(end.Sub(start).Minutes())
	if duration < 1 {
		return nil, fmt.Errorf("meeting duration must be positive, got %d minutes", duration)
	}

	payload := createMeetingRequest{
		Topic:     cmd.Title,
		Type:      meetingTypeScheduled,
		StartTime: start.Format("2006-01-02T15:04:05"),
		Duration:  duration,
		Timezone:  cmd.Timezone,
		Agenda:    cmd.Description,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode meeting request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/users/me/meetings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build meeting request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("meeting request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read meeting response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		if c.logger != nil {
			c.logger.Warn("zoom_create_meeting_failed",
				zap.Int("status", resp.StatusCode),
				zap.Int("body_length", len(respBody)),
			)
		}
		return nil, fmt.Errorf("zoom returned status %d", resp.StatusCode)
	}

	var meeting Meeting
	if err := json.Unmarshal(respBody, &meeting); err != nil {
		return nil, fmt.Errorf("failed to parse meeting response: %w", err)
	}
	return &meeting, nil
}
