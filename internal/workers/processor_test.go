package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ganderhq/gander/internal/database"
	"github.com/ganderhq/gander/internal/engine"
	"github.com/ganderhq/gander/internal/models"
	"github.com/ganderhq/gander/internal/services/zoom"
)

// mockDraftProvider is a mock implementation of DraftProvider
type mockDraftProvider struct {
	draftFunc func(ctx context.Context, utterance string, now time.Time, zone string) (*models.DraftCommand, error)
}

func (m *mockDraftProvider) DraftUtterance(ctx context.Context, utterance string, now time.Time, zone string) (*models.DraftCommand, error) {
	if m.draftFunc != nil {
		return m.draftFunc(ctx, utterance, now, zone)
	}
	return &models.DraftCommand{Intent: "create_event"}, nil
}

// mockRequestRepo is an in-memory CommandRequestRepositoryInterface
type mockRequestRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*models.CommandRequest

	getByIDFunc func(ctx context.Context, id uuid.UUID) (*models.CommandRequest, error)
	updateFunc  func(ctx context.Context, req *models.CommandRequest) error
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{requests: make(map[uuid.UUID]*models.CommandRequest)}
}

func (m *mockRequestRepo) Create(ctx context.Context, req *models.CommandRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = req
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CommandRequest, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, errors.New("command request not found")
	}
	return req, nil
}

func (m *mockRequestRepo) Update(ctx context.Context, req *models.CommandRequest) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = req
	return nil
}

func (m *mockRequestRepo) ListRecent(ctx context.Context, status *models.RequestStatus, limit int) ([]*models.CommandRequest, error) {
	return nil, errors.New("not implemented")
}

var _ database.CommandRequestRepositoryInterface = (*mockRequestRepo)(nil)

// mockMeetingCreator is a mock implementation of MeetingCreator
type mockMeetingCreator struct {
	createFunc func(ctx context.Context, cmd *models.StructuredCommand) (*zoom.Meeting, error)
}

func (m *mockMeetingCreator) CreateMeeting(ctx context.Context, cmd *models.StructuredCommand) (*zoom.Meeting, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, cmd)
	}
	return &zoom.Meeting{ID: 1, JoinURL: "https://zoom.example/j/1"}, nil
}

func referenceTime() time.Time {
	return time.Date(2025, time.May, 7, 10, 0, 0, 0, time.UTC)
}

func TestProcessRequest_Finalizes(t *testing.T) {
	t.Parallel()

	repo := newMockRequestRepo()
	req := models.NewCommandRequest("lunch with Alice tomorrow at noon", "UTC", referenceTime())
	_ = repo.Create(context.Background(), req)

	p := NewProcessor(&mockDraftProvider{}, repo, nil, nil, engine.Options{})

	if err := p.ProcessRequest(context.Background(), req.ID); err != nil {
		t.Fatalf("ProcessRequest() error = %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), req.ID)
	if stored.Status != models.RequestStatusFinalized {
		t.Fatalf("status = %s, want finalized", stored.Status)
	}
	if stored.Command == nil {
		t.Fatal("finalized request has no command")
	}
	if stored.Command.Date != (models.DateSpec{Year: 2025, Month: time.May, Day: 8}) {
		t.Errorf("Date = %s, want 2025-05-08", stored.Command.Date)
	}
	if stored.Command.Start != (models.TimeOfDay{Hour: 12}) {
		t.Errorf("Start = %s, want 12:00", stored.Command.Start)
	}
}

func TestProcessRequest_RejectionIsTerminal(t *testing.T) {
	t.Parallel()

	repo := newMockRequestRepo()
	req := models.NewCommandRequest("meet at 9pm QQT tomorrow", "UTC", referenceTime())
	_ = repo.Create(context.Background(), req)

	p := NewProcessor(nil, repo, nil, nil, engine.Options{})

	// Rejections are persisted, not retried
	if err := p.ProcessRequest(context.Background(), req.ID); err != nil {
		t.Fatalf("ProcessRequest() error = %v, want nil for rejection", err)
	}

	stored, _ := repo.GetByID(context.Background(), req.ID)
	if stored.Status != models.RequestStatusRejected {
		t.Fatalf("status = %s, want rejected", stored.Status)
	}
	if stored.RejectReason != string(engine.ReasonUnknownTimezone) {
		t.Errorf("reject reason = %q, want %q", stored.RejectReason, engine.ReasonUnknownTimezone)
	}
	if stored.Command != nil {
		t.Error("rejected request should carry no command")
	}
}

func TestProcessRequest_DraftFailureDegrades(t *testing.T) {
	t.Parallel()

	repo := newMockRequestRepo()
	req := models.NewCommandRequest("dinner friday at 7pm", "UTC", referenceTime())
	_ = repo.Create(context.Background(), req)

	provider := &mockDraftProvider{
		draftFunc: func(context.Context, string, time.Time, string) (*models.DraftCommand, error) {
			return nil, errors.New("model unavailable")
		},
	}
	p := NewProcessor(provider, repo, nil, nil, engine.Options{})

	if err := p.ProcessRequest(context.Background(), req.ID); err != nil {
		t.Fatalf("ProcessRequest() error = %v, want graceful degradation", err)
	}

	stored, _ := repo.GetByID(context.Background(), req.ID)
	if stored.Status != models.RequestStatusFinalized {
		t.Fatalf("status = %s, want finalized without draft", stored.Status)
	}
	if stored.Draft != nil {
		t.Error("expected no draft after provider failure")
	}
	if stored.Command.Start != (models.TimeOfDay{Hour: 19}) {
		t.Errorf("Start = %s, want 19:00 from the text alone", stored.Command.Start)
	}
}

func TestProcessRequest_ZoomMeetingAttached(t *testing.T) {
	t.Parallel()

	repo := newMockRequestRepo()
	req := models.NewCommandRequest("zoom call with Bob tomorrow at 2pm", "UTC", referenceTime())
	_ = repo.Create(context.Background(), req)

	meetings := &mockMeetingCreator{
		createFunc: func(ctx context.Context, cmd *models.StructuredCommand) (*zoom.Meeting, error) {
			if !cmd.ZoomMeeting {
				t.Error("CreateMeeting called for a command without the zoom flag")
			}
			return &zoom.Meeting{ID: 7, JoinURL: "https://zoom.example/j/7"}, nil
		},
	}
	p := NewProcessor(nil, repo, meetings, nil, engine.Options{})

	if err := p.ProcessRequest(context.Background(), req.ID); err != nil {
		t.Fatalf("ProcessRequest() error = %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), req.ID)
	if stored.Command == nil || stored.Command.MeetingURL != "https://zoom.example/j/7" {
		t.Errorf("command = %+v, want join link attached", stored.Command)
	}
}

func TestProcessRequest_MeetingFailureStillFinalizes(t *testing.T) {
	t.Parallel()

	repo := newMockRequestRepo()
	req := models.NewCommandRequest("zoom sync tomorrow at 2pm", "UTC", referenceTime())
	_ = repo.Create(context.Background(), req)

	meetings := &mockMeetingCreator{
		createFunc: func(context.Context, *models.StructuredCommand) (*zoom.Meeting, error) {
			return nil, errors.New("zoom unavailable")
		},
	}
	p := NewProcessor(nil, repo, meetings, nil, engine.Options{})

	if err := p.ProcessRequest(context.Background(), req.ID); err != nil {
		t.Fatalf("ProcessRequest() error = %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), req.ID)
	if stored.Status != models.RequestStatusFinalized {
		t.Fatalf("status = %s, want finalized despite meeting failure", stored.Status)
	}
	if stored.Command.MeetingURL != "" {
		t.Errorf("MeetingURL = %q, want empty", stored.Command.MeetingURL)
	}
}

func TestProcessRequest_AlreadySettledSkips(t *testing.T) {
	t.Parallel()

	repo := newMockRequestRepo()
	req := models.NewCommandRequest("lunch tomorrow", "UTC", referenceTime())
	req.Status = models.RequestStatusFinalized
	_ = repo.Create(context.Background(), req)

	var updated bool
	repo.updateFunc = func(context.Context, *models.CommandRequest) error {
		updated = true
		return nil
	}

	p := NewProcessor(nil, repo, nil, nil, engine.Options{})
	if err := p.ProcessRequest(context.Background(), req.ID); err != nil {
		t.Fatalf("ProcessRequest() error = %v", err)
	}
	if updated {
		t.Error("settled request was written back")
	}
}

func TestProcessRequest_InvalidTimezoneFails(t *testing.T) {
	t.Parallel()

	repo := newMockRequestRepo()
	req := models.NewCommandRequest("lunch tomorrow", "Not/AZone", referenceTime())
	_ = repo.Create(context.Background(), req)

	p := NewProcessor(nil, repo, nil, nil, engine.Options{})
	if err := p.ProcessRequest(context.Background(), req.ID); err != nil {
		t.Fatalf("ProcessRequest() error = %v, want terminal failure", err)
	}

	stored, _ := repo.GetByID(context.Background(), req.ID)
	if stored.Status != models.RequestStatusFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
}

func TestProcessRequest_MissingRequest(t *testing.T) {
	t.Parallel()

	repo := newMockRequestRepo()
	p := NewProcessor(nil, repo, nil, nil, engine.Options{})

	if err := p.ProcessRequest(context.Background(), uuid.New()); err == nil {
		t.Error("expected error for unknown request id")
	}
}
