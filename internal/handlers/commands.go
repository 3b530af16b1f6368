package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ganderhq/gander/internal/database"
	"github.com/ganderhq/gander/internal/engine"
	"github.com/ganderhq/gander/internal/models"
	"github.com/ganderhq/gander/internal/queue"
	"github.com/ganderhq/gander/internal/validation"
	"github.com/ganderhq/gander/internal/workers"
)

const (
	// MaxUtteranceLength is the maximum length for an utterance
	MaxUtteranceLength = 2000
	// DefaultListLimit is the default limit when listing requests
	DefaultListLimit = 50
	// MaxListLimit is the maximum limit when listing requests
	MaxListLimit = 200
)

// CommandHandler handles command request submission and retrieval
type CommandHandler struct {
	repo       database.CommandRequestRepositoryInterface
	processor  *workers.Processor
	jobQueue   queue.JobQueue
	engineOpts engine.Options
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(
	repo database.CommandRequestRepositoryInterface,
	processor *workers.Processor,
	jobQueue queue.JobQueue,
	engineOpts engine.Options,
) *CommandHandler {
	return &CommandHandler{
		repo:       repo,
		processor:  processor,
		jobQueue:   jobQueue,
		engineOpts: engineOpts,
	}
}

// RegisterRoutes registers command routes on the given router
// The router should already have the /commands prefix
func (h *CommandHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.SubmitCommand).Methods("POST")
	r.HandleFunc("", h.ListCommands).Methods("GET")
	r.HandleFunc("/preview", h.PreviewCommand).Methods("POST")
	r.HandleFunc("/{id}", h.GetCommand).Methods("GET")
}

// SubmitCommandRequest represents a command submission
type SubmitCommandRequest struct {
	Utterance string `json:"utterance" validate:"omitempty,max=2000"`
	Timezone  string `json:"timezone" validate:"required"`
	// ReferenceTime anchors relative phrases; it defaults to now.
	ReferenceTime *time.Time `json:"reference_time,omitempty"`
	// Mode selects sync (default) or async processing.
	Mode  string               `json:"mode,omitempty" validate:"omitempty,oneof=sync async"`
	Draft *models.DraftCommand `json:"draft,omitempty"`
}

// PreviewCommandRequest represents a preview request. Preview runs the
// deterministic engine only, without drafting or persistence.
type PreviewCommandRequest struct {
	Utterance     string               `json:"utterance" validate:"omitempty,max=2000"`
	Timezone      string               `json:"timezone" validate:"required"`
	ReferenceTime *time.Time           `json:"reference_time,omitempty"`
	Draft         *models.DraftCommand `json:"draft,omitempty"`
}

// SubmitCommand handles POST /commands
func (h *CommandHandler) SubmitCommand(w http.ResponseWriter, r *http.Request) {
	var body SubmitCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}

	body.Utterance = validation.SanitizeText(body.Utterance)
	if err := validation.Validate.Struct(&body); err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Validation failed")
		return
	}
	if body.Utterance == "" && body.Draft == nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Either utterance or draft is required")
		return
	}
	if err := validation.ValidateTimezone(body.Timezone); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	referenceTime := time.Now()
	if body.ReferenceTime != nil {
		referenceTime = *body.ReferenceTime
	}

	req := models.NewCommandRequest(body.Utterance, body.Timezone, referenceTime)
	req.Draft = body.Draft

	if err := h.repo.Create(r.Context(), req); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to store request")
		return
	}

	if body.Mode == "async" {
		job := queue.NewJob(queue.JobTypeParseUtterance, req.ID)
		if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to enqueue request")
			return
		}
		respondJSON(w, http.StatusAccepted, req)
		return
	}

	if err := h.processor.ProcessRequest(r.Context(), req.ID); err != nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Processing failed, try again later")
		return
	}

	processed, err := h.repo.GetByID(r.Context(), req.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load processed request")
		return
	}

	status := http.StatusOK
	if processed.Status == models.RequestStatusRejected {
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, processed)
}

// PreviewCommand handles POST /commands/preview
func (h *CommandHandler) PreviewCommand(w http.ResponseWriter, r *http.Request) {
	var body PreviewCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}

	body.Utterance = validation.SanitizeText(body.Utterance)
	if err := validation.Validate.Struct(&body); err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Validation failed")
		return
	}
	if body.Utterance == "" && body.Draft == nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Either utterance or draft is required")
		return
	}
	if err := validation.ValidateTimezone(body.Timezone); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	loc, _ := time.LoadLocation(body.Timezone)

	referenceTime := time.Now()
	if body.ReferenceTime != nil {
		referenceTime = *body.ReferenceTime
	}

	opts := h.engineOpts
	opts.LocalZone = loc
	result, err := engine.New(opts).Normalize(body.Utterance, body.Draft, referenceTime.In(loc))
	if err != nil {
		if _, ok := engine.AsRejection(err); ok {
			respondJSON(w, http.StatusUnprocessableEntity, result)
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Normalization failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetCommand handles GET /commands/{id}
func (h *CommandHandler) GetCommand(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request ID")
		return
	}

	req, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Command request not found")
		return
	}

	respondJSON(w, http.StatusOK, req)
}

// ListCommands handles GET /commands with optional status filter
func (h *CommandHandler) ListCommands(w http.ResponseWriter, r *http.Request) {
	var status *models.RequestStatus
	if s := r.URL.Query().Get("status"); s != "" {
		if err := validation.ValidateRequestStatus(s); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		sEnum := models.RequestStatus(s)
		status = &sEnum
	}

	limit := DefaultListLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			if parsed > MaxListLimit {
				limit = MaxListLimit
			} else {
				limit = parsed
			}
		}
	}

	requests, err := h.repo.ListRecent(r.Context(), status, limit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list requests")
		return
	}
	if requests == nil {
		requests = []*models.CommandRequest{}
	}

	respondJSON(w, http.StatusOK, requests)
}
