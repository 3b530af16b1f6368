package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus represents where a command request is in its lifecycle
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusProcessing RequestStatus = "processing"
	RequestStatusFinalized  RequestStatus = "finalized"
	RequestStatusRejected   RequestStatus = "rejected"
	RequestStatusFailed     RequestStatus = "failed"
)

// CommandRequest is one submitted utterance and everything derived from
// it: the optional LLM draft, the finalized structured command (or the
// typed rejection reason), and the diagnostics the engine surfaced.
type CommandRequest struct {
	ID        uuid.UUID     `json:"id"`
	Utterance string        `json:"utterance"`
	Timezone  string        `json:"timezone"`
	// ReferenceTime is the "now" anchor supplied when the request was
	// submitted; re-processing with the same anchor is deterministic.
	ReferenceTime time.Time     `json:"reference_time"`
	Status        RequestStatus `json:"status"`

	Draft        *DraftCommand      `json:"draft,omitempty"`
	Command      *StructuredCommand `json:"command,omitempty"`
	Diagnostics  []string           `json:"diagnostics,omitempty"`
	RejectReason string             `json:"reject_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCommandRequest creates a pending request for an utterance
func NewCommandRequest(utterance, timezone string, referenceTime time.Time) *CommandRequest {
	return &CommandRequest{
		ID:            uuid.New(),
		Utterance:     utterance,
		Timezone:      timezone,
		ReferenceTime: referenceTime,
		Status:        RequestStatusPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}
