package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ganderhq/gander/internal/database"
	"github.com/ganderhq/gander/internal/engine"
	"github.com/ganderhq/gander/internal/models"
	"github.com/ganderhq/gander/internal/queue"
	"github.com/ganderhq/gander/internal/services/ai"
	"github.com/ganderhq/gander/internal/services/zoom"
)

// MeetingCreator provisions a conferencing meeting for a finalized
// event command
type MeetingCreator interface {
	CreateMeeting(ctx context.Context, cmd *models.StructuredCommand) (*zoom.Meeting, error)
}

// Processor turns a pending command request into a finalized command:
// it drafts the utterance with the LLM provider, runs the normalization
// engine, provisions a meeting when asked for, and persists the outcome.
// The same processor backs both the async worker and the sync API path.
type Processor struct {
	provider   ai.DraftProvider // nil disables drafting
	repo       database.CommandRequestRepositoryInterface
	meetings   MeetingCreator // nil disables meeting creation
	jobQueue   queue.JobQueue // For re-enqueueing jobs with delays
	engineOpts engine.Options
}

// NewProcessor creates a new request processor
func NewProcessor(
	provider ai.DraftProvider,
	repo database.CommandRequestRepositoryInterface,
	meetings MeetingCreator,
	jobQueue queue.JobQueue,
	engineOpts engine.Options,
) *Processor {
	return &Processor{
		provider:   provider,
		repo:       repo,
		meetings:   meetings,
		jobQueue:   jobQueue,
		engineOpts: engineOpts,
	}
}

// ProcessRequest runs the full pipeline for one stored request. The
// returned error is retryable; permanent outcomes (finalized, rejected,
// failed) are persisted and return nil.
func (p *Processor) ProcessRequest(ctx context.Context, requestID uuid.UUID) error {
	req, err := p.repo.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to get command request: %w", err)
	}

	// Already settled requests are not reprocessed
	if req.Status == models.RequestStatusFinalized || req.Status == models.RequestStatusRejected {
		log.Printf("Request %s already %s, skipping", req.ID, req.Status)
		return nil
	}

	if req.Status == models.RequestStatusPending {
		req.Status = models.RequestStatusProcessing
		if err := p.repo.Update(ctx, req); err != nil {
			log.Printf("Failed to update request status to processing: %v", err)
			// Continue with processing even if status update fails
		}
	}

	loc, err := time.LoadLocation(req.Timezone)
	if err != nil {
		req.Status = models.RequestStatusFailed
		req.RejectReason = fmt.Sprintf("invalid timezone %q", req.Timezone)
		if uerr := p.repo.Update(ctx, req); uerr != nil {
			log.Printf("Failed to persist failed request %s: %v", req.ID, uerr)
		}
		return nil
	}
	now := req.ReferenceTime.In(loc)

	// Draft the utterance unless a draft was supplied with the request
	if req.Draft == nil && p.provider != nil && req.Utterance != "" {
		draft, derr := p.provider.DraftUtterance(ctx, req.Utterance, now, req.Timezone)
		switch {
		case derr == nil:
			req.Draft = draft
		case ai.IsRateLimitError(derr) || ai.IsQuotaError(derr):
			// Retryable; put the request back and let the caller reschedule
			req.Status = models.RequestStatusPending
			if uerr := p.repo.Update(ctx, req); uerr != nil {
				log.Printf("Failed to reset request %s to pending: %v", req.ID, uerr)
			}
			return fmt.Errorf("failed to draft utterance: %w", derr)
		default:
			// The engine works from the raw text alone
			log.Printf("Draft failed for request %s, continuing without: %v", req.ID, derr)
		}
	}

	opts := p.engineOpts
	opts.LocalZone = loc
	result, nerr := engine.New(opts).Normalize(req.Utterance, req.Draft, now)
	req.Diagnostics = append(req.Diagnostics, result.Diagnostics...)

	if nerr != nil {
		if rej, ok := engine.AsRejection(nerr); ok {
			req.Status = models.RequestStatusRejected
			req.RejectReason = string(rej.Reason)
			if uerr := p.repo.Update(ctx, req); uerr != nil {
				return fmt.Errorf("failed to persist rejected request: %w", uerr)
			}
			log.Printf("Request %s rejected: %s", req.ID, rej.Reason)
			return nil
		}
		req.Status = models.RequestStatusFailed
		if uerr := p.repo.Update(ctx, req); uerr != nil {
			log.Printf("Failed to persist failed request %s: %v", req.ID, uerr)
		}
		return fmt.Errorf("normalization failed: %w", nerr)
	}

	cmd := result.Command
	if cmd.ZoomMeeting && cmd.Kind == models.KindEvent && p.meetings != nil {
		meeting, merr := p.meetings.CreateMeeting(ctx, cmd)
		if merr != nil {
			// The command stands on its own without a join link
			log.Printf("Meeting creation failed for request %s: %v", req.ID, merr)
			req.Diagnostics = append(req.Diagnostics, "meeting creation failed; command finalized without a join link")
		} else {
			cmd.MeetingURL = meeting.JoinURL
		}
	}

	req.Command = cmd
	req.Status = models.RequestStatusFinalized
	if err := p.repo.Update(ctx, req); err != nil {
		return fmt.Errorf("failed to persist finalized request: %w", err)
	}

	log.Printf("Finalized request %s: kind=%s date=%s start=%s", req.ID, cmd.Kind, cmd.Date, cmd.Start)
	return nil
}

// ProcessJob processes a job based on its type
func (p *Processor) ProcessJob(ctx context.Context, msg *queue.Message) error {
	job := msg.Job

	// Check if job should be processed now (respect NotBefore)
	if !job.ShouldProcess() {
		log.Printf("Job %s not ready yet (NotBefore: %v), skipping", job.ID, job.NotBefore)
		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job for later processing: %v", ackErr)
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeParseUtterance:
		if err := p.ProcessRequest(ctx, job.RequestID); err != nil {
			return p.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			log.Printf("Failed to nack unknown job type: %v", nackErr)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError handles errors from job processing with retry logic
func (p *Processor) handleJobError(ctx context.Context, msg *queue.Message, job *queue.Job, err error) error {
	// Quota and rate limit errors are re-enqueued with a delay so the
	// worker does not hammer the provider
	if ai.IsQuotaError(err) || ai.IsRateLimitError(err) {
		retryDelay := ai.GetRetryDelay(err, job.RetryCount)

		if job.CanRetry() && p.jobQueue != nil {
			notBefore := time.Now().Add(retryDelay)
			delayedJob := &queue.Job{
				ID:         job.ID,
				Type:       job.Type,
				RequestID:  job.RequestID,
				NotBefore:  &notBefore,
				NotAfter:   job.NotAfter,
				Metadata:   job.Metadata,
				CreatedAt:  job.CreatedAt,
				RetryCount: job.RetryCount + 1,
				MaxRetries: job.MaxRetries,
			}

			if ackErr := msg.Ack(); ackErr != nil {
				log.Printf("Failed to ack job before re-enqueue: %v", ackErr)
			}

			if enqueueErr := p.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
				log.Printf("Failed to re-enqueue job %s with delay: %v", job.ID, enqueueErr)
				return fmt.Errorf("rate limited, failed to re-enqueue: %w", enqueueErr)
			}

			log.Printf("Re-enqueued job %s for retry at %v (delay: %v)", job.ID, notBefore, retryDelay)
			return nil
		}

		// No queue access or retries exhausted; send to DLQ
		if nackErr := msg.Nack(false); nackErr != nil {
			log.Printf("Failed to nack rate limited job: %v", nackErr)
		}
		return fmt.Errorf("rate limited (job %s): %w", job.ID, err)
	}

	// For other errors, use standard retry logic
	if job.CanRetry() {
		job.IncrementRetry()
		log.Printf("Job %s failed (attempt %d/%d): %v, will retry", job.ID, job.RetryCount, job.MaxRetries, err)
		if nackErr := msg.Nack(true); nackErr != nil {
			log.Printf("Failed to nack job: %v", nackErr)
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	// Max retries exceeded, send to DLQ
	log.Printf("Job %s failed after %d retries: %v, sending to DLQ", job.ID, job.MaxRetries, err)
	if nackErr := msg.Nack(false); nackErr != nil {
		log.Printf("Failed to nack job to DLQ: %v", nackErr)
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}
