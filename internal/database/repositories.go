package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/ganderhq/gander/internal/models"
)

// CommandRequestRepositoryInterface defines the interface for command request repository operations
// This interface enables better testability by allowing mock implementations
type CommandRequestRepositoryInterface interface {
	Create(ctx context.Context, req *models.CommandRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CommandRequest, error)
	Update(ctx context.Context, req *models.CommandRequest) error
	ListRecent(ctx context.Context, status *models.RequestStatus, limit int) ([]*models.CommandRequest, error)
}

// Ensure concrete types implement the interfaces
var (
	_ CommandRequestRepositoryInterface = (*CommandRequestRepository)(nil)
)
