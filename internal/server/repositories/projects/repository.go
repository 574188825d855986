package projects

import (
	"context"

	"github.com/dmitrijs2005/ideforge/internal/server/models"
)

// Repository persists projects. Methods suffixed ForUser filter by owner;
// the rest are system-wide and used by provisioning and status sync.
type Repository interface {
	Create(ctx context.Context, userID, name, description string) (*models.Project, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Project, error)
	GetForUser(ctx context.Context, userID, id string) (*models.Project, error)
	UpdateForUser(ctx context.Context, userID, id string, patch models.ProjectPatch) (*models.Project, error)
	DeleteForUser(ctx context.Context, userID, id string) error

	ListActiveWithURL(ctx context.Context) ([]models.ProbeTarget, error)
	MarkActive(ctx context.Context, id, url, instanceID string) error
	SetStatus(ctx context.Context, id string, status models.ProjectStatus) error
	TerminateByInstanceID(ctx context.Context, instanceID string) (int64, error)
}
