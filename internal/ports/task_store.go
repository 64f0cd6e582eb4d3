package ports

import (
	"context"

	"github.com/Vovarama1992/voicetodo/internal/models"
)

// TaskStore persists the whole task collection as one blob.
type TaskStore interface {
	Load(ctx context.Context) (map[string]models.Task, error)
	Save(ctx context.Context, tasks map[string]models.Task) error
}
