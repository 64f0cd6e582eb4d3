package ports

import (
	"context"

	"github.com/Vovarama1992/voicetodo/internal/models"
)

type UploadRepository interface {
	InsertUpload(ctx context.Context, u *models.Upload) error
	GetUpload(ctx context.Context, id string) (*models.Upload, error)
}
