package ports

import (
	"context"

	"github.com/Vovarama1992/voicetodo/internal/models"
)

type Transcriber interface {
	Transcribe(ctx context.Context, upload *models.Upload) (string, error)
	Cleanup(upload *models.Upload) error
	Events() <-chan models.TranscodeEvent
}
