package ports

import (
	"context"

	"github.com/Vovarama1992/voicetodo/internal/models"
)

type STTService interface {
	Recognize(ctx context.Context, wav []byte) ([]models.RecognitionResult, error)
}
