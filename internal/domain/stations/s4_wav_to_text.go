package stations

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Vovarama1992/voicetodo/internal/models"
	"github.com/Vovarama1992/voicetodo/internal/ports"
)

type S4WAVtoText struct {
	stt ports.STTService
}

func NewS4WAVtoText(stt ports.STTService) *S4WAVtoText {
	return &S4WAVtoText{stt: stt}
}

// Run reads the whole wav into memory and makes a single provider call.
func (s *S4WAVtoText) Run(ctx context.Context, wavPath string) ([]models.RecognitionResult, error) {
	wav, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read wav: %v", ErrRecognitionFailed, err)
	}

	start := time.Now()
	log.Printf("[S4][START] wav_bytes=%d", len(wav))

	results, err := s.stt.Recognize(ctx, wav)
	if err != nil {
		log.Printf("[S4][ERR] err=%v", err)
		return nil, fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}

	log.Printf("[S4][OK] results=%d dur=%s", len(results), time.Since(start))
	return results, nil
}
