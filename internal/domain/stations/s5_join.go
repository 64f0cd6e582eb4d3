package stations

import (
	"log"
	"strings"

	"github.com/Vovarama1992/voicetodo/internal/models"
)

// NoTranscription is returned in place of a transcript when the provider
// recognized nothing.
const NoTranscription = "no transcription"

type S5Join struct{}

func NewS5Join() *S5Join { return &S5Join{} }

// Run joins the top alternative of every result, in provider order, one per
// line. Results without alternatives are skipped.
func (s *S5Join) Run(results []models.RecognitionResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		if len(r.Alternatives) == 0 {
			continue
		}
		lines = append(lines, r.Alternatives[0].Transcript)
	}

	if len(lines) == 0 {
		log.Printf("[S5][EMPTY] results=%d", len(results))
		return NoTranscription
	}

	out := strings.Join(lines, "\n")
	log.Printf("[S5][OK] lines=%d text=%q", len(lines), trim(out, 180))
	return out
}
