package stations

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
)

// SupportedFormats is the allow-list of upload containers.
var SupportedFormats = []string{".3gp", ".caf"}

type S1ValidateFormat struct {
	allowed map[string]struct{}
}

func NewS1ValidateFormat() *S1ValidateFormat {
	allowed := make(map[string]struct{}, len(SupportedFormats))
	for _, ext := range SupportedFormats {
		allowed[ext] = struct{}{}
	}
	return &S1ValidateFormat{allowed: allowed}
}

// Run returns the lower-cased extension of originalName when it is allowed.
func (s *S1ValidateFormat) Run(originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))

	if _, ok := s.allowed[ext]; !ok {
		log.Printf("[S1][REJECT] name=%q ext=%q", trim(originalName, 120), ext)
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	log.Printf("[S1][OK] ext=%s", ext)
	return ext, nil
}
