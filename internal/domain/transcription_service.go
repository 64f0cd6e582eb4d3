package domain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/voicetodo/internal/domain/stations"
	"github.com/Vovarama1992/voicetodo/internal/models"
	"github.com/Vovarama1992/voicetodo/internal/ports"
	"go.uber.org/multierr"
)

// Failure stages recorded on an upload.
const (
	StageUnsupportedFormat = "unsupported_format"
	StageConversionFailed  = "conversion_failed"
	StageRecognitionFailed = "recognition_failed"
)

type TranscriptionService struct {
	repo ports.UploadRepository

	s1 *stations.S1ValidateFormat
	s2 *stations.S2Transcode
	s3 *stations.S3VerifyWAV
	s4 *stations.S4WAVtoText
	s5 *stations.S5Join

	keepTranscoded bool
	log            *logger.ZapLogger
	events         chan models.TranscodeEvent
}

func NewTranscriptionService(
	repo ports.UploadRepository,
	s1 *stations.S1ValidateFormat,
	s2 *stations.S2Transcode,
	s3 *stations.S3VerifyWAV,
	s4 *stations.S4WAVtoText,
	keepTranscoded bool,
	log *logger.ZapLogger,
) *TranscriptionService {
	return &TranscriptionService{
		repo:           repo,
		s1:             s1,
		s2:             s2,
		s3:             s3,
		s4:             s4,
		s5:             stations.NewS5Join(),
		keepTranscoded: keepTranscoded,
		log:            log,
		events:         make(chan models.TranscodeEvent, 100),
	}
}

func (s *TranscriptionService) Events() <-chan models.TranscodeEvent { return s.events }

// ========================================================================
// TRANSCRIBE
// ========================================================================

// Transcribe runs validate → transcode → verify → recognize → join for one
// saved upload. Once started it is not cancelled by the caller going away.
func (s *TranscriptionService) Transcribe(ctx context.Context, upload *models.Upload) (string, error) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	text, results, err := s.run(ctx, upload)

	upload.DurationMs = time.Since(start).Milliseconds()
	upload.ResultCount = results
	if err != nil {
		stage := stageOf(err)
		upload.Status = models.UploadFailed
		upload.Stage = &stage
		s.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "transcription failed",
			Error:   err,
			Fields: map[string]any{
				"uploadID": upload.ID,
				"name":     upload.OriginalName,
				"stage":    stage,
				"ms":       upload.DurationMs,
			},
		})
	} else {
		upload.Status = models.UploadOK
		s.log.Log(logger.LogEntry{
			Level:   "info",
			Message: "transcription done",
			Fields: map[string]any{
				"uploadID": upload.ID,
				"results":  results,
				"length":   len(text),
				"ms":       upload.DurationMs,
			},
		})
	}

	if rerr := s.repo.InsertUpload(ctx, upload); rerr != nil {
		s.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "upload record not saved",
			Error:   rerr,
			Fields:  map[string]any{"uploadID": upload.ID},
		})
	}

	if err != nil {
		return "", err
	}
	return text, nil
}

func (s *TranscriptionService) run(ctx context.Context, upload *models.Upload) (string, int, error) {
	ext, err := s.s1.Run(upload.OriginalName)
	if err != nil {
		return "", 0, err
	}
	upload.Ext = ext

	if fi, err := os.Stat(upload.SourcePath); err == nil {
		upload.SourceBytes = fi.Size()
	}

	upload.WavPath = filepath.Join(filepath.Dir(upload.SourcePath), upload.ID+".wav")

	emit := func(ev models.TranscodeEvent) {
		ev.UploadID = upload.ID
		s.publish(ev)
	}
	if err := s.s2.Run(ctx, upload.SourcePath, upload.WavPath, emit); err != nil {
		return "", 0, err
	}

	size, err := s.s3.Run(upload.WavPath)
	if err != nil {
		return "", 0, err
	}
	upload.WavBytes = size

	results, err := s.s4.Run(ctx, upload.WavPath)
	if err != nil {
		return "", 0, err
	}

	return s.s5.Run(results), len(results), nil
}

// publish never blocks the pipeline; events are dropped when nobody drains.
func (s *TranscriptionService) publish(ev models.TranscodeEvent) {
	select {
	case s.events <- ev:
	default:
	}
}

// ========================================================================
// CLEANUP
// ========================================================================

// Cleanup always removes the source upload. The transcoded wav is removed
// unless the service was built to keep it.
func (s *TranscriptionService) Cleanup(upload *models.Upload) error {
	err := removeIfExists(upload.SourcePath)
	if !s.keepTranscoded {
		err = multierr.Append(err, removeIfExists(upload.WavPath))
	}
	if err != nil {
		s.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "upload cleanup failed",
			Error:   err,
			Fields:  map[string]any{"uploadID": upload.ID},
		})
	}
	return err
}

func removeIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func stageOf(err error) string {
	switch {
	case errors.Is(err, stations.ErrUnsupportedFormat):
		return StageUnsupportedFormat
	case errors.Is(err, stations.ErrConversionFailed):
		return StageConversionFailed
	default:
		return StageRecognitionFailed
	}
}
