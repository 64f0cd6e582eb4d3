package stations

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/Vovarama1992/voicetodo/internal/models"
)

const maxS2ErrPreview = 180

// S2Transcode converts an upload to mono 16 kHz 16-bit PCM WAV with ffmpeg.
type S2Transcode struct {
	ffmpeg string
}

func NewS2Transcode(ffmpegPath string) *S2Transcode {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &S2Transcode{ffmpeg: ffmpegPath}
}

// Run blocks until ffmpeg exits. emit receives start, progress and exactly
// one of end or error.
func (s *S2Transcode) Run(ctx context.Context, in, out string, emit func(models.TranscodeEvent)) error {
	if emit == nil {
		emit = func(models.TranscodeEvent) {}
	}

	start := time.Now()
	log.Printf("[S2][START] in=%s out=%s", in, out)

	cmd := exec.CommandContext(
		ctx,
		s.ffmpeg,
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", in,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", "16000",
		"-progress", "pipe:1",
		"-nostats",
		out,
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return s.fail(emit, fmt.Errorf("stdout pipe: %w", err))
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return s.fail(emit, fmt.Errorf("ffmpeg start: %w", err))
	}
	emit(models.TranscodeEvent{Kind: models.TranscodeStart})

	readProgress(stdout, func(ms int64) {
		emit(models.TranscodeEvent{Kind: models.TranscodeProgress, ProgressMs: ms})
	})

	if err := cmd.Wait(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			log.Printf("[S2][STDERR] %s", trim(msg, maxS2ErrPreview))
			return s.fail(emit, fmt.Errorf("ffmpeg: %w: %s", err, trim(msg, maxS2ErrPreview)))
		}
		return s.fail(emit, fmt.Errorf("ffmpeg: %w", err))
	}

	emit(models.TranscodeEvent{Kind: models.TranscodeEnd})
	log.Printf("[S2][OK] out=%s dur=%s", out, time.Since(start))
	return nil
}

func (s *S2Transcode) fail(emit func(models.TranscodeEvent), err error) error {
	log.Printf("[S2][ERR] %v", err)
	emit(models.TranscodeEvent{Kind: models.TranscodeError, Error: err.Error()})
	return fmt.Errorf("%w: %v", ErrConversionFailed, err)
}

// readProgress parses ffmpeg's -progress key=value stream. ffmpeg writes
// both out_time_us and out_time_ms, both in microseconds.
func readProgress(r io.Reader, onProgress func(ms int64)) {
	last := int64(-1)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		if key != "out_time_us" && key != "out_time_ms" {
			continue
		}
		us, err := strconv.ParseInt(val, 10, 64)
		if err != nil || us < 0 {
			continue
		}
		if ms := us / 1000; ms != last {
			last = ms
			onProgress(ms)
		}
	}
	// drain so ffmpeg never blocks on a full pipe
	_, _ = io.Copy(io.Discard, r)
}
