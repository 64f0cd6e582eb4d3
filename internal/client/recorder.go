package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrNotRecording     = errors.New("not recording")
)

const stopGrace = 5 * time.Second

type RecorderOptions struct {
	FFmpegPath  string
	InputFormat string // ffmpeg -f, e.g. alsa, avfoundation
	InputDevice string // ffmpeg -i
	Container   string // 3gp or caf
	Dir         string
	// Permission reports whether the microphone may be opened. Defaults to
	// MicrophonePermission.
	Permission func() bool
}

// Recorder captures the microphone with ffmpeg into one file at a time.
type Recorder struct {
	opts RecorderOptions

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	done    chan error
	path    string
	started time.Time
}

func NewRecorder(opts RecorderOptions) *Recorder {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.Dir == "" {
		opts.Dir = os.TempDir()
	}
	if opts.Permission == nil {
		opts.Permission = MicrophonePermission
	}
	return &Recorder{opts: opts}
}

// Start begins a new capture. A capture still running is stopped and its
// file discarded.
func (r *Recorder) Start(ctx context.Context) error {
	if !r.opts.Permission() {
		return ErrPermissionDenied
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd != nil {
		if prev, err := r.stopLocked(); err == nil {
			_ = os.Remove(prev)
		}
	}

	path := filepath.Join(r.opts.Dir, "rec-"+uuid.NewString()+"."+r.opts.Container)

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-f", r.opts.InputFormat,
		"-i", r.opts.InputDevice,
	}
	args = append(args, codecArgs(r.opts.Container)...)
	args = append(args, path)

	cmd := exec.CommandContext(ctx, r.opts.FFmpegPath, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	r.cmd, r.stdin, r.done, r.path, r.started = cmd, stdin, done, path, time.Now()
	log.Printf("[REC][START] path=%s", path)
	return nil
}

// Recording reports whether a capture is running and for how long.
func (r *Recorder) Recording() (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmd == nil {
		return false, 0
	}
	return true, time.Since(r.started)
}

// Stop finalizes the capture and returns the recorded file.
func (r *Recorder) Stop() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked()
}

func (r *Recorder) stopLocked() (string, error) {
	if r.cmd == nil {
		return "", ErrNotRecording
	}
	cmd, stdin, path, done := r.cmd, r.stdin, r.path, r.done
	r.cmd, r.stdin, r.done, r.path = nil, nil, nil, ""

	// ffmpeg finishes the container cleanly on "q"
	_, _ = io.WriteString(stdin, "q")
	_ = stdin.Close()

	var err error
	select {
	case err = <-done:
	case <-time.After(stopGrace):
		_ = cmd.Process.Kill()
		err = <-done
	}

	fi, statErr := os.Stat(path)
	if statErr != nil || fi.Size() == 0 {
		if err == nil {
			err = errors.New("empty recording")
		}
		return "", fmt.Errorf("stop capture: %w", err)
	}

	log.Printf("[REC][STOP] path=%s bytes=%d", path, fi.Size())
	return path, nil
}

func codecArgs(container string) []string {
	switch container {
	case "caf":
		return []string{"-c:a", "pcm_s16le", "-ar", "44100", "-ac", "2", "-f", "caf"}
	default:
		return []string{"-c:a", "aac", "-ar", "44100", "-ac", "2", "-b:a", "128k", "-f", "3gp"}
	}
}
