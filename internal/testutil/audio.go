// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

// WriteWAV writes a PCM wav with n samples of a simple ramp.
func WriteWAV(t *testing.T, path string, sampleRate, channels, n int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	data := make([]int, n*channels)
	for i := range data {
		data[i] = (i % 200) - 100
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
}

// FakeFFmpeg writes an executable shell script standing in for ffmpeg. The
// body sees the output path (last argument) as $out.
func FakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake ffmpeg needs a posix shell")
	}

	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := fmt.Sprintf("#!/bin/sh\nfor a; do out=\"$a\"; done\n%s\n", body)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// ConvertingFFmpeg is a fake ffmpeg that reports progress and copies the
// wav at fixture to the output path.
func ConvertingFFmpeg(t *testing.T, fixture string) string {
	t.Helper()
	return FakeFFmpeg(t, fmt.Sprintf(`echo "out_time_us=500000"
echo "out_time_ms=500000"
echo "progress=continue"
echo "out_time_us=1000000"
echo "progress=end"
cp %q "$out"`, fixture))
}

// CrashingFFmpeg exits non-zero without writing output.
func CrashingFFmpeg(t *testing.T) string {
	t.Helper()
	return FakeFFmpeg(t, `echo "Invalid data found when processing input" >&2
exit 1`)
}

// EmptyFFmpeg exits cleanly but leaves a zero-byte output.
func EmptyFFmpeg(t *testing.T) string {
	t.Helper()
	return FakeFFmpeg(t, `: > "$out"`)
}
