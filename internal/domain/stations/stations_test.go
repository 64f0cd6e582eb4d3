package stations

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Vovarama1992/voicetodo/internal/models"
	"github.com/Vovarama1992/voicetodo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS1ValidateFormat(t *testing.T) {
	s := NewS1ValidateFormat()

	for _, name := range []string{"sample.3gp", "audio.caf", "REC.CAF", "a.b.3GP"} {
		ext, err := s.Run(name)
		require.NoError(t, err, name)
		assert.Contains(t, SupportedFormats, ext)
	}

	for _, name := range []string{"sample.mp3", "audio.wav", "noext", "", "caf", "x.3gpp"} {
		_, err := s.Run(name)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, name)
	}
}

func collect() (*[]models.TranscodeEvent, func(models.TranscodeEvent)) {
	var events []models.TranscodeEvent
	return &events, func(ev models.TranscodeEvent) { events = append(events, ev) }
}

func kinds(events []models.TranscodeEvent) []models.TranscodeEventKind {
	out := make([]models.TranscodeEventKind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestS2Transcode_Success(t *testing.T) {
	dir := t.TempDir()
	fixture := filepath.Join(dir, "fixture.wav")
	testutil.WriteWAV(t, fixture, 16000, 1, 1600)

	s := NewS2Transcode(testutil.ConvertingFFmpeg(t, fixture))
	events, emit := collect()

	out := filepath.Join(dir, "out.wav")
	require.NoError(t, s.Run(context.Background(), filepath.Join(dir, "in.3gp"), out, emit))

	assert.FileExists(t, out)
	assert.Equal(t, []models.TranscodeEventKind{
		models.TranscodeStart,
		models.TranscodeProgress,
		models.TranscodeProgress,
		models.TranscodeEnd,
	}, kinds(*events))
	assert.EqualValues(t, 500, (*events)[1].ProgressMs)
	assert.EqualValues(t, 1000, (*events)[2].ProgressMs)
}

func TestS2Transcode_Crash(t *testing.T) {
	dir := t.TempDir()
	s := NewS2Transcode(testutil.CrashingFFmpeg(t))
	events, emit := collect()

	err := s.Run(context.Background(), filepath.Join(dir, "in.caf"), filepath.Join(dir, "out.wav"), emit)
	require.ErrorIs(t, err, ErrConversionFailed)
	assert.Contains(t, err.Error(), "Invalid data")

	got := kinds(*events)
	require.NotEmpty(t, got)
	assert.Equal(t, models.TranscodeError, got[len(got)-1])
	assert.NotContains(t, got, models.TranscodeEnd)
}

func TestS2Transcode_MissingBinary(t *testing.T) {
	dir := t.TempDir()
	s := NewS2Transcode(filepath.Join(dir, "no-such-ffmpeg"))
	events, emit := collect()

	err := s.Run(context.Background(), "in.3gp", filepath.Join(dir, "out.wav"), emit)
	require.ErrorIs(t, err, ErrConversionFailed)
	assert.Equal(t, []models.TranscodeEventKind{models.TranscodeError}, kinds(*events))
}

func TestS3VerifyWAV(t *testing.T) {
	dir := t.TempDir()
	s := NewS3VerifyWAV()

	good := filepath.Join(dir, "good.wav")
	testutil.WriteWAV(t, good, 16000, 1, 1600)
	size, err := s.Run(good)
	require.NoError(t, err)
	assert.Greater(t, size, int64(44))

	_, err = s.Run(filepath.Join(dir, "missing.wav"))
	assert.ErrorIs(t, err, ErrConversionFailed)

	empty := filepath.Join(dir, "empty.wav")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = s.Run(empty)
	assert.ErrorIs(t, err, ErrConversionFailed)
	assert.Contains(t, err.Error(), "empty")

	junk := filepath.Join(dir, "junk.wav")
	require.NoError(t, os.WriteFile(junk, []byte("definitely not a riff file"), 0o644))
	_, err = s.Run(junk)
	assert.ErrorIs(t, err, ErrConversionFailed)

	stereo := filepath.Join(dir, "stereo.wav")
	testutil.WriteWAV(t, stereo, 44100, 2, 441)
	_, err = s.Run(stereo)
	assert.ErrorIs(t, err, ErrConversionFailed)
}

type fakeSTT struct {
	results []models.RecognitionResult
	err     error
	got     []byte
	calls   int
}

func (f *fakeSTT) Recognize(_ context.Context, wav []byte) ([]models.RecognitionResult, error) {
	f.calls++
	f.got = wav
	return f.results, f.err
}

func TestS4WAVtoText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF....WAVE"), 0o644))

	stt := &fakeSTT{results: []models.RecognitionResult{{Alternatives: []models.Alternative{{Transcript: "hi"}}}}}
	res, err := NewS4WAVtoText(stt).Run(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, res, 1)
	assert.Equal(t, []byte("RIFF....WAVE"), stt.got)

	failing := &fakeSTT{err: errors.New("quota exceeded")}
	_, err = NewS4WAVtoText(failing).Run(context.Background(), path)
	assert.ErrorIs(t, err, ErrRecognitionFailed)
	assert.Equal(t, 1, failing.calls, "no retry")

	_, err = NewS4WAVtoText(stt).Run(context.Background(), filepath.Join(dir, "gone.wav"))
	assert.ErrorIs(t, err, ErrRecognitionFailed)
}

func alt(texts ...string) models.RecognitionResult {
	r := models.RecognitionResult{}
	for _, t := range texts {
		r.Alternatives = append(r.Alternatives, models.Alternative{Transcript: t})
	}
	return r
}

func TestS5Join(t *testing.T) {
	s := NewS5Join()

	assert.Equal(t, NoTranscription, s.Run(nil))
	assert.Equal(t, NoTranscription, s.Run([]models.RecognitionResult{}))
	assert.Equal(t, NoTranscription, s.Run([]models.RecognitionResult{alt()}))

	assert.Equal(t, "buy milk", s.Run([]models.RecognitionResult{alt("buy milk", "by milk")}))
	assert.Equal(t, "one\ntwo\nthree", s.Run([]models.RecognitionResult{
		alt("one", "won"),
		alt("two"),
		alt("three", "tree"),
	}))
	assert.Equal(t, "one\nthree", s.Run([]models.RecognitionResult{alt("one"), alt(), alt("three")}))
}
