package domain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/voicetodo/internal/domain/stations"
	"github.com/Vovarama1992/voicetodo/internal/models"
	"github.com/Vovarama1992/voicetodo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSTT struct{ mock.Mock }

func (m *mockSTT) Recognize(ctx context.Context, wav []byte) ([]models.RecognitionResult, error) {
	args := m.Called(ctx, wav)
	res, _ := args.Get(0).([]models.RecognitionResult)
	return res, args.Error(1)
}

type mockRepo struct{ mock.Mock }

func (m *mockRepo) InsertUpload(ctx context.Context, u *models.Upload) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockRepo) GetUpload(ctx context.Context, id string) (*models.Upload, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.Upload)
	return u, args.Error(1)
}

func nopLogger() *logger.ZapLogger {
	return logger.NewZapLogger(zap.NewNop().Sugar())
}

type fixture struct {
	dir  string
	stt  *mockSTT
	repo *mockRepo
	svc  *TranscriptionService
}

func newFixture(t *testing.T, ffmpeg string, keep bool) *fixture {
	t.Helper()
	f := &fixture{dir: t.TempDir(), stt: &mockSTT{}, repo: &mockRepo{}}
	f.svc = NewTranscriptionService(
		f.repo,
		stations.NewS1ValidateFormat(),
		stations.NewS2Transcode(ffmpeg),
		stations.NewS3VerifyWAV(),
		stations.NewS4WAVtoText(f.stt),
		keep,
		nopLogger(),
	)
	return f
}

func (f *fixture) upload(t *testing.T, id, name string) *models.Upload {
	t.Helper()
	src := filepath.Join(f.dir, id+filepath.Ext(name))
	require.NoError(t, os.WriteFile(src, []byte("fake container bytes"), 0o644))
	return &models.Upload{ID: id, OriginalName: name, SourcePath: src}
}

func speechWAV(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "speech.wav")
	testutil.WriteWAV(t, p, 16000, 1, 16000)
	return p
}

func results(texts ...string) []models.RecognitionResult {
	out := make([]models.RecognitionResult, 0, len(texts))
	for _, s := range texts {
		out = append(out, models.RecognitionResult{Alternatives: []models.Alternative{{Transcript: s}, {Transcript: s + "?"}}})
	}
	return out
}

func TestTranscribe_Speech(t *testing.T) {
	f := newFixture(t, testutil.ConvertingFFmpeg(t, speechWAV(t)), false)
	f.stt.On("Recognize", mock.Anything, mock.Anything).Return(results("buy milk", "call mom"), nil).Once()
	f.repo.On("InsertUpload", mock.Anything, mock.MatchedBy(func(u *models.Upload) bool {
		return u.Status == models.UploadOK && u.Stage == nil && u.ResultCount == 2 && u.WavBytes > 0
	})).Return(nil).Once()

	up := f.upload(t, "u1", "sample.3gp")
	text, err := f.svc.Transcribe(context.Background(), up)
	require.NoError(t, err)
	assert.Equal(t, "buy milk\ncall mom", text)
	assert.Equal(t, ".3gp", up.Ext)

	f.stt.AssertExpectations(t)
	f.repo.AssertExpectations(t)
}

func TestTranscribe_Silence(t *testing.T) {
	f := newFixture(t, testutil.ConvertingFFmpeg(t, speechWAV(t)), false)
	f.stt.On("Recognize", mock.Anything, mock.Anything).Return([]models.RecognitionResult{}, nil)
	f.repo.On("InsertUpload", mock.Anything, mock.Anything).Return(nil)

	text, err := f.svc.Transcribe(context.Background(), f.upload(t, "u2", "sample.caf"))
	require.NoError(t, err)
	assert.Equal(t, stations.NoTranscription, text)
}

func TestTranscribe_UnsupportedNeverTranscodes(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "ran")
	ffmpeg := testutil.FakeFFmpeg(t, "touch "+marker)

	f := newFixture(t, ffmpeg, false)
	f.repo.On("InsertUpload", mock.Anything, mock.MatchedBy(func(u *models.Upload) bool {
		return u.Status == models.UploadFailed && *u.Stage == StageUnsupportedFormat
	})).Return(nil).Once()

	_, err := f.svc.Transcribe(context.Background(), f.upload(t, "u3", "sample.mp3"))
	assert.ErrorIs(t, err, stations.ErrUnsupportedFormat)
	assert.NoFileExists(t, marker)
	f.stt.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything)
	f.repo.AssertExpectations(t)
}

func TestTranscribe_ConversionFailures(t *testing.T) {
	cases := map[string]func(*testing.T) string{
		"crash":        testutil.CrashingFFmpeg,
		"empty output": testutil.EmptyFFmpeg,
	}
	for name, ffmpeg := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, ffmpeg(t), false)
			f.repo.On("InsertUpload", mock.Anything, mock.MatchedBy(func(u *models.Upload) bool {
				return *u.Stage == StageConversionFailed
			})).Return(nil).Once()

			up := f.upload(t, "u4", "sample.caf")
			_, err := f.svc.Transcribe(context.Background(), up)
			assert.ErrorIs(t, err, stations.ErrConversionFailed)
			f.stt.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything)

			require.NoError(t, f.svc.Cleanup(up))
			assert.NoFileExists(t, up.SourcePath)
		})
	}
}

func TestTranscribe_ProviderError(t *testing.T) {
	f := newFixture(t, testutil.ConvertingFFmpeg(t, speechWAV(t)), false)
	f.stt.On("Recognize", mock.Anything, mock.Anything).Return(nil, errors.New("PERMISSION_DENIED"))
	f.repo.On("InsertUpload", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Transcribe(context.Background(), f.upload(t, "u5", "sample.3gp"))
	assert.ErrorIs(t, err, stations.ErrRecognitionFailed)
	f.stt.AssertNumberOfCalls(t, "Recognize", 1)
}

func TestTranscribe_RepoErrorDoesNotFailRequest(t *testing.T) {
	f := newFixture(t, testutil.ConvertingFFmpeg(t, speechWAV(t)), false)
	f.stt.On("Recognize", mock.Anything, mock.Anything).Return(results("hello"), nil)
	f.repo.On("InsertUpload", mock.Anything, mock.Anything).Return(errors.New("db down"))

	text, err := f.svc.Transcribe(context.Background(), f.upload(t, "u6", "sample.3gp"))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestTranscribe_IgnoresCallerCancellation(t *testing.T) {
	f := newFixture(t, testutil.ConvertingFFmpeg(t, speechWAV(t)), false)
	f.stt.On("Recognize", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), mock.Anything).Return(results("still here"), nil)
	f.repo.On("InsertUpload", mock.Anything, mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	text, err := f.svc.Transcribe(ctx, f.upload(t, "u7", "sample.caf"))
	require.NoError(t, err)
	assert.Equal(t, "still here", text)
}

func TestTranscribe_EmitsEvents(t *testing.T) {
	f := newFixture(t, testutil.ConvertingFFmpeg(t, speechWAV(t)), false)
	f.stt.On("Recognize", mock.Anything, mock.Anything).Return(results("x"), nil)
	f.repo.On("InsertUpload", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Transcribe(context.Background(), f.upload(t, "u8", "sample.caf"))
	require.NoError(t, err)

	var got []models.TranscodeEventKind
	for len(f.svc.Events()) > 0 {
		ev := <-f.svc.Events()
		assert.Equal(t, "u8", ev.UploadID)
		got = append(got, ev.Kind)
	}
	require.NotEmpty(t, got)
	assert.Equal(t, models.TranscodeStart, got[0])
	assert.Equal(t, models.TranscodeEnd, got[len(got)-1])
}

func TestCleanup_RetentionPolicy(t *testing.T) {
	for _, keep := range []bool{false, true} {
		f := newFixture(t, testutil.ConvertingFFmpeg(t, speechWAV(t)), keep)
		f.stt.On("Recognize", mock.Anything, mock.Anything).Return(results("x"), nil)
		f.repo.On("InsertUpload", mock.Anything, mock.Anything).Return(nil)

		up := f.upload(t, "keep", "sample.3gp")
		_, err := f.svc.Transcribe(context.Background(), up)
		require.NoError(t, err)
		require.FileExists(t, up.WavPath)

		require.NoError(t, f.svc.Cleanup(up))
		assert.NoFileExists(t, up.SourcePath)
		if keep {
			assert.FileExists(t, up.WavPath)
		} else {
			assert.NoFileExists(t, up.WavPath)
		}
	}
}

func TestCleanup_MissingFilesAreFine(t *testing.T) {
	f := newFixture(t, "ffmpeg", false)
	up := &models.Upload{ID: "gone", SourcePath: filepath.Join(f.dir, "gone.3gp"), WavPath: filepath.Join(f.dir, "gone.wav")}
	assert.NoError(t, f.svc.Cleanup(up))
}
