package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServer_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "UPLOAD_DIR", "KEEP_TRANSCODED", "MAX_UPLOAD_BYTES", "STT_PROVIDER", "STT_LANGUAGE"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadServer()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, "ko-KR", cfg.STTLanguage)
	assert.Equal(t, ProviderGRPC, cfg.STTProvider)
	assert.False(t, cfg.KeepTranscoded)
	assert.EqualValues(t, 25<<20, cfg.MaxUploadBytes)
}

func TestLoadServer_Overrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("KEEP_TRANSCODED", "true")
	t.Setenv("STT_PROVIDER", "REST")
	t.Setenv("GOOGLE_SPEECH_API_KEY", "k")
	t.Setenv("STT_LANGUAGE", "en-US")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")

	cfg, err := LoadServer()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.True(t, cfg.KeepTranscoded)
	assert.Equal(t, ProviderREST, cfg.STTProvider)
	assert.Equal(t, "en-US", cfg.STTLanguage)
	assert.EqualValues(t, 1024, cfg.MaxUploadBytes)
}

func TestLoadServer_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad bool":         {"KEEP_TRANSCODED": "maybe"},
		"bad provider":     {"STT_PROVIDER": "whisper"},
		"rest without key": {"STT_PROVIDER": "rest", "GOOGLE_SPEECH_API_KEY": ""},
		"negative size":    {"MAX_UPLOAD_BYTES": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("STT_PROVIDER", "")
			t.Setenv("KEEP_TRANSCODED", "")
			t.Setenv("MAX_UPLOAD_BYTES", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadServer()
			assert.Error(t, err)
		})
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("TODO_SERVER_URL", "http://10.0.0.2:3000/")
	t.Setenv("UPLOAD_TIMEOUT", "")
	t.Setenv("RECORD_CONTAINER", ".caf")

	cfg, err := LoadClient()
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.2:3000", cfg.ServerURL)
	assert.Equal(t, 10*time.Second, cfg.UploadTimeout)
	assert.Equal(t, "caf", cfg.Container)

	t.Setenv("RECORD_CONTAINER", "mp3")
	_, err = LoadClient()
	assert.Error(t, err)
}

func TestPlatformContainer(t *testing.T) {
	assert.Equal(t, "caf", PlatformContainer("darwin"))
	assert.Equal(t, "3gp", PlatformContainer("linux"))
	assert.Equal(t, "3gp", PlatformContainer("android"))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("VOICETODO_TEST_KEY=from-dotenv\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("VOICETODO_TEST_KEY") })

	LoadDotEnv(filepath.Join(dir, "missing.env"), path)
	assert.Equal(t, "from-dotenv", os.Getenv("VOICETODO_TEST_KEY"))
}
