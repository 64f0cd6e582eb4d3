package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort           = "3000"
	defaultUploadDir      = "uploads"
	defaultLanguage       = "ko-KR"
	defaultMaxUploadBytes = 25 << 20
	defaultServerURL      = "http://localhost:3000"
	defaultUploadTimeout  = 10 * time.Second
)

// STT providers selectable via STT_PROVIDER.
const (
	ProviderGRPC = "grpc"
	ProviderREST = "rest"
)

type Server struct {
	Port           string
	UploadDir      string
	FFmpegPath     string
	KeepTranscoded bool
	MaxUploadBytes int64

	DatabaseURL string

	STTProvider     string
	STTLanguage     string
	STTAPIKey       string
	STTEndpoint     string
	CredentialsFile string
}

type Client struct {
	ServerURL     string
	UploadTimeout time.Duration
	StorePath     string
	RedisAddr     string
	RedisPassword string
	FFmpegPath    string
	InputFormat   string
	InputDevice   string
	Container     string
}

// LoadDotEnv loads .env files when present; missing files are not an error.
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

func LoadServer() (*Server, error) {
	cfg := &Server{
		Port:            envOr("PORT", defaultPort),
		UploadDir:       envOr("UPLOAD_DIR", defaultUploadDir),
		FFmpegPath:      envOr("FFMPEG_PATH", "ffmpeg"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		STTProvider:     strings.ToLower(envOr("STT_PROVIDER", ProviderGRPC)),
		STTLanguage:     envOr("STT_LANGUAGE", defaultLanguage),
		STTAPIKey:       os.Getenv("GOOGLE_SPEECH_API_KEY"),
		STTEndpoint:     os.Getenv("GOOGLE_SPEECH_ENDPOINT"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
	}

	keep, err := envBool("KEEP_TRANSCODED", false)
	if err != nil {
		return nil, err
	}
	cfg.KeepTranscoded = keep

	maxBytes, err := envInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = maxBytes

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Server) validate() error {
	switch c.STTProvider {
	case ProviderGRPC:
	case ProviderREST:
		if c.STTAPIKey == "" {
			return fmt.Errorf("GOOGLE_SPEECH_API_KEY is required for STT_PROVIDER=%s", ProviderREST)
		}
	default:
		return fmt.Errorf("unknown STT_PROVIDER %q", c.STTProvider)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}

func LoadClient() (*Client, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	cfg := &Client{
		ServerURL:     strings.TrimRight(envOr("TODO_SERVER_URL", defaultServerURL), "/"),
		StorePath:     envOr("TODO_STORE_PATH", filepath.Join(home, ".todoctl", "tasks.json")),
		RedisAddr:     os.Getenv("TASKS_REDIS_ADDR"),
		RedisPassword: os.Getenv("TASKS_REDIS_PASSWORD"),
		FFmpegPath:    envOr("FFMPEG_PATH", "ffmpeg"),
		Container:     strings.TrimPrefix(envOr("RECORD_CONTAINER", PlatformContainer(runtime.GOOS)), "."),
	}
	cfg.InputFormat, cfg.InputDevice = platformInput(runtime.GOOS)
	cfg.InputFormat = envOr("RECORD_INPUT_FORMAT", cfg.InputFormat)
	cfg.InputDevice = envOr("RECORD_INPUT_DEVICE", cfg.InputDevice)

	timeout, err := envDuration("UPLOAD_TIMEOUT", defaultUploadTimeout)
	if err != nil {
		return nil, err
	}
	cfg.UploadTimeout = timeout

	if cfg.Container != "3gp" && cfg.Container != "caf" {
		return nil, fmt.Errorf("RECORD_CONTAINER must be 3gp or caf, got %q", cfg.Container)
	}
	return cfg, nil
}

// PlatformContainer is the recording container a platform produces:
// caf on Apple devices, 3gp everywhere else.
func PlatformContainer(goos string) string {
	if goos == "darwin" || goos == "ios" {
		return "caf"
	}
	return "3gp"
}

func platformInput(goos string) (format, device string) {
	switch goos {
	case "darwin", "ios":
		return "avfoundation", ":0"
	case "windows":
		return "dshow", "audio=default"
	default:
		return "alsa", "default"
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envInt64(key string, def int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
