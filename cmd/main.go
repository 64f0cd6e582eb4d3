package main

import (
	"context"
	"net/http"
	"os"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/voicetodo/internal/config"
	"github.com/Vovarama1992/voicetodo/internal/delivery"
	ws "github.com/Vovarama1992/voicetodo/internal/delivery/ws"
	"github.com/Vovarama1992/voicetodo/internal/domain"
	"github.com/Vovarama1992/voicetodo/internal/domain/stations"
	"github.com/Vovarama1992/voicetodo/internal/infra"
	"github.com/Vovarama1992/voicetodo/internal/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func main() {

	// LOGGER
	zcore, _ := zap.NewProduction()
	defer zcore.Sync()
	zl := logger.NewZapLogger(zcore.Sugar())

	// ENV
	config.LoadDotEnv(".env")
	cfg, err := config.LoadServer()
	if err != nil {
		panic("bad config: " + err.Error())
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		panic("cannot create upload dir: " + err.Error())
	}

	ctx := context.Background()

	// UPLOAD LOG
	var repo ports.UploadRepository
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewPgxPool(ctx, cfg.DatabaseURL)
		if err != nil {
			panic(err.Error())
		}
		defer pool.Close()

		pgRepo := infra.NewPostgresUploadRepo(pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			panic(err.Error())
		}
		repo = pgRepo
	} else {
		zl.Log(logger.LogEntry{
			Level:   "warn",
			Message: "DATABASE_URL is not set; recent upload history kept in memory",
		})
		repo = infra.NewMemoryUploadRepo(infra.DefaultMemoryUploads)
	}

	// STT
	var stt ports.STTService
	switch cfg.STTProvider {
	case config.ProviderREST:
		stt = infra.NewGoogleSpeechRESTService(cfg.STTAPIKey, cfg.STTEndpoint, cfg.STTLanguage)
	default:
		g, err := infra.NewGoogleSpeechService(ctx, cfg.STTLanguage, cfg.CredentialsFile)
		if err != nil {
			panic(err.Error())
		}
		defer g.Close()
		stt = g
	}

	// STATIONS
	s1 := stations.NewS1ValidateFormat()
	s2 := stations.NewS2Transcode(cfg.FFmpegPath)
	s3 := stations.NewS3VerifyWAV()
	s4 := stations.NewS4WAVtoText(stt)

	// TRANSCRIPTION SERVICE (оркестратор)
	transcriber := domain.NewTranscriptionService(
		repo,
		s1, s2, s3, s4,
		cfg.KeepTranscoded,
		zl,
	)

	// WS HUB
	hub := ws.NewHub()
	go hub.Run(transcriber.Events())

	// HANDLERS
	hUpload := delivery.NewUploadHandler(transcriber, repo, cfg.UploadDir, cfg.MaxUploadBytes, zl)

	// ROUTER
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", delivery.UploadIDHeader},
		ExposedHeaders: []string{delivery.UploadIDHeader},
	}))

	delivery.RegisterRoutes(r, hUpload)
	r.Get("/ws", ws.WSHandler(hub))

	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "server started",
		Fields: map[string]any{
			"port":           cfg.Port,
			"uploadDir":      cfg.UploadDir,
			"stt":            cfg.STTProvider,
			"language":       cfg.STTLanguage,
			"keepTranscoded": cfg.KeepTranscoded,
		},
	})

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		zl.Log(logger.LogEntry{
			Level:   "error",
			Message: "server crashed",
			Error:   err,
		})
	}
}
