package infra

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Vovarama1992/voicetodo/internal/models"
	"github.com/Vovarama1992/voicetodo/internal/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uploadLogSchema = `
	CREATE TABLE IF NOT EXISTS upload_log (
		id            TEXT PRIMARY KEY,
		original_name TEXT NOT NULL,
		ext           TEXT NOT NULL DEFAULT '',
		source_bytes  BIGINT NOT NULL DEFAULT 0,
		wav_bytes     BIGINT NOT NULL DEFAULT 0,
		status        TEXT NOT NULL,
		stage         TEXT,
		result_count  INT NOT NULL DEFAULT 0,
		duration_ms   BIGINT NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

type PostgresUploadRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUploadRepo(pool *pgxpool.Pool) *PostgresUploadRepo {
	return &PostgresUploadRepo{pool: pool}
}

func (r *PostgresUploadRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, uploadLogSchema); err != nil {
		return fmt.Errorf("create upload_log: %w", err)
	}
	return nil
}

func (r *PostgresUploadRepo) InsertUpload(ctx context.Context, u *models.Upload) error {
	query := `
		INSERT INTO upload_log
			(id, original_name, ext, source_bytes, wav_bytes, status, stage, result_count, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	row := r.pool.QueryRow(ctx, query,
		u.ID, u.OriginalName, u.Ext, u.SourceBytes, u.WavBytes,
		u.Status, u.Stage, u.ResultCount, u.DurationMs,
	)
	if err := row.Scan(&u.CreatedAt); err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

// GetUpload returns nil, nil when no row matches.
func (r *PostgresUploadRepo) GetUpload(ctx context.Context, id string) (*models.Upload, error) {
	query := `
		SELECT id, original_name, ext, source_bytes, wav_bytes, status, stage,
		       result_count, duration_ms, created_at
		FROM upload_log
		WHERE id = $1
	`

	var u models.Upload
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.OriginalName,
		&u.Ext,
		&u.SourceBytes,
		&u.WavBytes,
		&u.Status,
		&u.Stage,
		&u.ResultCount,
		&u.DurationMs,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get upload: %w", err)
	}
	return &u, nil
}

// DefaultMemoryUploads is how many records MemoryUploadRepo holds before it
// starts evicting the oldest.
const DefaultMemoryUploads = 10000

// MemoryUploadRepo keeps the most recent upload records in process when no
// database is configured. Records are lost on restart.
type MemoryUploadRepo struct {
	mu      sync.RWMutex
	limit   int
	order   []string
	uploads map[string]models.Upload
}

// NewMemoryUploadRepo keeps at most limit records; limit <= 0 means
// DefaultMemoryUploads.
func NewMemoryUploadRepo(limit int) *MemoryUploadRepo {
	if limit <= 0 {
		limit = DefaultMemoryUploads
	}
	return &MemoryUploadRepo{
		limit:   limit,
		uploads: make(map[string]models.Upload),
	}
}

func (r *MemoryUploadRepo) InsertUpload(_ context.Context, u *models.Upload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.uploads[u.ID]; ok {
		return fmt.Errorf("insert upload: duplicate id %s", u.ID)
	}

	for len(r.order) >= r.limit {
		delete(r.uploads, r.order[0])
		r.order = r.order[1:]
	}

	u.CreatedAt = time.Now().UTC()
	r.uploads[u.ID] = *u
	r.order = append(r.order, u.ID)
	return nil
}

// Len reports how many records are held.
func (r *MemoryUploadRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.uploads)
}

func (r *MemoryUploadRepo) GetUpload(_ context.Context, id string) (*models.Upload, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.uploads[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

var (
	_ ports.UploadRepository = (*PostgresUploadRepo)(nil)
	_ ports.UploadRepository = (*MemoryUploadRepo)(nil)
)
