package models

import "time"

// Upload statuses.
const (
	UploadOK     = "ok"
	UploadFailed = "failed"
)

type Upload struct {
	ID           string    `db:"id" json:"id"`
	OriginalName string    `db:"original_name" json:"originalName"`
	Ext          string    `db:"ext" json:"ext"`
	SourcePath   string    `db:"-" json:"-"`
	WavPath      string    `db:"-" json:"-"`
	SourceBytes  int64     `db:"source_bytes" json:"sourceBytes"`
	WavBytes     int64     `db:"wav_bytes" json:"wavBytes"`
	Status       string    `db:"status" json:"status"`
	Stage        *string   `db:"stage" json:"stage,omitempty"` // nullable, failing stage
	ResultCount  int       `db:"result_count" json:"resultCount"`
	DurationMs   int64     `db:"duration_ms" json:"durationMs"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
