package models

type TranscodeEventKind string

const (
	TranscodeStart    TranscodeEventKind = "start"
	TranscodeProgress TranscodeEventKind = "progress"
	TranscodeEnd      TranscodeEventKind = "end"
	TranscodeError    TranscodeEventKind = "error"
)

type TranscodeEvent struct {
	UploadID   string             `json:"uploadId"`
	Kind       TranscodeEventKind `json:"kind"`
	ProgressMs int64              `json:"progressMs,omitempty"`
	Error      string             `json:"error,omitempty"`
}
