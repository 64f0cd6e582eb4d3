package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
)

const (
	UploadPath     = "/upload-audio"
	DefaultTimeout = 10 * time.Second
)

var mimeTypes = map[string]string{
	"3gp": "audio/3gp",
	"caf": "audio/x-caf",
}

// MimeType maps a recording's extension to the type sent with the upload.
func MimeType(ext string) string {
	if t, ok := mimeTypes[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return t
	}
	return "application/octet-stream"
}

type Uploader struct {
	baseURL string
	client  *http.Client
	log     *logger.ZapLogger
}

func NewUploader(baseURL string, timeout time.Duration, log *logger.ZapLogger) *Uploader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Uploader{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// SendAudio posts the recording at path and returns the transcript. Any
// failure is logged together with the attempted payload and yields "".
// There is no retry.
func (u *Uploader) SendAudio(ctx context.Context, path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	part := map[string]string{
		"uri":  path,
		"name": "audio." + ext,
		"type": MimeType(ext),
	}

	text, err := u.send(ctx, path, part)
	if err != nil {
		payload, _ := json.Marshal(map[string]any{"audio": part})
		u.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "stt request failed",
			Error:   err,
			Fields: map[string]any{
				"uri":     path,
				"payload": string(payload),
			},
		})
		return ""
	}

	u.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "stt response",
		Fields:  map[string]any{"length": len(text)},
	})
	return text
}

func (u *Uploader) send(ctx context.Context, path string, part map[string]string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, "audio", part["name"]))
	h.Set("Content-Type", part["type"])
	pw, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(pw, f); err != nil {
		return "", fmt.Errorf("read recording: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+UploadPath, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out struct {
		Transcription string `json:"transcription"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.Transcription, nil
}
