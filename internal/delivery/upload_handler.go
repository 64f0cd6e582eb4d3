package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/voicetodo/internal/models"
	"github.com/Vovarama1992/voicetodo/internal/ports"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	AudioField     = "audio"
	UploadIDHeader = "X-Upload-ID"
	UploadIDField  = "uploadId"

	LivenessText = "ToDo-List Backend Server is Running!"
	FailureText  = "transcription failed"

	maxMultipartMemory = 32 << 20
)

type UploadHandler struct {
	svc      ports.Transcriber
	repo     ports.UploadRepository
	dir      string
	maxBytes int64
	log      *logger.ZapLogger
}

func NewUploadHandler(
	svc ports.Transcriber,
	repo ports.UploadRepository,
	dir string,
	maxBytes int64,
	log *logger.ZapLogger,
) *UploadHandler {
	return &UploadHandler{
		svc:      svc,
		repo:     repo,
		dir:      dir,
		maxBytes: maxBytes,
		log:      log,
	}
}

// GET /
func (h *UploadHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(LivenessText))
}

// POST /upload-audio
//
// Every failure answers 500 with the same body; the cause is only logged.
// The id the upload was recorded under is echoed in X-Upload-ID.
// The saved source file is removed after the response is written.
func (h *UploadHandler) UploadAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		h.fail(w, "bad multipart body", "", err)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, hdr, err := r.FormFile(AudioField)
	if err != nil {
		h.fail(w, "missing audio field", "", err)
		return
	}
	defer file.Close()

	dst, id, err := h.createTemp(r.Context(), requestedUploadID(r))
	if err != nil {
		h.fail(w, "cannot create temp file", "", err)
		return
	}
	w.Header().Set(UploadIDHeader, id)

	upload := &models.Upload{
		ID:           id,
		OriginalName: hdr.Filename,
		SourcePath:   dst.Name(),
	}
	defer func() { _ = h.svc.Cleanup(upload) }()

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "audio received",
		Fields: map[string]any{
			"uploadID": id,
			"name":     hdr.Filename,
			"size":     hdr.Size,
			"mime":     hdr.Header.Get("Content-Type"),
		},
	})

	_, err = io.Copy(dst, file)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		h.fail(w, "cannot save upload", id, err)
		return
	}

	text, err := h.svc.Transcribe(r.Context(), upload)
	if err != nil {
		// already logged with its stage by the service
		http.Error(w, FailureText, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"transcription": text,
	})
}

// GET /api/uploads/{id}
func (h *UploadHandler) GetUpload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	u, err := h.repo.GetUpload(r.Context(), id)
	if err != nil {
		http.Error(w, "failed get upload: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if u == nil {
		http.Error(w, "upload not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(u)
}

// createTemp opens a fresh file named after the requested id, or after a
// new uuid when none was requested or the id is already in use, either as a
// file or as a recorded upload.
func (h *UploadHandler) createTemp(ctx context.Context, requested string) (*os.File, string, error) {
	id := requested
	if id != "" {
		if u, err := h.repo.GetUpload(ctx, id); err != nil || u != nil {
			id = ""
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	for attempt := 0; attempt < 3; attempt++ {
		f, err := os.OpenFile(filepath.Join(h.dir, id), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return f, id, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
		id = uuid.NewString()
	}
	return nil, "", errors.New("no free upload name")
}

func (h *UploadHandler) fail(w http.ResponseWriter, msg, id string, err error) {
	h.log.Log(logger.LogEntry{
		Level:   "error",
		Message: msg,
		Error:   err,
		Fields:  map[string]any{"uploadID": id},
	})
	http.Error(w, FailureText, http.StatusInternalServerError)
}

// requestedUploadID accepts a client-chosen id only when it is a uuid, so it
// is always safe as a file name.
func requestedUploadID(r *http.Request) string {
	raw := r.Header.Get(UploadIDHeader)
	if raw == "" {
		raw = r.FormValue(UploadIDField)
	}
	if raw == "" {
		return ""
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return ""
	}
	return id.String()
}
