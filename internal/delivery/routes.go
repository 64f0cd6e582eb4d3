package delivery

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, hUpload *UploadHandler) {

	// liveness
	r.Get("/", hUpload.Root)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// speech to text
	r.Post("/upload-audio", hUpload.UploadAudio)

	// upload history
	r.Get("/api/uploads/{id}", hUpload.GetUpload)
}
