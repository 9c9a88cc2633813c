package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"orbitdrive/internal/auth"
	"orbitdrive/internal/preview"
)

type PreviewHandler struct {
	previewService *preview.Service
}

func NewPreviewHandler(previewService *preview.Service) *PreviewHandler {
	return &PreviewHandler{previewService: previewService}
}

// GetPreview отдаёт уменьшенный JPEG для файлов-изображений
func (h *PreviewHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	fileID, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		http.Error(w, "Invalid file UUID", http.StatusBadRequest)
		return
	}

	data, err := h.previewService.GetPreview(r.Context(), userID, fileID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
