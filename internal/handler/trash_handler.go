package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"orbitdrive/internal/auth"
	"orbitdrive/internal/service"
)

type TrashHandler struct {
	trashService *service.TrashService
}

// запросы к корзине адресуют элемент парой uuid+тип
type trashItemRequest struct {
	UUID uuid.UUID `json:"uuid"`
	Type string    `json:"type"` // "file" | "folder"
}

func NewTrashHandler(trashService *service.TrashService) *TrashHandler {
	return &TrashHandler{trashService: trashService}
}

func (h *TrashHandler) GetTrash(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	content, err := h.trashService.GetTrash(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, content)
}

func (h *TrashHandler) RestoreItem(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req trashItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	switch req.Type {
	case "file":
		err = h.trashService.RestoreFile(r.Context(), userID, req.UUID)
	case "folder":
		err = h.trashService.RestoreFolder(r.Context(), userID, req.UUID)
	default:
		http.Error(w, "Unknown item type", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TrashHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req trashItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	switch req.Type {
	case "file":
		err = h.trashService.PermanentDeleteFile(r.Context(), userID, req.UUID)
	case "folder":
		err = h.trashService.PermanentDeleteFolder(r.Context(), userID, req.UUID)
	default:
		http.Error(w, "Unknown item type", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
