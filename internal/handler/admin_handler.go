package handler

import (
	"net/http"
	"strconv"

	"orbitdrive/internal/service"
)

type AdminHandler struct {
	adminService  *service.AdminService
	trashService  *service.TrashService
	retentionDays int
}

func NewAdminHandler(adminService *service.AdminService, trashService *service.TrashService, retentionDays int) *AdminHandler {
	return &AdminHandler{
		adminService:  adminService,
		trashService:  trashService,
		retentionDays: retentionDays,
	}
}

func (h *AdminHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	page, err := h.adminService.GetAllUsers(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.GetAdminStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// RunTrashCleanup запускает чистку вручную; days в query переопределяет срок хранения
func (h *AdminHandler) RunTrashCleanup(w http.ResponseWriter, r *http.Request) {
	days := h.retentionDays
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil {
			http.Error(w, "Invalid days parameter", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	result, err := h.trashService.CleanupOldTrash(r.Context(), days)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
