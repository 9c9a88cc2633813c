package handler

import (
	"encoding/json"
	"net/http"

	"orbitdrive/internal/auth"
	"orbitdrive/internal/domain"
	"orbitdrive/internal/service"
)

type QuotaHandler struct {
	userService *service.UserService
}

type updatePlanRequest struct {
	Plan domain.Plan `json:"plan"`
}

func NewQuotaHandler(userService *service.UserService) *QuotaHandler {
	return &QuotaHandler{userService: userService}
}

func (h *QuotaHandler) GetStorageInfo(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	info, err := h.userService.GetStorageInfo(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// UpdatePlan меняет тариф; лимит применяется сразу, уже занятое место не трогаем
func (h *QuotaHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req updatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userService.UpdateUserPlan(r.Context(), userID, req.Plan)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
