package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mercato/customer-accounts/internal/domain"
	"github.com/mercato/customer-accounts/internal/http/response"
)

// ForgotPassword issues a fresh single-use reset token and emails the raw
// secret. A second request invalidates the first token.
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Failure(w, http.StatusBadRequest, "invalid JSON format")
		return
	}

	if err := h.resetService.RequestReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "reset email sent", nil)
}

// ResetPassword consumes a reset token and stores the new password
func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	rawToken := chi.URLParam(r, "resetToken")
	if rawToken == "" {
		response.Failure(w, http.StatusBadRequest, "missing reset token")
		return
	}

	var req domain.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Failure(w, http.StatusBadRequest, "invalid JSON format")
		return
	}

	if err := h.resetService.CompleteReset(r.Context(), rawToken, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "password reset successful, please login", nil)
}
