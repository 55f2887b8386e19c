package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mercato/customer-accounts/internal/domain"
	"github.com/mercato/customer-accounts/internal/http/response"
	"github.com/mercato/customer-accounts/pkg/auth"
)

// Register handles customer registration
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Failure(w, http.StatusBadRequest, "invalid JSON format")
		return
	}

	customer, err := h.accountService.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "customer added successfully", map[string]interface{}{
		"customer": customer,
	})
}

// Login verifies credentials, mints the session token, and mirrors it into
// an HTTP-only cookie. The token is intentionally exposed in the body too,
// for clients that do not use cookies.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Failure(w, http.StatusBadRequest, "invalid JSON format")
		return
	}

	result, err := h.accountService.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)

	response.Success(w, http.StatusOK, "successfully logged in", map[string]interface{}{
		"token": result.Token,
		"cart":  result.Cart,
	})
}

// Logout unconditionally clears the session cookie.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	response.Success(w, http.StatusOK, "successfully logged out", nil)
}

// LoginStatus reports whether the presented token is currently valid. It
// fails closed: a missing, malformed, or expired token is a false result,
// not an error.
func (h *Handlers) LoginStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	// Body is optional; fall back to the session cookie.
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Token == "" {
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			req.Token = cookie.Value
		}
	}

	valid := false
	if req.Token != "" {
		if _, err := auth.Parse(req.Token, h.config.Auth.JWTSecret); err == nil {
			valid = true
		}
	}

	response.Success(w, http.StatusOK, "", map[string]interface{}{
		"valid": valid,
	})
}

// ListCustomers returns all non-deleted customers
func (h *Handlers) ListCustomers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	customers, err := h.accountService.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if customers == nil {
		customers = []domain.Customer{}
	}

	response.Success(w, http.StatusOK, "", map[string]interface{}{
		"customers": customers,
	})
}

// GetCustomer returns a specific customer by id
func (h *Handlers) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Failure(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	customer, err := h.accountService.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "", map[string]interface{}{
		"customer": customer,
	})
}

// UpdateCustomer applies the whitelisted profile fields and returns the
// post-update record.
func (h *Handlers) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Failure(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	var req domain.UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Failure(w, http.StatusBadRequest, "invalid JSON format")
		return
	}

	customer, err := h.accountService.Update(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "customer updated successfully", map[string]interface{}{
		"customer": customer,
	})
}

// DeleteCustomer soft-deletes a customer. Repeated calls succeed; the msg
// distinguishes a fresh delete from an id that never existed.
func (h *Handlers) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Failure(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	found, err := h.accountService.SoftDelete(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	msg := "successfully deleted"
	if !found {
		msg = "record not found"
	}
	response.Success(w, http.StatusOK, msg, nil)
}

// ChangePassword verifies the old password before storing the new one
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Failure(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	var req domain.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Failure(w, http.StatusBadRequest, "invalid JSON format")
		return
	}

	if err := h.accountService.ChangePassword(r.Context(), id, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "password changed successfully", nil)
}
