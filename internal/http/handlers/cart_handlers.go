package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mercato/customer-accounts/internal/domain"
	"github.com/mercato/customer-accounts/internal/http/response"
)

// AddToCart merges the product into the customer's cart: an existing entry
// has its quantity incremented, otherwise a new entry is appended.
func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Failure(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	var req domain.AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Failure(w, http.StatusBadRequest, "invalid JSON format")
		return
	}

	customer, err := h.cartService.AddItem(r.Context(), customerID, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "cart updated successfully", map[string]interface{}{
		"customer": customer,
	})
}

// RemoveFromCart drops a product from the customer's cart
func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Failure(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		response.Failure(w, http.StatusBadRequest, "invalid product id")
		return
	}

	customer, err := h.cartService.RemoveItem(r.Context(), customerID, productID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "product removed from the cart successfully", map[string]interface{}{
		"customer": customer,
	})
}
