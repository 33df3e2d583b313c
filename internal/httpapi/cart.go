package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
)

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	user, ok := h.cartOwner(w, r)
	if !ok {
		return
	}

	items, err := h.carts.GetCart(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(items))
}

// SyncCart saves the client's cart and answers with the stored result.
// Lines marked synced are not written; an empty item list clears the cart.
func (h *Handler) SyncCart(w http.ResponseWriter, r *http.Request) {
	user, ok := h.cartOwner(w, r)
	if !ok {
		return
	}

	var req syncCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	items := make([]models.CartItem, 0, len(req.Items))
	for _, line := range req.Items {
		if line.ID <= 0 || line.Quantity < 0 {
			writeError(w, http.StatusBadRequest, "cart lines need a product id and a non-negative quantity")
			return
		}
		items = append(items, models.CartItem{
			UserID:    user.ID,
			ProductID: line.ID,
			Quantity:  line.Quantity,
			Synced:    line.Synced,
		})
	}

	err := h.carts.SyncCart(r.Context(), user.ID, items)
	if errors.Is(err, database.ErrProductNotFound) {
		writeError(w, http.StatusBadRequest, "cart contains an unknown product")
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	stored, err := h.carts.GetCart(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(stored))
}

// cartOwner resolves the signed-in user. A token for a user that no longer
// exists is answered with 401.
func (h *Handler) cartOwner(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, err := h.actor(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return nil, false
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Could not validate credentials.")
		return nil, false
	}
	return user, true
}
