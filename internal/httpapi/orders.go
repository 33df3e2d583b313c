package httpapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/safar/go-storefront/internal/auth"
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/order"
)

const idempotencyHeader = "Idempotency-Key"

// idempotentCheckout is what a keyed checkout leaves in the cache. The
// request hash ties the key to the body it was first used with.
type idempotentCheckout struct {
	RequestHash string          `json:"request_hash"`
	Checkout    *order.Checkout `json:"checkout"`
}

// CreatePaymentIntent turns a cart into an order and returns the payment
// client secret. A bearer token is optional; when present the order is
// recorded against that user. A repeated Idempotency-Key from the same
// caller with the same body replays the first response instead of creating
// another order. Reusing a key with a different body is rejected.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	owner := "guest"
	var userID *int64
	if p, ok := auth.FromContext(ctx); ok {
		id := p.UserID
		userID = &id
		owner = strconv.FormatInt(id, 10)
	}

	var cacheKey, requestHash string
	if key := r.Header.Get(idempotencyHeader); key != "" && h.idempotency != nil {
		cacheKey = h.idempotency.GenerateKey("create-payment-intent", owner+":"+key)
		requestHash = fingerprint(req)

		entry, err := h.cachedCheckout(ctx, cacheKey)
		if err != nil {
			h.logger.WarnContext(ctx, "idempotency lookup failed", "error", err)
		} else if entry != nil {
			if entry.RequestHash != requestHash {
				writeError(w, http.StatusUnprocessableEntity, "Idempotency-Key was already used with a different request")
				return
			}
			w.Header().Set("Idempotent-Replayed", "true")
			writeJSON(w, http.StatusOK, entry.Checkout)
			return
		}
	}

	checkout, err := h.orders.CreateOrder(ctx, req.toCreateRequest(userID))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if cacheKey != "" {
		body, err := json.Marshal(idempotentCheckout{RequestHash: requestHash, Checkout: checkout})
		if err == nil {
			err = h.idempotency.Set(ctx, cacheKey, body, h.idempotencyTTL)
		}
		if err != nil {
			h.logger.WarnContext(ctx, "idempotency store failed", "order_id", checkout.OrderID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, checkout)
}

func (h *Handler) cachedCheckout(ctx context.Context, key string) (*idempotentCheckout, error) {
	cached, err := h.idempotency.Get(ctx, key)
	if err != nil || cached == "" {
		return nil, err
	}

	var entry idempotentCheckout
	if err := json.Unmarshal([]byte(cached), &entry); err != nil {
		return nil, fmt.Errorf("decode cached checkout: %w", err)
	}
	if entry.Checkout == nil {
		return nil, fmt.Errorf("cached checkout for %s is empty", key)
	}
	return &entry, nil
}

// fingerprint hashes the decoded request, so formatting differences in the
// body do not count as a different request.
func fingerprint(req createOrderRequest) string {
	b, _ := json.Marshal(req)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "order_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	if err := h.orders.PlaceOrder(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Msg: "Order is placed successfully"})
}

func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "order_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	if err := h.orders.ConfirmOrder(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Msg: "Success"})
}

func (h *Handler) MarkError(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "order_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	if err := h.orders.MarkError(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Msg: fmt.Sprintf("Status of order #%d has been updated to error", id)})
}

func (h *Handler) AcceptOrder(w http.ResponseWriter, r *http.Request) {
	h.adminTransition(w, r, h.orders.AcceptOrder)
}

func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	h.adminTransition(w, r, h.orders.CompleteOrder)
}

type adminOp func(ctx context.Context, id int64, actor *models.User) (*models.Order, error)

func (h *Handler) adminTransition(w http.ResponseWriter, r *http.Request, op adminOp) {
	id, ok := pathID(r, "order_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	actor, err := h.actor(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	o, err := op(r.Context(), id, actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "order_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	actor, err := h.actor(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if actor == nil || !actor.IsAdmin {
		writeError(w, http.StatusUnauthorized, "Permission denied.")
		return
	}

	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	o, err := h.orders.CancelOrder(r.Context(), id, actor, req.Reason)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

// GetOrderDetail is open to any caller.
func (h *Handler) GetOrderDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "order_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	o, err := h.orders.GetOrderDetail(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	orders, err := h.orders.ListAllOrders(r.Context(), actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}
