package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/safar/go-storefront/internal/order"
	"github.com/shopspring/decimal"
)

func init() {
	// Money leaves the API as JSON numbers: "total":21.6, not "21.6".
	decimal.MarshalJSONWithoutQuotes = true
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// statusFor maps an order error kind to its HTTP status.
func statusFor(kind order.Kind) int {
	switch kind {
	case order.KindNotFound, order.KindOrderInError:
		return http.StatusNotFound
	case order.KindPermissionDenied:
		return http.StatusUnauthorized
	case order.KindInvalid, order.KindGateway:
		return http.StatusBadRequest
	case order.KindOutOfRange:
		return http.StatusNotAcceptable
	case order.KindInvalidTransition, order.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with the status of its order kind. Internal
// errors are logged and answered with a generic detail.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(order.KindOf(err))
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, status, "Internal server error")
		return
	}

	detail := err.Error()
	var oe *order.Error
	if errors.As(err, &oe) {
		detail = oe.Detail
	}
	writeError(w, status, detail)
}
