package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
)

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	result, err := h.catalog.ListProducts(r.Context(), page, pageSize)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "product_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if errors.Is(err, database.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, "product does not exist")
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// CreateProduct adds a product to the catalog. Admin only.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if actor == nil || !actor.IsAdmin {
		writeError(w, http.StatusUnauthorized, "Permission denied.")
		return
	}

	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Price.IsNegative() || req.Cost.IsNegative() {
		writeError(w, http.StatusBadRequest, "name is required and price and cost cannot be negative")
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), models.Product{
		Name:      req.Name,
		Price:     req.Price.Round(2),
		Inventory: req.Inventory,
		Size:      req.Size,
		Category:  req.Category,
		Image:     req.Image,
		Cost:      req.Cost.Round(2),
	})
	if errors.Is(err, database.ErrProductExists) {
		writeError(w, http.StatusConflict, "product already exists")
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}
