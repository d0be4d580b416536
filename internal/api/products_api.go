package api

import (
	"errors"
	"net/http"
	"strconv"

	"terroir/internal/database"
	"terroir/internal/events"
	"terroir/internal/metrics"
	"terroir/internal/models"
)

// ProductRequest is the body for creating or updating a product.
type ProductRequest struct {
	CategoryID       *int64 `json:"category_id,omitempty"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	AvailabilityType string `json:"availability_type"`
	StartMonth       *int   `json:"availability_start_month,omitempty"`
	EndMonth         *int   `json:"availability_end_month,omitempty"`
}

// handleListProducts returns products matching optional filters.
// GET /api/products?producer=&category=&month=
func (s *HTTPServer) handleListProducts(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("products_list", "2xx")

	q := r.URL.Query()
	var filter database.ProductFilter
	if raw := q.Get("producer"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid producer filter")
			return
		}
		filter.ProducerID = id
	}
	if raw := q.Get("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid category filter")
			return
		}
		filter.CategoryID = id
	}
	if raw := q.Get("month"); raw != "" {
		month, err := strconv.Atoi(raw)
		if err != nil || month < 1 || month > 12 {
			writeError(w, http.StatusBadRequest, "month must be 1-12")
			return
		}
		filter.Month = month
	}

	products, err := s.db.ListProducts(r.Context(), filter)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list products")
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"products": products, "count": len(products)})
}

// handleGetProduct returns one product with photos.
// GET /api/products/{id}
func (s *HTTPServer) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("products_get", "2xx")

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := s.db.GetProduct(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Int64("product_id", id).Msg("failed to get product")
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// handleCreateProduct adds a product under the caller's profile.
// POST /api/producers/{id}/products
func (s *HTTPServer) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("products_create", "2xx")

	producer, ok := s.ownedProducer(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	product := productFromRequest(&req)
	product.ProducerID = producer.ID
	if err := product.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.db.CreateProduct(r.Context(), product); err != nil {
		s.log.Error().Err(err).Int64("producer_id", producer.ID).Msg("failed to create product")
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	s.publish(events.TypeProductChanged, producer.ID)
	writeJSON(w, http.StatusCreated, product)
}

// handleUpdateProduct replaces a product owned by the caller.
// PATCH /api/products/{id}
func (s *HTTPServer) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("products_update", "2xx")

	product, ok := s.ownedProduct(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	updated := productFromRequest(&req)
	updated.ID = product.ID
	updated.ProducerID = product.ProducerID
	if err := updated.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.db.UpdateProduct(r.Context(), updated); err != nil {
		s.log.Error().Err(err).Int64("product_id", product.ID).Msg("failed to update product")
		writeError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	s.publish(events.TypeProductChanged, product.ProducerID)
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteProduct removes a product owned by the caller.
// DELETE /api/products/{id}
func (s *HTTPServer) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("products_delete", "2xx")

	product, ok := s.ownedProduct(w, r)
	if !ok {
		return
	}

	if err := s.db.DeleteProduct(r.Context(), product.ID); err != nil {
		s.log.Error().Err(err).Int64("product_id", product.ID).Msg("failed to delete product")
		writeError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	s.publish(events.TypeProductChanged, product.ProducerID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleListProductCategories returns the seeded product groupings.
// GET /api/product-categories
func (s *HTTPServer) handleListProductCategories(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("product_categories_list", "2xx")

	categories, err := s.db.ListProductCategories(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list product categories")
		writeError(w, http.StatusInternalServerError, "failed to list product categories")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func productFromRequest(req *ProductRequest) *models.Product {
	availability := req.AvailabilityType
	if availability == "" {
		availability = models.AvailabilityAllYear
	}
	return &models.Product{
		CategoryID:       req.CategoryID,
		Name:             req.Name,
		Description:      req.Description,
		AvailabilityType: availability,
		StartMonth:       req.StartMonth,
		EndMonth:         req.EndMonth,
	}
}

// ownedProduct loads the product and checks the caller owns the parent
// producer profile.
func (s *HTTPServer) ownedProduct(w http.ResponseWriter, r *http.Request) (*models.Product, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return nil, false
	}

	product, err := s.db.GetProduct(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return nil, false
	}
	if err != nil {
		s.log.Error().Err(err).Int64("product_id", id).Msg("failed to get product")
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return nil, false
	}

	producer, err := s.db.GetProducer(r.Context(), product.ProducerID)
	if err != nil {
		s.log.Error().Err(err).Int64("producer_id", product.ProducerID).Msg("failed to get producer")
		writeError(w, http.StatusInternalServerError, "failed to check ownership")
		return nil, false
	}
	if producer.UserID != userID(r) {
		writeError(w, http.StatusForbidden, "not your product")
		return nil, false
	}
	return product, true
}
