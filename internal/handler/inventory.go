package handler

import (
	"encoding/json"
	"net/http"

	"shelflife-api/internal/service"
	"shelflife-api/pkg/apierror"
	"shelflife-api/pkg/response"
)

// InventoryHandler handles expiry-record HTTP requests.
type InventoryHandler struct {
	inventoryService *service.InventoryService
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(inventoryService *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

type registerExpiryRequest struct {
	ProductID  int64  `json:"product_id"`
	ExpiryDate string `json:"expiry_date"`
}

// Register handles POST /api/v1/inventory
//
// Registration follows earliest-wins: the response reports applied=false
// when an earlier date was already stored, which is an outcome for the
// caller to check, not an error.
func (h *InventoryHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerExpiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if req.ProductID <= 0 {
		response.Error(w, apierror.BadRequest("product_id must be a positive integer"))
		return
	}

	applied, err := h.inventoryService.RegisterExpiry(r.Context(), req.ProductID, req.ExpiryDate)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.OK(w, map[string]interface{}{
		"product_id":  req.ProductID,
		"expiry_date": req.ExpiryDate,
		"applied":     applied,
	})
}

type correctExpiryRequest struct {
	ExpiryDate string `json:"expiry_date"`
}

// Correct handles PUT /api/v1/inventory/{id} - the direct-edit escape hatch.
func (h *InventoryHandler) Correct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req correctExpiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	if err := h.inventoryService.CorrectExpiry(r.Context(), id, req.ExpiryDate); err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.OK(w, map[string]interface{}{
		"inventory_id": id,
		"expiry_date":  req.ExpiryDate,
	})
}

// Delete handles DELETE /api/v1/inventory/{id}
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.inventoryService.Delete(r.Context(), id); err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.NoContent(w)
}

// List handles GET /api/v1/inventory?q=
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.inventoryService.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, rows)
}

// FindByProduct handles GET /api/v1/inventory/product/{productID}
func (h *InventoryHandler) FindByProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}

	row, err := h.inventoryService.FindByProduct(r.Context(), productID)
	if err != nil {
		response.Error(w, err)
		return
	}
	if row == nil {
		response.Error(w, apierror.NotFound("no expiry record for this product"))
		return
	}

	response.OK(w, row)
}
