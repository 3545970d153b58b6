package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"shelflife-api/internal/repository"
	"shelflife-api/internal/service"
	"shelflife-api/pkg/apierror"
	"shelflife-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// CatalogHandler handles master-product HTTP requests.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

type registerProductRequest struct {
	Barcode   *string `json:"barcode"`
	Name      string  `json:"name"`
	ImagePath string  `json:"image_path"`
	ThumbPath string  `json:"thumb_path"`
}

// Register handles POST /api/v1/products
func (h *CatalogHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	product, err := h.catalogService.RegisterProduct(r.Context(), req.Barcode, req.Name, req.ImagePath, req.ThumbPath)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.Created(w, product)
}

// List handles GET /api/v1/products?q=
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogService.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, products)
}

// FindByBarcode handles GET /api/v1/products/barcode/{barcode}
func (h *CatalogHandler) FindByBarcode(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")
	if barcode == "" {
		response.Error(w, apierror.BadRequest("barcode is required"))
		return
	}

	product, err := h.catalogService.FindByBarcode(r.Context(), barcode)
	if err != nil {
		response.Error(w, err)
		return
	}
	if product == nil {
		response.Error(w, apierror.NotFound("no product with this barcode"))
		return
	}

	response.OK(w, product)
}

type renameRequest struct {
	Name string `json:"name"`
}

// Rename handles PATCH /api/v1/products/{id}/name
func (h *CatalogHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	if err := h.catalogService.Rename(r.Context(), id, req.Name); err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.OK(w, map[string]interface{}{"id": id, "name": req.Name})
}

type replacePhotoRequest struct {
	ImagePath string `json:"image_path"`
	ThumbPath string `json:"thumb_path"`
}

// ReplacePhoto handles PATCH /api/v1/products/{id}/photo
func (h *CatalogHandler) ReplacePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req replacePhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	if err := h.catalogService.ReplacePhoto(r.Context(), id, req.ImagePath, req.ThumbPath); err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.OK(w, map[string]interface{}{"id": id})
}

// Delete handles DELETE /api/v1/products/{id}
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalogService.Delete(r.Context(), id); err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.NoContent(w)
}

// pathID parses an integer URL parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(w, apierror.BadRequest(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

// mapServiceError converts service/repository errors to API errors.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return apierror.BadRequest(err.Error())
	case errors.Is(err, repository.ErrNotFound):
		return apierror.NotFound("")
	default:
		return err
	}
}
