package handler

import (
	"log/slog"
	"net/http"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/apperror"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/model"
)

// ProductHandler serves the product catalogue.
type ProductHandler struct {
	products ProductService
	logger   *slog.Logger
}

// NewProductHandler creates a ProductHandler.
func NewProductHandler(products ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

type productEnvelope struct {
	Product *model.Product `json:"product"`
}

type productsResponse struct {
	Products []model.Product `json:"products"`
}

// HandleList returns the active products.
//
// HTTP: GET /products?search=frutas&max=3
func (h *ProductHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := parseMax(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	products, err := h.products.List(r.Context(), r.URL.Query().Get("search"), limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	writeJSON(w, http.StatusOK, productsResponse{Products: products})
}

// HandleCreate adds a product.
//
// HTTP: POST /products
// REQUEST BODY: {"product": {"name": "Bolo de Fubá", "category": "tradicional"}}
func (h *ProductHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var env productEnvelope
	if err := decodeJSON(w, r, &env); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if env.Product == nil {
		writeError(w, r, h.logger, apperror.ValidationFailed("product", "Product is required"))
		return
	}

	product, err := h.products.Create(r.Context(), *env.Product)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, productEnvelope{Product: product})
}
