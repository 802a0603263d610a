package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/apperror"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/model"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/repository"
)

// ProductService handles business logic for the product catalogue.
type ProductService struct {
	products repository.Collection[model.Product]
	validate *validator.Validate
	logger   *slog.Logger
}

// NewProductService creates a ProductService on top of the products
// collection. The collection is expected to be seeded with
// model.DefaultProducts when its file is missing.
func NewProductService(products repository.Collection[model.Product], logger *slog.Logger) *ProductService {
	return &ProductService{
		products: products,
		validate: newValidator(),
		logger:   logger,
	}
}

// List returns the active products whose name or category contain search,
// keeping only the last limit of them.
func (s *ProductService) List(ctx context.Context, search string, limit int) ([]model.Product, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}

	products, err := s.products.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load products", slog.String("error", err.Error()))
		return nil, storageErr(s.products.Name(), err)
	}

	active := make([]model.Product, 0, len(products))
	for _, p := range products {
		if p.Active {
			active = append(active, p)
		}
	}

	active = filterSearch(active, search, (*model.Product).SearchText)
	return lastN(active, limit), nil
}

// Create adds a product to the catalogue.
//
// RULES:
//   - name is required and unique, compared case-insensitively
//   - category defaults to "custom"
//   - the id is the highest numeric id plus one
//   - new products are always active
func (s *ProductService) Create(ctx context.Context, input model.Product) (*model.Product, error) {
	product := model.Product{
		Name:     strings.TrimSpace(input.Name),
		Category: strings.TrimSpace(input.Category),
		Active:   true,
	}
	if err := validateRecord(s.validate, &product); err != nil {
		return nil, err
	}
	if product.Category == "" {
		product.Category = model.DefaultCategory
	}

	err := s.products.Update(ctx, func(products []model.Product) ([]model.Product, error) {
		for _, p := range products {
			if strings.EqualFold(strings.TrimSpace(p.Name), product.Name) {
				return nil, apperror.Conflict("Product", "this name")
			}
		}
		product.ID = nextProductID(products)
		return append(products, product), nil
	})
	if err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			s.logger.Error("failed to create product",
				slog.String("name", product.Name),
				slog.String("error", err.Error()),
			)
		}
		return nil, storageErr(s.products.Name(), err)
	}

	s.logger.Info("product created",
		slog.String("id", product.ID),
		slog.String("name", product.Name),
		slog.String("category", product.Category),
	)
	return &product, nil
}

// nextProductID returns max(numeric ids) + 1. Ids that are not decimal
// integers are ignored.
func nextProductID(products []model.Product) string {
	var highest int64
	for _, p := range products {
		n, err := strconv.ParseInt(p.ID, 10, 64)
		if err != nil {
			continue
		}
		highest = max(highest, n)
	}
	return strconv.FormatInt(highest+1, 10)
}
