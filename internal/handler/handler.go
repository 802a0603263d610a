// Package handler contains the HTTP request handlers of the API.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the incoming HTTP request (path params, query, JSON body)
//  2. Call the service layer
//  3. Write the HTTP response (status code, JSON envelope)
//
// Handlers hold no business rules. They depend on the small interfaces
// below rather than on the concrete services, so the wiring in
// internal/server decides what sits behind them.
package handler

import (
	"context"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/model"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/service"
)

// EventService is what EventHandler needs from the events service.
type EventService interface {
	List(ctx context.Context, search string, limit int) ([]model.Event, error)
	Get(ctx context.Context, id string) (*model.Event, error)
	Create(ctx context.Context, input model.Event) (*model.Event, error)
	Update(ctx context.Context, id string, input model.Event) (*model.Event, error)
	PatchProducts(ctx context.Context, id string, patch service.ProductsPatch) (*model.Event, error)
	Delete(ctx context.Context, id string) error
	MigrateLegacy(ctx context.Context) (int, error)
}

// ProductService is what ProductHandler needs from the products service.
type ProductService interface {
	List(ctx context.Context, search string, limit int) ([]model.Product, error)
	Create(ctx context.Context, input model.Product) (*model.Product, error)
}

// AuthService is what AuthHandler needs from the auth service.
type AuthService interface {
	Signup(ctx context.Context, email, password string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

var (
	_ EventService   = (*service.EventService)(nil)
	_ ProductService = (*service.ProductService)(nil)
	_ AuthService    = (*service.AuthService)(nil)
)
