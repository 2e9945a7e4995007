package repository

import (
	"context"

	"github.com/ammar0144/recordsapi/pkg/query"
)

// Repository defines the generic repository interface
type Repository[T any] interface {
	// Queries
	FindByID(ctx context.Context, id any) (*T, error)
	List(ctx context.Context, req query.Request) (Page[T], error)

	// Commands; a successful command invalidates cached reads of the resource
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id any) error

	// Resource returns the API resource name served by the repository
	Resource() string
}

// Page is one page of a list request
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// Querier runs built statements. *db.Manager implements it.
type Querier interface {
	Select(ctx context.Context, f query.Fragment, dest any) error
	Count(ctx context.Context, f query.Fragment) (int64, error)
}

// Invalidator evicts cached reads of a resource.
// *cache.ResponseCache implements it.
type Invalidator interface {
	ClearForResource(ctx context.Context, resource string) int
}
