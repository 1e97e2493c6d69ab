package domain

import "context"

// ResourceClient is the I/O boundary consumed by the sync layer for one
// resource type. Implementations issue HTTP calls against the commerce API
// and reject with a typed *AppError distinguishing network, validation, and
// server failures.
type ResourceClient[T Entity] interface {
	List(ctx context.Context, req PageRequest) (*PageResult[T], error)
	GetByID(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, payload *T) (*T, error)
	Update(ctx context.Context, id uint, payload *T) (*T, error)
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, req PageRequest) (*PageResult[T], error)
}
