package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	gocache "github.com/patrickmn/go-cache"

	"github.com/simp-lee/shopsync/internal/domain"
	"github.com/simp-lee/shopsync/internal/pkg"
)

// validate checks payloads against the same "binding" tags the server
// enforces, so obviously invalid writes fail fast without a round trip.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

// Resource is the typed client for one resource type (products, orders,
// categories, users, campaigns). It implements domain.ResourceClient[T].
type Resource[T domain.Entity] struct {
	c    *Client
	path string

	// detail caches GetByID responses for a short TTL; writes invalidate.
	detail *gocache.Cache
}

// ResourceOption configures a Resource.
type ResourceOption func(*resourceOptions)

type resourceOptions struct {
	detailTTL time.Duration
}

// WithDetailCacheTTL sets how long GetByID responses are served from cache.
// Zero disables the cache.
func WithDetailCacheTTL(ttl time.Duration) ResourceOption {
	return func(o *resourceOptions) { o.detailTTL = ttl }
}

// NewResource creates the typed client for one resource path, e.g. "products".
func NewResource[T domain.Entity](c *Client, path string, opts ...ResourceOption) *Resource[T] {
	o := resourceOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Resource[T]{c: c, path: path}
	if o.detailTTL > 0 {
		r.detail = gocache.New(o.detailTTL, 2*o.detailTTL)
	}
	return r
}

// List fetches one page. The request's zero-based page is translated to the
// API's one-based page parameter.
func (r *Resource[T]) List(ctx context.Context, req domain.PageRequest) (*domain.PageResult[T], error) {
	raw, err := r.c.get(ctx, r.path, pageQuery(req))
	if err != nil {
		return nil, err
	}
	return decodePage[T](raw, req)
}

// GetByID fetches a single entity, serving repeated reads from the detail
// cache inside the TTL window.
func (r *Resource[T]) GetByID(ctx context.Context, id uint) (*T, error) {
	key := strconv.FormatUint(uint64(id), 10)
	if r.detail != nil {
		if cached, ok := r.detail.Get(key); ok {
			if item, ok := cached.(*T); ok {
				return item, nil
			}
		}
	}

	raw, err := r.c.get(ctx, r.path+"/"+key, nil)
	if err != nil {
		return nil, err
	}
	item, err := decodeEntity[T](raw)
	if err != nil {
		return nil, err
	}

	if r.detail != nil {
		r.detail.Set(key, item, gocache.DefaultExpiration)
	}
	return item, nil
}

// Create validates the payload locally, then POSTs it.
func (r *Resource[T]) Create(ctx context.Context, payload *T) (*T, error) {
	if err := r.validatePayload(ctx, payload); err != nil {
		return nil, err
	}

	raw, err := r.c.post(ctx, r.path, payload)
	if err != nil {
		return nil, err
	}
	return decodeEntity[T](raw)
}

// Update validates the payload locally, then PUTs it. The cached detail for
// the entity is invalidated so the next read sees the new version.
func (r *Resource[T]) Update(ctx context.Context, id uint, payload *T) (*T, error) {
	if err := r.validatePayload(ctx, payload); err != nil {
		return nil, err
	}

	key := strconv.FormatUint(uint64(id), 10)
	raw, err := r.c.put(ctx, r.path+"/"+key, payload)
	if err != nil {
		return nil, err
	}
	item, err := decodeEntity[T](raw)
	if err != nil {
		return nil, err
	}

	if r.detail != nil {
		r.detail.Delete(key)
	}
	return item, nil
}

// Delete removes the entity and drops it from the detail cache.
func (r *Resource[T]) Delete(ctx context.Context, id uint) error {
	key := strconv.FormatUint(uint64(id), 10)
	if _, err := r.c.delete(ctx, r.path+"/"+key); err != nil {
		return err
	}
	if r.detail != nil {
		r.detail.Delete(key)
	}
	return nil
}

// Search fetches one page of free-text matches.
func (r *Resource[T]) Search(ctx context.Context, query string, req domain.PageRequest) (*domain.PageResult[T], error) {
	q := pageQuery(req)
	q.Set("q", query)

	raw, err := r.c.get(ctx, "search/"+r.path, q)
	if err != nil {
		return nil, err
	}
	return decodePage[T](raw, req)
}

// Suggest fetches completion suggestions for a query prefix.
func (r *Resource[T]) Suggest(ctx context.Context, prefix string) ([]string, error) {
	q := url.Values{}
	q.Set("q", prefix)

	raw, err := r.c.get(ctx, "suggest/"+r.path, q)
	if err != nil {
		return nil, err
	}

	var suggestions []string
	if err := unmarshalSuggestions(raw, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

// validatePayload rejects a payload locally with the same field-error shape
// the server would return.
func (r *Resource[T]) validatePayload(ctx context.Context, payload *T) error {
	if payload == nil {
		return domain.NewValidationError("payload is required", nil)
	}
	if err := validate.StructCtx(ctx, payload); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return domain.NewValidationError("invalid payload", nil)
		}
		return domain.NewValidationError("validation error", pkg.FieldErrorMap(ve, payload))
	}
	return nil
}

// pageQuery translates a PageRequest to the API's query parameters.
func pageQuery(req domain.PageRequest) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(req.Page+1))
	if req.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(req.PageSize))
	}
	if req.Sort != "" {
		q.Set("sort", req.Sort)
	}
	for k, v := range req.Filter {
		q.Set(k, v)
	}
	return q
}

func unmarshalSuggestions(raw []byte, out *[]string) error {
	payload := unwrapEnvelope(raw)
	if err := json.Unmarshal(payload, out); err != nil {
		return domain.NewValidationError("malformed suggestion response", nil)
	}
	return nil
}
