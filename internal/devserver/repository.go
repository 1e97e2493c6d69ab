package devserver

import (
	"context"
	"errors"
	"strings"

	"github.com/simp-lee/pagination"
	"gorm.io/gorm"

	"github.com/simp-lee/shopsync/internal/domain"
	"github.com/simp-lee/shopsync/internal/pkg"
)

// Repository is a GORM-backed store for one resource type. Sort, filter, and
// search fields are allow-listed per resource so query parameters can never
// reach SQL unchecked.
type Repository[T domain.Entity] struct {
	db           *gorm.DB
	sortFields   []string
	filterFields []string
	searchFields []string
}

// NewRepository creates a repository for T over db.
func NewRepository[T domain.Entity](db *gorm.DB, sortFields, filterFields, searchFields []string) *Repository[T] {
	return &Repository[T]{
		db:           db,
		sortFields:   sortFields,
		filterFields: filterFields,
		searchFields: searchFields,
	}
}

// Create inserts a new entity.
func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return mapError(err)
	}
	return nil
}

// GetByID retrieves an entity by its primary key.
func (r *Repository[T]) GetByID(ctx context.Context, id uint) (*T, error) {
	var entity T
	if err := r.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &entity, nil
}

// List returns a paginated, sorted, and filtered page of entities.
func (r *Repository[T]) List(ctx context.Context, req domain.PageRequest) (*pagination.Pagination[T], error) {
	var model T
	var total int64
	base := r.db.WithContext(ctx).Model(&model).
		Scopes(pkg.Filter(req, r.filterFields))

	if err := base.Count(&total).Error; err != nil {
		return nil, mapError(err)
	}

	var entities []T
	if err := base.Scopes(
		pkg.Paginate(req),
		pkg.Sort(req, r.sortFields),
	).Find(&entities).Error; err != nil {
		return nil, mapError(err)
	}

	return pkg.NewPagination(entities, total, req), nil
}

// Search returns a page of entities whose allow-listed text fields match the
// query, combined with any exact filters from the request.
func (r *Repository[T]) Search(ctx context.Context, query string, req domain.PageRequest) (*pagination.Pagination[T], error) {
	var model T
	var total int64
	base := r.db.WithContext(ctx).Model(&model).
		Scopes(
			pkg.SearchScope(query, r.searchFields),
			pkg.Filter(req, r.filterFields),
		)

	if err := base.Count(&total).Error; err != nil {
		return nil, mapError(err)
	}

	var entities []T
	if err := base.Scopes(
		pkg.Paginate(req),
		pkg.Sort(req, r.sortFields),
	).Find(&entities).Error; err != nil {
		return nil, mapError(err)
	}

	return pkg.NewPagination(entities, total, req), nil
}

// Suggest returns up to limit distinct values of the first search field
// prefixed by query, for typeahead completion.
func (r *Repository[T]) Suggest(ctx context.Context, query string, limit int) ([]string, error) {
	if len(r.searchFields) == 0 || strings.TrimSpace(query) == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	field := r.searchFields[0]
	var model T
	var values []string
	err := r.db.WithContext(ctx).Model(&model).
		Distinct(field).
		Where(field+" LIKE ?", query+"%").
		Order(field).
		Limit(limit).
		Pluck(field, &values).Error
	if err != nil {
		return nil, mapError(err)
	}
	return values, nil
}

// Update saves changes to an existing entity.
func (r *Repository[T]) Update(ctx context.Context, entity *T) error {
	if err := r.db.WithContext(ctx).Save(entity).Error; err != nil {
		return mapError(err)
	}
	return nil
}

// Delete removes an entity by ID.
func (r *Repository[T]) Delete(ctx context.Context, id uint) error {
	var model T
	result := r.db.WithContext(ctx).Delete(&model, id)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// mapError converts GORM errors to domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeValidation, "already exists", err)
	}
	return domain.NewAppError(domain.CodeServer, "database error", err)
}

// isDuplicateKeyError detects unique constraint violations by examining the
// error message. This is needed because not all GORM dialectors translate
// driver-level errors to gorm.ErrDuplicatedKey (e.g. the pure-Go SQLite driver).
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
