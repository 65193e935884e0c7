// Package store is the uniform data-access layer: one generic gateway per
// entity type, composing the query builder for list endpoints.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"rbacadmin/internal/query"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict is a unique-constraint violation on create or update.
	ErrConflict = errors.New("record already exists")
)

// ListResult pairs a page of items with its pagination envelope.
type ListResult[T any] struct {
	Items      []T              `json:"items"`
	Pagination query.Pagination `json:"pagination"`
}

// Gateway provides create/read/update/delete/list over one entity type.
type Gateway[T any] struct {
	db      *gorm.DB
	builder *query.Builder
}

func NewGateway[T any](db *gorm.DB) (*Gateway[T], error) {
	builder, err := query.NewBuilder(new(T))
	if err != nil {
		return nil, err
	}
	return &Gateway[T]{db: db, builder: builder}, nil
}

// Get fetches one record by id. A base query, when given, pre-scopes the
// lookup (ownership constraints, preloads).
func (g *Gateway[T]) Get(ctx context.Context, id int64, base ...*gorm.DB) (*T, error) {
	tx := g.scope(ctx, base...)
	var obj T
	err := tx.First(&obj, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

// List runs the fixed pipeline: filter, search, count, sort, paginate,
// fetch. The reported total reflects filter and search only.
func (g *Gateway[T]) List(ctx context.Context, params query.Params, searchFields []string, base ...*gorm.DB) (*ListResult[T], error) {
	tx := g.scope(ctx, base...)
	tx = g.builder.ApplyFilters(tx, params.Filters)
	tx = g.builder.ApplySearch(tx, params.Search, searchFields)

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	tx = g.builder.ApplySort(tx.Session(&gorm.Session{}), params.Sort)

	items := make([]T, 0, params.PageSize)
	if err := tx.Offset(params.Offset()).Limit(params.PageSize).Find(&items).Error; err != nil {
		return nil, err
	}
	return &ListResult[T]{
		Items:      items,
		Pagination: query.NewPagination(total, params.Page, params.PageSize),
	}, nil
}

// Create inserts the record.
func (g *Gateway[T]) Create(ctx context.Context, obj *T) error {
	err := g.db.WithContext(ctx).Create(obj).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

// Update applies exactly the given changes to an existing record; fields
// absent from changes are never touched.
func (g *Gateway[T]) Update(ctx context.Context, obj *T, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	delete(changes, "id")
	err := g.db.WithContext(ctx).Model(obj).Updates(changes).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

// Remove deletes an existing record.
func (g *Gateway[T]) Remove(ctx context.Context, obj *T) error {
	return g.db.WithContext(ctx).Delete(obj).Error
}

func (g *Gateway[T]) scope(ctx context.Context, base ...*gorm.DB) *gorm.DB {
	if len(base) > 0 && base[0] != nil {
		return base[0].WithContext(ctx)
	}
	return g.db.WithContext(ctx).Model(new(T))
}
