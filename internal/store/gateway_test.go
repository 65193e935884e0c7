package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"rbacadmin/internal/query"
)

type widget struct {
	ID    int64 `gorm:"primaryKey"`
	Name  string
	Grade int
}

func newWidgetGateway(t *testing.T) (*Gateway[widget], *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))
	gw, err := NewGateway[widget](db)
	require.NoError(t, err)
	return gw, db
}

func TestGatewayCRUD(t *testing.T) {
	gw, _ := newWidgetGateway(t)
	ctx := context.Background()

	w := &widget{Name: "first", Grade: 1}
	require.NoError(t, gw.Create(ctx, w))
	require.NotZero(t, w.ID)

	got, err := gw.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)

	require.NoError(t, gw.Update(ctx, got, map[string]any{"name": "renamed", "id": int64(999)}))
	got, err = gw.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	require.NoError(t, gw.Remove(ctx, got))
	_, err = gw.Get(ctx, w.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGatewayGetNotFound(t *testing.T) {
	gw, _ := newWidgetGateway(t)
	_, err := gw.Get(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGatewayListPagination(t *testing.T) {
	gw, db := newWidgetGateway(t)
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		require.NoError(t, db.Create(&widget{Name: fmt.Sprintf("w%02d", i), Grade: i % 3}).Error)
	}

	res, err := gw.List(ctx, query.Params{Page: 3, PageSize: 10, Sort: "id"}, nil)
	require.NoError(t, err)
	assert.Len(t, res.Items, 5)
	assert.Equal(t, int64(25), res.Pagination.Total)
	assert.Equal(t, 3, res.Pagination.Pages)
	assert.Equal(t, 3, res.Pagination.Page)
	assert.Equal(t, "w21", res.Items[0].Name)
}

func TestGatewayListFilterSearchAndCount(t *testing.T) {
	gw, db := newWidgetGateway(t)
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		require.NoError(t, db.Create(&widget{Name: fmt.Sprintf("w%02d", i), Grade: i % 2}).Error)
	}

	// Total reflects filter plus search, not the page window.
	params := query.Params{
		Page:     1,
		PageSize: 3,
		Sort:     "-id",
		Filters:  map[string]string{"grade": "1"},
	}
	res, err := gw.List(ctx, params, []string{"name"})
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)
	assert.Equal(t, int64(6), res.Pagination.Total)
	assert.Equal(t, 2, res.Pagination.Pages)
	assert.Equal(t, "w11", res.Items[0].Name)

	params.Search = "w0"
	res, err = gw.List(ctx, params, []string{"name"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Pagination.Total)
}

func TestGatewayListWithBaseQuery(t *testing.T) {
	gw, db := newWidgetGateway(t)
	ctx := context.Background()

	for i := 1; i <= 6; i++ {
		require.NoError(t, db.Create(&widget{Name: fmt.Sprintf("w%d", i), Grade: i % 2}).Error)
	}

	base := db.Model(&widget{}).Where("grade = ?", 0)
	res, err := gw.List(ctx, query.Params{Page: 1, PageSize: 10}, nil, base)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Pagination.Total)
}
