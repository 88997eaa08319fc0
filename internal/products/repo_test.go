package product

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bagaspradana/tokoadmin-backend/pkg/db/models"
	dbtypes "github.com/bagaspradana/tokoadmin-backend/pkg/db/types"
	"github.com/bagaspradana/tokoadmin-backend/pkg/enums"
	"github.com/bagaspradana/tokoadmin-backend/pkg/livequery"
)

func setupProductTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  brand_id TEXT,
  category_id TEXT,
  status TEXT NOT NULL DEFAULT 'active',
  retail_price NUMERIC NOT NULL DEFAULT 0,
  reseller_price NUMERIC NOT NULL DEFAULT 0,
  wholesale_price NUMERIC NOT NULL DEFAULT 0,
  discount_price NUMERIC NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0,
  images TEXT NOT NULL DEFAULT '{}',
  video_url TEXT NOT NULL DEFAULT '',
  variants TEXT NOT NULL DEFAULT '[]',
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS brands (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  is_active BOOLEAN NOT NULL DEFAULT true
);
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  is_active BOOLEAN NOT NULL DEFAULT true
);`
	require.NoError(t, db.Exec(schema).Error)
	for _, table := range []string{"products", "brands", "categories"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}
	return db
}

func seedRef(t *testing.T, db *gorm.DB, table, name string, active bool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec(
		fmt.Sprintf("INSERT INTO %s (id, name, is_active) VALUES (?, ?, ?)", table),
		id.String(), name, active,
	).Error)
	return id
}

func TestProductRepositoryCRUD(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	brandID := seedRef(t, db, "brands", "Indofood", true)

	created, err := repo.Create(ctx, &models.Product{
		Name:        "Indomie Goreng",
		BrandID:     &brandID,
		Status:      enums.ProductStatusActive,
		RetailPrice: decimal.NewFromInt(3500),
		Stock:       100,
		Images:      []string{"https://storage.googleapis.com/toko-media/products/1_a.png"},
		Variants: dbtypes.VariantGroups{
			{Type: "Rasa", Values: []dbtypes.VariantValue{
				{Value: "Original", SKU: "IDM-ORI", Stock: 60},
				{Value: "Pedas", SKU: "IDM-PDS", Stock: 40},
			}},
		},
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	loaded, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Indomie Goreng", loaded.Name)
	require.Len(t, loaded.Variants, 1)
	assert.Equal(t, "Rasa", loaded.Variants[0].Type)
	assert.Equal(t, 100, loaded.Variants[0].Values[0].Stock+loaded.Variants[0].Values[1].Stock)

	loaded.Stock = 80
	updated, err := repo.Update(ctx, loaded)
	require.NoError(t, err)
	assert.Equal(t, 80, updated.Stock)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Delete(ctx, created.ID))
	err = repo.Delete(ctx, created.ID)
	assert.True(t, IsNotFound(err))
}

func TestProductRepositoryDetailLoadsRefNames(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	brandID := seedRef(t, db, "brands", "Wings", true)
	categoryID := seedRef(t, db, "categories", "Minuman", true)

	created, err := repo.Create(ctx, &models.Product{
		Name:       "Teh Rio",
		BrandID:    &brandID,
		CategoryID: &categoryID,
		Status:     enums.ProductStatusActive,
	})
	require.NoError(t, err)

	_, refs, err := repo.GetDetail(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, refs.BrandName)
	require.NotNil(t, refs.CategoryName)
	assert.Equal(t, "Wings", *refs.BrandName)
	assert.Equal(t, "Minuman", *refs.CategoryName)

	orphan, err := repo.Create(ctx, &models.Product{Name: "Tanpa Merek", Status: enums.ProductStatusActive})
	require.NoError(t, err)
	_, refs, err = repo.GetDetail(ctx, orphan.ID)
	require.NoError(t, err)
	assert.Nil(t, refs.BrandName)
	assert.Nil(t, refs.CategoryName)
}

func TestProductRepositoryActiveRefExists(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	activeID := seedRef(t, db, "brands", "Aktif", true)
	inactiveID := seedRef(t, db, "brands", "Nonaktif", false)

	ok, err := repo.ActiveRefExists(ctx, "brands", activeID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ActiveRefExists(ctx, "brands", inactiveID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.ActiveRefExists(ctx, "brands", uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductRepositorySourcePagesByName(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := repo.Create(ctx, &models.Product{
			Name:   fmt.Sprintf("produk-%d", i),
			Status: enums.ProductStatusActive,
		})
		require.NoError(t, err)
	}

	source, err := repo.Source()
	require.NoError(t, err)

	first, err := source.FetchPage(ctx, livequery.Query{Limit: 5})
	require.NoError(t, err)
	assert.Len(t, first.Items, 5)
	assert.True(t, first.HasMore)
	assert.Equal(t, "produk-0", first.Items[0].Name)

	second, err := source.FetchPage(ctx, livequery.Query{Limit: 5, StartAfter: first.Last})
	require.NoError(t, err)
	assert.Len(t, second.Items, 2)
	assert.False(t, second.HasMore)
}
