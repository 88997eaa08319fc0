package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bagaspradana/tokoadmin-backend/pkg/db/models"
	"github.com/bagaspradana/tokoadmin-backend/pkg/livequery"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS banners (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  link_url TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL DEFAULT '',
  is_active BOOLEAN NOT NULL DEFAULT true,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec(`DELETE FROM banners`).Error)
	return db
}

func newBannersRepo(t *testing.T, db *gorm.DB) *Repository {
	t.Helper()
	repo, err := NewRepository(db, Banners)
	require.NoError(t, err)
	return repo
}

func TestRepositoryCRUD(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := newBannersRepo(t, db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.CatalogEntry{
		Name:     "Promo Lebaran",
		ImageURL: "https://storage.googleapis.com/toko-media/banners/1_promo.png",
		IsActive: true,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	loaded, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Promo Lebaran", loaded.Name)

	loaded.Name = "Promo Akhir Tahun"
	loaded.ImageURL = "https://storage.googleapis.com/toko-media/banners/2_promo.png"
	loaded.IsActive = false
	updated, err := repo.Update(ctx, loaded)
	require.NoError(t, err)
	assert.Equal(t, "Promo Akhir Tahun", updated.Name)
	assert.Equal(t, "https://storage.googleapis.com/toko-media/banners/2_promo.png", updated.ImageURL)
	assert.False(t, updated.IsActive)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.FindByID(ctx, created.ID)
	assert.True(t, IsNotFound(err))
}

func TestRepositoryDeleteMissingRow(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := newBannersRepo(t, db)

	err := repo.Delete(context.Background(), uuid.New())
	assert.True(t, IsNotFound(err))
}

func TestRepositorySourcePagesByName(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := newBannersRepo(t, db)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := repo.Create(ctx, &models.CatalogEntry{
			Name:     fmt.Sprintf("banner-%d", i),
			ImageURL: fmt.Sprintf("https://storage.googleapis.com/toko-media/banners/%d.png", i),
		})
		require.NoError(t, err)
	}

	source, err := repo.Source()
	require.NoError(t, err)

	first, err := source.FetchPage(ctx, livequery.Query{Limit: 5})
	require.NoError(t, err)
	assert.Len(t, first.Items, 5)
	assert.True(t, first.HasMore)
	assert.Equal(t, "banner-0", first.Items[0].Name)

	second, err := source.FetchPage(ctx, livequery.Query{Limit: 5, StartAfter: first.Last})
	require.NoError(t, err)
	assert.Len(t, second.Items, 2)
	assert.False(t, second.HasMore)
}

func TestRepositoryListActiveSkipsInactive(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := newBannersRepo(t, db)
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.CatalogEntry{Name: "Zebra", IsActive: true})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &models.CatalogEntry{Name: "Anggrek", IsActive: true})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &models.CatalogEntry{Name: "Mati", IsActive: false})
	require.NoError(t, err)

	entries, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Anggrek", entries[0].Name)
	assert.Equal(t, "Zebra", entries[1].Name)
}
