package livequery

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type catalogRow struct {
	ID   string
	Name string
}

func setupSourceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS catalog_rows (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL
);`
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec(`DELETE FROM catalog_rows`).Error)
	return db
}

func newCatalogSource(t *testing.T, db *gorm.DB) *GormSource[catalogRow] {
	t.Helper()
	source, err := NewGormSource[catalogRow](db, "catalog_rows", "name", func(r catalogRow) Cursor {
		return Cursor{Value: r.Name, ID: r.ID}
	})
	require.NoError(t, err)
	return source
}

func seedCatalog(t *testing.T, db *gorm.DB, rows []catalogRow) {
	t.Helper()
	for _, row := range rows {
		require.NoError(t, db.Exec(`INSERT INTO catalog_rows (id, name) VALUES (?, ?)`, row.ID, row.Name).Error)
	}
}

func TestGormSourceFirstPageProbe(t *testing.T) {
	db := setupSourceTestDB(t)
	rows := make([]catalogRow, 0, 7)
	for i := 0; i < 7; i++ {
		rows = append(rows, catalogRow{ID: fmt.Sprintf("id-%d", i), Name: fmt.Sprintf("kopi-%d", i)})
	}
	seedCatalog(t, db, rows)
	source := newCatalogSource(t, db)

	page, err := source.FetchPage(context.Background(), Query{Limit: 5})
	require.NoError(t, err)

	assert.Len(t, page.Items, 5)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.Last)
	assert.Equal(t, "kopi-4", page.Last.Value)
}

func TestGormSourcePagesDoNotOverlap(t *testing.T) {
	db := setupSourceTestDB(t)
	rows := make([]catalogRow, 0, 12)
	for i := 0; i < 12; i++ {
		rows = append(rows, catalogRow{ID: fmt.Sprintf("id-%02d", i), Name: fmt.Sprintf("roti-%02d", i)})
	}
	seedCatalog(t, db, rows)
	source := newCatalogSource(t, db)
	ctx := context.Background()

	first, err := source.FetchPage(ctx, Query{Limit: 5})
	require.NoError(t, err)
	second, err := source.FetchPage(ctx, Query{Limit: 5, StartAfter: first.Last})
	require.NoError(t, err)
	third, err := source.FetchPage(ctx, Query{Limit: 5, StartAfter: second.Last})
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, page := range [][]catalogRow{first.Items, second.Items, third.Items} {
		for _, row := range page {
			assert.False(t, seen[row.ID], "row %s appeared twice", row.ID)
			seen[row.ID] = true
		}
	}
	assert.Len(t, seen, 12)
	assert.False(t, third.HasMore)
	assert.Len(t, third.Items, 2)
}

func TestGormSourceDuplicateSearchValues(t *testing.T) {
	db := setupSourceTestDB(t)
	// identical names force the id tiebreak to carry the ordering
	seedCatalog(t, db, []catalogRow{
		{ID: "id-a", Name: "sama"},
		{ID: "id-b", Name: "sama"},
		{ID: "id-c", Name: "sama"},
		{ID: "id-d", Name: "sama"},
	})
	source := newCatalogSource(t, db)
	ctx := context.Background()

	first, err := source.FetchPage(ctx, Query{Limit: 2})
	require.NoError(t, err)
	second, err := source.FetchPage(ctx, Query{Limit: 2, StartAfter: first.Last})
	require.NoError(t, err)

	require.Len(t, first.Items, 2)
	require.Len(t, second.Items, 2)
	assert.Equal(t, "id-a", first.Items[0].ID)
	assert.Equal(t, "id-b", first.Items[1].ID)
	assert.Equal(t, "id-c", second.Items[0].ID)
	assert.Equal(t, "id-d", second.Items[1].ID)
	assert.False(t, second.HasMore)
}

func TestGormSourcePrefixFilter(t *testing.T) {
	db := setupSourceTestDB(t)
	seedCatalog(t, db, []catalogRow{
		{ID: "id-1", Name: "teh-botol"},
		{ID: "id-2", Name: "teh-pucuk"},
		{ID: "id-3", Name: "tehu"}, // shares "teh" prefix
		{ID: "id-4", Name: "kopi-susu"},
		{ID: "id-5", Name: "te"},
	})
	source := newCatalogSource(t, db)

	page, err := source.FetchPage(context.Background(), Query{Term: "teh", Limit: 10})
	require.NoError(t, err)

	require.Len(t, page.Items, 3)
	for _, row := range page.Items {
		assert.Contains(t, []string{"teh-botol", "teh-pucuk", "tehu"}, row.Name)
	}
	assert.False(t, page.HasMore)
}

func TestGormSourceExactLimitHasNoMore(t *testing.T) {
	db := setupSourceTestDB(t)
	seedCatalog(t, db, []catalogRow{
		{ID: "id-1", Name: "a"},
		{ID: "id-2", Name: "b"},
		{ID: "id-3", Name: "c"},
	})
	source := newCatalogSource(t, db)

	page, err := source.FetchPage(context.Background(), Query{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.False(t, page.HasMore)
}

func TestGormSourceRejectsBadConfig(t *testing.T) {
	db := setupSourceTestDB(t)
	_, err := NewGormSource[catalogRow](nil, "catalog_rows", "name", func(r catalogRow) Cursor { return Cursor{} })
	assert.Error(t, err)
	_, err = NewGormSource[catalogRow](db, "", "name", func(r catalogRow) Cursor { return Cursor{} })
	assert.Error(t, err)
	_, err = NewGormSource[catalogRow](db, "catalog_rows", "name", nil)
	assert.Error(t, err)

	source := newCatalogSource(t, db)
	_, err = source.FetchPage(context.Background(), Query{Limit: 0})
	assert.Error(t, err)
}
