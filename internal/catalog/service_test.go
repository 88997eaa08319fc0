package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/bagaspradana/tokoadmin-backend/pkg/errors"
	"github.com/bagaspradana/tokoadmin-backend/pkg/livequery"
	"github.com/bagaspradana/tokoadmin-backend/pkg/logger"
)

type stubUploader struct {
	mu       sync.Mutex
	uploads  []string
	failWith error
}

func (s *stubUploader) UploadObject(ctx context.Context, prefix, filename, contentType string, body io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return "", s.failWith
	}
	url := fmt.Sprintf("https://storage.googleapis.com/toko-media/%s/%d_%s", prefix, len(s.uploads)+1, filename)
	s.uploads = append(s.uploads, url)
	return url, nil
}

type recordingDeletions struct {
	mu   sync.Mutex
	urls []string
}

func (r *recordingDeletions) PublishDeletions(ctx context.Context, urls ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, urls...)
}

type recordingChanges struct {
	mu          sync.Mutex
	collections []string
}

func (r *recordingChanges) PublishChange(ctx context.Context, collection string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collections = append(r.collections, collection)
	return nil
}

type serviceFixture struct {
	svc       Service
	repo      *Repository
	uploader  *stubUploader
	deletions *recordingDeletions
	changes   *recordingChanges
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := setupCatalogTestDB(t)
	repo := newBannersRepo(t, db)
	uploader := &stubUploader{}
	deletions := &recordingDeletions{}
	changes := &recordingChanges{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svc, err := NewService(repo, uploader, deletions, changes, livequery.NewLocalNotifier(), nil, logg)
	require.NoError(t, err)
	return &serviceFixture{svc: svc, repo: repo, uploader: uploader, deletions: deletions, changes: changes}
}

func upload(name string) *ImageUpload {
	return &ImageUpload{Filename: name, ContentType: "image/png", Data: strings.NewReader("png-bytes")}
}

func TestServiceCreateUploadsAndNotifies(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	dto, err := f.svc.Create(ctx, CreateInput{Name: "Promo Ramadan", Image: upload("promo.png")})
	require.NoError(t, err)

	assert.Equal(t, "Promo Ramadan", dto.Name)
	assert.Contains(t, dto.ImageURL, "/banners/")
	assert.Equal(t, []string{"banners"}, f.changes.collections)
	assert.Empty(t, f.deletions.urls)
}

func TestServiceCreateValidation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{Name: "  ", Image: upload("x.png")})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = f.svc.Create(ctx, CreateInput{Name: "Promo"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestServiceCreateUploadFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.uploader.failWith = errors.New("503 backend error")

	_, err := f.svc.Create(context.Background(), CreateInput{Name: "Promo", Image: upload("x.png")})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	assert.Empty(t, f.changes.collections)
}

func TestServiceUpdateReplacingImageQueuesCleanup(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateInput{Name: "Promo", Image: upload("old.png")})
	require.NoError(t, err)
	oldURL := created.ImageURL

	newName := "Promo Baru"
	updated, err := f.svc.Update(ctx, created.ID, UpdateInput{Name: &newName, Image: upload("new.png")})
	require.NoError(t, err)

	assert.Equal(t, "Promo Baru", updated.Name)
	assert.NotEqual(t, oldURL, updated.ImageURL)
	assert.Equal(t, []string{oldURL}, f.deletions.urls)
}

func TestServiceUpdateNameOnlyKeepsImage(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateInput{Name: "Promo", Image: upload("keep.png")})
	require.NoError(t, err)

	newName := "Promo Spesial"
	updated, err := f.svc.Update(ctx, created.ID, UpdateInput{Name: &newName})
	require.NoError(t, err)

	assert.Equal(t, created.ImageURL, updated.ImageURL)
	assert.Empty(t, f.deletions.urls)
}

func TestServiceUpdateMissingEntry(t *testing.T) {
	f := newServiceFixture(t)
	name := "x"

	_, err := f.svc.Update(context.Background(), uuid.New(), UpdateInput{Name: &name})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestServiceDeleteQueuesImage(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateInput{Name: "Promo", Image: upload("bye.png")})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, created.ID))
	assert.Equal(t, []string{created.ImageURL}, f.deletions.urls)

	_, err = f.svc.Get(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestServiceListPagesWithCursor(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := f.svc.Create(ctx, CreateInput{
			Name:  fmt.Sprintf("banner-%d", i),
			Image: upload(fmt.Sprintf("b%d.png", i)),
		})
		require.NoError(t, err)
	}

	first, err := f.svc.List(ctx, ListInput{Limit: 5})
	require.NoError(t, err)
	assert.Len(t, first.Items, 5)
	assert.True(t, first.HasMore)
	require.NotNil(t, first.NextCursor)

	second, err := f.svc.List(ctx, ListInput{Limit: 5, StartAfter: first.NextCursor})
	require.NoError(t, err)
	assert.Len(t, second.Items, 2)
	assert.False(t, second.HasMore)
}

func TestServiceOptionsReturnsOnlyActive(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{Name: "Aktif", Image: upload("a.png")})
	require.NoError(t, err)
	inactive := false
	_, err = f.svc.Create(ctx, CreateInput{Name: "Nonaktif", IsActive: &inactive, Image: upload("b.png")})
	require.NoError(t, err)

	options, err := f.svc.Options(ctx)
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "Aktif", options[0].Name)
}

func TestServiceCategoriesRejectImages(t *testing.T) {
	db := setupCatalogTestDB(t)
	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  link_url TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL DEFAULT '',
  is_active BOOLEAN NOT NULL DEFAULT true,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	require.NoError(t, db.Exec(`DELETE FROM categories`).Error)

	repo, err := NewRepository(db, Categories)
	require.NoError(t, err)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(repo, &stubUploader{}, &recordingDeletions{}, &recordingChanges{}, livequery.NewLocalNotifier(), nil, logg)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Create(ctx, CreateInput{Name: "Minuman", Image: upload("x.png")})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	dto, err := svc.Create(ctx, CreateInput{Name: "Minuman", Description: "Minuman dingin dan hangat"})
	require.NoError(t, err)
	assert.Equal(t, "Minuman dingin dan hangat", dto.Description)
	assert.Empty(t, dto.ImageURL)
}

func TestServiceListTermFilters(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	for _, name := range []string{"teh-botol", "teh-pucuk", "kopi-susu"} {
		_, err := f.svc.Create(ctx, CreateInput{Name: name, Image: upload(name + ".png")})
		require.NoError(t, err)
	}

	result, err := f.svc.List(ctx, ListInput{Term: "teh", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	for _, item := range result.Items {
		assert.True(t, strings.HasPrefix(item.Name, "teh"))
	}
}
