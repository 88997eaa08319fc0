package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bagaspradana/tokoadmin-backend/pkg/db/models"
	"github.com/bagaspradana/tokoadmin-backend/pkg/livequery"
)

// Collection names one catalog table exposed to the back office. Name
// doubles as the change channel and the storage folder.
type Collection struct {
	Name          string
	Table         string
	HasImage      bool
	RequiresImage bool
}

var (
	Banners    = Collection{Name: "banners", Table: "banners", HasImage: true, RequiresImage: true}
	Brands     = Collection{Name: "brands", Table: "brands", HasImage: true}
	Categories = Collection{Name: "categories", Table: "categories"}
)

// Repository persists catalog entries for a single collection.
type Repository struct {
	db         *gorm.DB
	collection Collection
}

func NewRepository(db *gorm.DB, collection Collection) (*Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if collection.Table == "" || collection.Name == "" {
		return nil, fmt.Errorf("collection is required")
	}
	return &Repository{db: db, collection: collection}, nil
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx, collection: r.collection}
}

// Collection returns the collection this repository serves.
func (r *Repository) Collection() Collection {
	return r.collection
}

// Source exposes the live query page source over this collection,
// ordered and prefix-searched on name.
func (r *Repository) Source() (livequery.Source[models.CatalogEntry], error) {
	return livequery.NewGormSource(r.db, r.collection.Table, "name", func(e models.CatalogEntry) livequery.Cursor {
		return livequery.Cursor{Value: e.Name, ID: e.ID.String()}
	})
}

func (r *Repository) Create(ctx context.Context, entry *models.CatalogEntry) (*models.CatalogEntry, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Table(r.collection.Table).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CatalogEntry, error) {
	var entry models.CatalogEntry
	err := r.db.WithContext(ctx).Table(r.collection.Table).First(&entry, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) Update(ctx context.Context, entry *models.CatalogEntry) (*models.CatalogEntry, error) {
	err := r.db.WithContext(ctx).Table(r.collection.Table).
		Where("id = ?", entry.ID).
		Updates(map[string]any{
			"name":        entry.Name,
			"description": entry.Description,
			"link_url":    entry.LinkURL,
			"image_url":   entry.ImageURL,
			"is_active":   entry.IsActive,
		}).Error
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, entry.ID)
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Table(r.collection.Table).
		Where("id = ?", id).
		Delete(&models.CatalogEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListActive returns every active entry ordered by name. The product
// form uses this to offer brand and category options.
func (r *Repository) ListActive(ctx context.Context) ([]models.CatalogEntry, error) {
	var entries []models.CatalogEntry
	err := r.db.WithContext(ctx).Table(r.collection.Table).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the total rows in the collection.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(r.collection.Table).Count(&count).Error
	return count, err
}

// IsNotFound reports whether err is the missing-row sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
