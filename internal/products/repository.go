package product

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bagaspradana/tokoadmin-backend/pkg/db/models"
	"github.com/bagaspradana/tokoadmin-backend/pkg/livequery"
)

// CollectionName is the change channel and storage folder for products.
const CollectionName = "products"

// RefNames carries the denormalized brand and category names shown on
// the product detail view.
type RefNames struct {
	BrandName    *string
	CategoryName *string
}

const refNamesQuery = `
SELECT b.name AS brand_name,
       c.name AS category_name
FROM products p
LEFT JOIN brands b ON b.id = p.brand_id
LEFT JOIN categories c ON c.id = p.category_id
WHERE p.id = ?
`

// Repository persists product rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Source exposes the live query page source over products, ordered and
// prefix-searched on name.
func (r *Repository) Source() (livequery.Source[models.Product], error) {
	return livequery.NewGormSource(r.db, "products", "name", func(p models.Product) livequery.Cursor {
		return livequery.Cursor{Value: p.Name, ID: p.ID.String()}
	})
}

func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetDetail fetches a product together with its brand and category names.
func (r *Repository) GetDetail(ctx context.Context, id uuid.UUID) (*models.Product, *RefNames, error) {
	product, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	refs, err := r.fetchRefNames(ctx, id)
	if err != nil {
		return product, nil, err
	}
	return product, refs, nil
}

func (r *Repository) fetchRefNames(ctx context.Context, id uuid.UUID) (*RefNames, error) {
	type refRow struct {
		BrandName    sql.NullString
		CategoryName sql.NullString
	}

	var row refRow
	if err := r.db.WithContext(ctx).Raw(refNamesQuery, id).Scan(&row).Error; err != nil {
		return nil, err
	}

	refs := RefNames{}
	if row.BrandName.Valid {
		refs.BrandName = &row.BrandName.String
	}
	if row.CategoryName.Valid {
		refs.CategoryName = &row.CategoryName.String
	}
	return &refs, nil
}

func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Count returns the total product rows.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error
	return count, err
}

// IsNotFound reports whether err is the missing-row sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ActiveRefExists reports whether an active row with the given ID
// exists in the referenced catalog table.
func (r *Repository) ActiveRefExists(ctx context.Context, table string, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(table).
		Where("id = ? AND is_active = ?", id, true).
		Count(&count).Error
	return count > 0, err
}
