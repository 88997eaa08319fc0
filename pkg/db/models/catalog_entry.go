package models

import (
	"time"

	"github.com/google/uuid"
)

// CatalogEntry is the shared row shape of the banners, brands, and
// categories tables. The owning repository picks the table. Banners
// use LinkURL, brands and categories use Description, and categories
// carry no image.
type CatalogEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;type:text;not null;index"`
	Description string    `gorm:"column:description;type:text;not null;default:''"`
	LinkURL     string    `gorm:"column:link_url;type:text;not null;default:''"`
	ImageURL    string    `gorm:"column:image_url;type:text;not null;default:''"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
