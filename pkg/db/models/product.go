package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	dbtypes "github.com/bagaspradana/tokoadmin-backend/pkg/db/types"
	"github.com/bagaspradana/tokoadmin-backend/pkg/enums"
)

// Product represents a sellable catalog item. Images holds gallery
// URLs in display order; the first entry is the cover.
type Product struct {
	ID             uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string                `gorm:"column:name;type:text;not null;index"`
	Description    string                `gorm:"column:description;type:text;not null;default:''"`
	BrandID        *uuid.UUID            `gorm:"column:brand_id;type:uuid"`
	CategoryID     *uuid.UUID            `gorm:"column:category_id;type:uuid"`
	Status         enums.ProductStatus   `gorm:"column:status;type:text;not null;default:'active'"`
	RetailPrice    decimal.Decimal       `gorm:"column:retail_price;type:numeric(14,2);not null;default:0"`
	ResellerPrice  decimal.Decimal       `gorm:"column:reseller_price;type:numeric(14,2);not null;default:0"`
	WholesalePrice decimal.Decimal       `gorm:"column:wholesale_price;type:numeric(14,2);not null;default:0"`
	DiscountPrice  decimal.Decimal       `gorm:"column:discount_price;type:numeric(14,2);not null;default:0"`
	Stock          int                   `gorm:"column:stock;not null;default:0"`
	Images         pq.StringArray        `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	VideoURL       string                `gorm:"column:video_url;type:text;not null;default:''"`
	Variants       dbtypes.VariantGroups `gorm:"column:variants;type:jsonb;not null;default:'[]'"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
