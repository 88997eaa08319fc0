package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bagaspradana/tokoadmin-backend/pkg/db/models"
	dbtypes "github.com/bagaspradana/tokoadmin-backend/pkg/db/types"
)

// ProductDTO represents the product payload returned to clients. Images
// are in display order; the first entry is the cover.
type ProductDTO struct {
	ID             uuid.UUID              `json:"id"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	BrandID        *uuid.UUID             `json:"brand_id,omitempty"`
	CategoryID     *uuid.UUID             `json:"category_id,omitempty"`
	BrandName      *string                `json:"brand_name,omitempty"`
	CategoryName   *string                `json:"category_name,omitempty"`
	Status         string                 `json:"status"`
	RetailPrice    decimal.Decimal        `json:"retail_price"`
	ResellerPrice  decimal.Decimal        `json:"reseller_price"`
	WholesalePrice decimal.Decimal        `json:"wholesale_price"`
	DiscountPrice  decimal.Decimal        `json:"discount_price"`
	Stock          int                    `json:"stock"`
	Images         []string               `json:"images"`
	VideoURL       string                 `json:"video_url,omitempty"`
	Variants       []dbtypes.VariantGroup `json:"variants"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// NewProductDTO builds a DTO from the persisted model and, when
// loaded, the referenced brand and category names.
func NewProductDTO(product *models.Product, refs *RefNames) *ProductDTO {
	dto := &ProductDTO{
		ID:             product.ID,
		Name:           product.Name,
		Description:    product.Description,
		BrandID:        product.BrandID,
		CategoryID:     product.CategoryID,
		Status:         string(product.Status),
		RetailPrice:    product.RetailPrice,
		ResellerPrice:  product.ResellerPrice,
		WholesalePrice: product.WholesalePrice,
		DiscountPrice:  product.DiscountPrice,
		Stock:          product.Stock,
		Images:         append([]string{}, product.Images...),
		VideoURL:       product.VideoURL,
		Variants:       append([]dbtypes.VariantGroup{}, product.Variants...),
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
	if refs != nil {
		dto.BrandName = refs.BrandName
		dto.CategoryName = refs.CategoryName
	}
	return dto
}

// NewProductDTOs maps a page of rows without reference names.
func NewProductDTOs(products []models.Product) []ProductDTO {
	dtos := make([]ProductDTO, 0, len(products))
	for i := range products {
		dtos = append(dtos, *NewProductDTO(&products[i], nil))
	}
	return dtos
}
