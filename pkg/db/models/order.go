package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bagaspradana/tokoadmin-backend/pkg/enums"
)

// Order is a customer purchase recorded by the storefront.
type Order struct {
	ID            uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber   string            `gorm:"column:order_number;type:text;not null;uniqueIndex"`
	CustomerName  string            `gorm:"column:customer_name;type:text;not null;index"`
	CustomerPhone string            `gorm:"column:customer_phone;type:text;not null;default:''"`
	Address       string            `gorm:"column:address;type:text;not null;default:''"`
	Branch        enums.OrderBranch `gorm:"column:branch;type:text;not null"`
	Status        enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Subtotal      decimal.Decimal   `gorm:"column:subtotal;type:numeric(14,2);not null;default:0"`
	Discount      decimal.Decimal   `gorm:"column:discount;type:numeric(14,2);not null;default:0"`
	Total         decimal.Decimal   `gorm:"column:total;type:numeric(14,2);not null;default:0"`
	Items         []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is one product line inside an order. UnitPrice is the
// price at purchase time; Variant captures the chosen options.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	Name      string          `gorm:"column:name;type:text;not null"`
	Variant   string          `gorm:"column:variant;type:text;not null;default:''"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
}

// LineTotal is the quantity-extended price for the item.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ComputeTotals recalculates subtotal and total from the line items
// and the stored discount.
func (o *Order) ComputeTotals() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	o.Subtotal = subtotal
	o.Total = subtotal.Sub(o.Discount)
}
