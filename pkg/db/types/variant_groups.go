package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// VariantValue is one sellable option inside a variant group, e.g.
// value "Merah" with its own SKU and stock count.
type VariantValue struct {
	Value string `json:"value"`
	SKU   string `json:"sku"`
	Stock int    `json:"stock"`
}

// VariantGroup is one named axis of product variation, e.g. type
// "Warna" with values "Merah", "Hitam". Value order is display order.
type VariantGroup struct {
	Type   string         `json:"type"`
	Values []VariantValue `json:"values"`
}

// VariantGroups stores the full set of variant axes as a JSONB column.
type VariantGroups []VariantGroup

// Value implements driver.Valuer.
func (v VariantGroups) Value() (driver.Value, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v)
}

// Scan implements sql.Scanner.
func (v *VariantGroups) Scan(src any) error {
	if src == nil {
		*v = VariantGroups{}
		return nil
	}

	var data []byte
	switch raw := src.(type) {
	case []byte:
		data = raw
	case string:
		data = []byte(raw)
	default:
		return fmt.Errorf("unsupported variant groups source type %T", src)
	}

	if len(data) == 0 {
		*v = VariantGroups{}
		return nil
	}
	return json.Unmarshal(data, v)
}

// TotalStock sums the stock counts across every variant value.
func (v VariantGroups) TotalStock() int {
	total := 0
	for _, group := range v {
		for _, value := range group.Values {
			total += value.Stock
		}
	}
	return total
}
