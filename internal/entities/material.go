package entities

import "github.com/shopspring/decimal"

// Material is a tenant-level consumable referenced by routine tasks.
// Deleting a material requires reassigning its active routine tasks; rows
// already deleted keep the old reference for history.
type Material struct {
	Base `json:"-"`
	noRefs

	Name     string          `json:"name"`
	SKU      string          `json:"sku"`
	Unit     string          `json:"unit"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	StockQty int             `json:"stock_qty"`
}

func (*Material) Type() ResourceType { return TypeMaterial }
