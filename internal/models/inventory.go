package models

// Stock statuses derived from quantity
const (
	StockStatusOut = "OUT_OF_STOCK"
	StockStatusLow = "LOW_STOCK"
	StockStatusIn  = "IN_STOCK"
)

// LowStockThreshold is the inclusive upper bound of the LOW_STOCK band.
const LowStockThreshold = 10

// DeriveStockStatus maps a quantity to its stock status. Every write to
// InventoryRecord.quantity must persist the result of this function in
// the same statement.
func DeriveStockStatus(quantity int) string {
	switch {
	case quantity <= 0:
		return StockStatusOut
	case quantity <= LowStockThreshold:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}
