package models

import "github.com/shopspring/decimal"

// SaleLine is one product entry of a sale. Product and UnitPrice are
// snapshots taken when the line was added and never follow later changes.
type SaleLine struct {
	Meta
	SaleID    string
	Product   Product
	Quantity  int
	UnitPrice decimal.Decimal
}

// Total is UnitPrice × Quantity.
func (l SaleLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Sale links one account, exactly one seat and its product lines.
// Account and Seat are references; the sale owns its lines.
type Sale struct {
	Meta
	Account Account
	Seat    Seat
	Lines   []SaleLine
}

// LinesTotal sums the product lines.
func (s Sale) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.Total())
	}
	return total
}

// Total is the seat price plus every line total.
func (s Sale) Total() decimal.Decimal {
	return s.Seat.Kind.Price().Add(s.LinesTotal())
}
