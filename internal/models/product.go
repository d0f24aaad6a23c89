package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductKind classifies concession products.
type ProductKind string

const (
	ProductDrink ProductKind = "DRINK"
	ProductFood  ProductKind = "FOOD"
	ProductOther ProductKind = "OTHER"
)

// Product is a concession item with a stock counter.
type Product struct {
	Meta
	Name  string
	Price decimal.Decimal
	Stock int
	Kind  ProductKind
}

// ParseProductKind accepts the English names and the legacy Spanish ones.
func ParseProductKind(s string) (ProductKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DRINK", "BEBIDA":
		return ProductDrink, nil
	case "FOOD", "COMIDA":
		return ProductFood, nil
	case "OTHER", "OTROS":
		return ProductOther, nil
	}
	return "", fmt.Errorf("unknown product kind %q", s)
}
