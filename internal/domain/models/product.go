package models

import (
	"github.com/shopspring/decimal"
)

// Category - для кого предназначен товар
type Category int

const (
	CategoryUnisex Category = 1
	CategoryWomen  Category = 2
	CategoryMen    Category = 3
)

func (c Category) Valid() bool {
	return c == CategoryUnisex || c == CategoryWomen || c == CategoryMen
}

func (c Category) String() string {
	switch c {
	case CategoryUnisex:
		return "Unisex"
	case CategoryWomen:
		return "Product for women"
	case CategoryMen:
		return "Product for men"
	default:
		return "Unknown"
	}
}

// Product представляет товар каталога
type Product struct {
	ID          int64           `json:"id"`
	BrandID     int64           `json:"brand_id"`
	BrandName   string          `json:"brand_name,omitempty"` // заполняется через JOIN с таблицей brands
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"for_whom"`
	Description string          `json:"description"`
}
