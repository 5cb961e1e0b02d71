package models

import "github.com/shopspring/decimal"

// FormatMoney округляет сумму до 2 знаков для отображения, например "1999.98"
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
