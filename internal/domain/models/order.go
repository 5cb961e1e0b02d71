package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order представляет заказ, оформленный из корзины; после создания не меняется
type Order struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	CreatedAt time.Time       `json:"date"`
	Lines     []OrderLine     `json:"lines,omitempty"`
	Total     decimal.Decimal `json:"total"`
}

// OrderLine - снимок позиции корзины на момент оформления
type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"-"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"` // заполняется через JOIN с таблицей products
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"` // цена, зафиксированная при оформлении
}

func (l OrderLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LinesTotal считает сумму заказа по зафиксированным ценам
func (o *Order) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Total())
	}
	return total
}
