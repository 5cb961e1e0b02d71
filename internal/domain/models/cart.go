package models

import "github.com/shopspring/decimal"

// Cart - корзина пользователя, не более одной на пользователя
type Cart struct {
	ID     int64      `json:"id"`
	UserID int64      `json:"user_id"`
	Lines  []CartLine `json:"lines"`
}

// CartLine - позиция корзины, пара (корзина, товар) уникальна
type CartLine struct {
	ID          int64           `json:"id"`
	CartID      int64           `json:"-"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"` // текущая цена товара
	Quantity    int             `json:"quantity"`
}

// Total возвращает стоимость позиции: количество × цена
func (l CartLine) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total возвращает сумму по всем позициям корзины
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Total())
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
