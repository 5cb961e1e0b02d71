package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/linemk/shop/internal/domain/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrderTx вставляет новый заказ в таблицу orders с использованием транзакции.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Order, error)
	// AddOrderLineTx добавляет позицию заказа с зафиксированной ценой.
	AddOrderLineTx(ctx context.Context, tx *sql.Tx, orderID, productID int64, quantity int, unitPrice decimal.Decimal) error
	// GetOrdersByUserID возвращает заказы пользователя с суммами, новые первыми.
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	// GetOrderByID возвращает заказ вместе с позициями.
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	// CountLinesForProductsTx считает позиции заказов, ссылающиеся на товары.
	CountLinesForProductsTx(ctx context.Context, tx *sql.Tx, productIDs []int64) (int, error)
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Order, error) {
	order := &models.Order{UserID: userID, Total: decimal.Zero}
	err := tx.QueryRowContext(ctx,
		"INSERT INTO orders (user_id, created_at) VALUES ($1, NOW()) RETURNING id, created_at", userID,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) AddOrderLineTx(ctx context.Context, tx *sql.Tx, orderID, productID int64, quantity int, unitPrice decimal.Decimal) error {
	query := `INSERT INTO order_products (order_id, product_id, quantity, unit_price)
	          VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, query, orderID, productID, quantity, unitPrice); err != nil {
		return fmt.Errorf("failed to create order line: %w", err)
	}
	return nil
}

func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	query := `
		SELECT o.id, o.user_id, o.created_at, COALESCE(SUM(op.quantity * op.unit_price), 0)
		FROM orders o
		LEFT JOIN order_products op ON op.order_id = o.id
		WHERE o.user_id = $1
		GROUP BY o.id
		ORDER BY o.created_at DESC, o.id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(&order.ID, &order.UserID, &order.CreatedAt, &order.Total); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}
	row := r.db.QueryRowContext(ctx, "SELECT id, user_id, created_at FROM orders WHERE id = $1", id)
	if err := row.Scan(&order.ID, &order.UserID, &order.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	query := `
		SELECT op.id, op.order_id, op.product_id, p.name, op.quantity, op.unit_price
		FROM order_products op
		JOIN products p ON p.id = op.product_id
		WHERE op.order_id = $1
		ORDER BY op.id`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l models.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		order.Lines = append(order.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	order.Total = order.LinesTotal()
	return order, nil
}

func (r *orderRepository) CountLinesForProductsTx(ctx context.Context, tx *sql.Tx, productIDs []int64) (int, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM order_products WHERE product_id = ANY($1)", pq.Array(productIDs),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count order lines: %w", err)
	}
	return count, nil
}
