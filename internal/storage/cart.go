package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/linemk/shop/internal/domain/models"
)

// CartStorage описывает методы для работы с корзинами и их позициями.
type CartStorage interface {
	// GetOrCreateCart возвращает id корзины пользователя, создавая её при отсутствии.
	GetOrCreateCart(ctx context.Context, userID int64) (int64, error)
	// LockOrCreateCartTx делает то же в транзакции и удерживает блокировку строки корзины
	// до конца транзакции, так что операции над одной корзиной выполняются по очереди.
	LockOrCreateCartTx(ctx context.Context, tx *sql.Tx, userID int64) (int64, error)
	// IncrementProductTx добавляет товар в корзину или увеличивает количество на 1.
	IncrementProductTx(ctx context.Context, tx *sql.Tx, cartID, productID int64) (int, error)
	GetLines(ctx context.Context, cartID int64) ([]models.CartLine, error)
	GetLinesTx(ctx context.Context, tx *sql.Tx, cartID int64) ([]models.CartLine, error)
	ClearCartTx(ctx context.Context, tx *sql.Tx, cartID int64) (int64, error)
	DeleteLinesByProductsTx(ctx context.Context, tx *sql.Tx, productIDs []int64) (int64, error)
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

// ON CONFLICT DO UPDATE блокирует уже существующую строку так же, как SELECT ... FOR UPDATE
const upsertCart = `
	INSERT INTO carts (user_id) VALUES ($1)
	ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
	RETURNING id`

// DO NOTHING не берёт блокировку существующей строки и не ждёт оформления заказа
const ensureCart = `INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`

func (r *cartRepository) GetOrCreateCart(ctx context.Context, userID int64) (int64, error) {
	if _, err := r.db.ExecContext(ctx, ensureCart, userID); err != nil {
		if hasPQCode(err, pqForeignKeyViolation) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to create cart: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, "SELECT id FROM carts WHERE user_id = $1", userID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// пользователь удалён вместе с корзиной между запросами
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get cart: %w", err)
	}
	return id, nil
}

func (r *cartRepository) LockOrCreateCartTx(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {
	var id int64
	if err := tx.QueryRowContext(ctx, upsertCart, userID).Scan(&id); err != nil {
		if hasPQCode(err, pqForeignKeyViolation) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get or create cart: %w", err)
	}
	return id, nil
}

func (r *cartRepository) IncrementProductTx(ctx context.Context, tx *sql.Tx, cartID, productID int64) (int, error) {
	query := `
		INSERT INTO cart_products (cart_id, product_id, quantity) VALUES ($1, $2, 1)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_products.quantity + 1
		RETURNING quantity`
	var quantity int
	if err := tx.QueryRowContext(ctx, query, cartID, productID).Scan(&quantity); err != nil {
		if hasPQCode(err, pqForeignKeyViolation) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("failed to add product to cart: %w", err)
	}
	return quantity, nil
}

func getLines(ctx context.Context, q queryer, cartID int64) ([]models.CartLine, error) {
	query := `
		SELECT cp.id, cp.cart_id, cp.product_id, p.name, p.price, cp.quantity
		FROM cart_products cp
		JOIN products p ON p.id = cp.product_id
		WHERE cp.cart_id = $1
		ORDER BY cp.id`
	rows, err := q.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	lines := []models.CartLine{}
	for rows.Next() {
		var l models.CartLine
		if err := rows.Scan(&l.ID, &l.CartID, &l.ProductID, &l.ProductName, &l.Price, &l.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *cartRepository) GetLines(ctx context.Context, cartID int64) ([]models.CartLine, error) {
	return getLines(ctx, r.db, cartID)
}

func (r *cartRepository) GetLinesTx(ctx context.Context, tx *sql.Tx, cartID int64) ([]models.CartLine, error) {
	return getLines(ctx, tx, cartID)
}

func (r *cartRepository) ClearCartTx(ctx context.Context, tx *sql.Tx, cartID int64) (int64, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM cart_products WHERE cart_id = $1", cartID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}
	return res.RowsAffected()
}

func (r *cartRepository) DeleteLinesByProductsTx(ctx context.Context, tx *sql.Tx, productIDs []int64) (int64, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM cart_products WHERE product_id = ANY($1)", pq.Array(productIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to delete cart lines: %w", err)
	}
	return res.RowsAffected()
}
