package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/linemk/shop/internal/domain/models"
)

var ErrProductNotFound = errors.New("product not found")

// ProductStorage описывает методы для работы с каталогом товаров.
type ProductStorage interface {
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	// ListProducts возвращает страницу товаров в порядке первичного ключа.
	ListProducts(ctx context.Context, limit, offset int) ([]*models.Product, error)
	CountProducts(ctx context.Context) (int, error)
	// SearchProducts ищет товары, в названии которых есть query без учёта регистра.
	SearchProducts(ctx context.Context, query string, limit, offset int) ([]*models.Product, error)
	CountSearchProducts(ctx context.Context, query string) (int, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	ProductIDsByBrandTx(ctx context.Context, tx *sql.Tx, brandID int64) ([]int64, error)
	DeleteProductsTx(ctx context.Context, tx *sql.Tx, ids []int64) (int64, error)
}

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

const selectProduct = `
	SELECT p.id, p.brand_id, b.name, p.name, p.price, p.for_whom, p.description
	FROM products p
	JOIN brands b ON b.id = p.brand_id`

func scanProduct(scan func(dest ...any) error) (*models.Product, error) {
	p := &models.Product{}
	if err := scan(&p.ID, &p.BrandID, &p.BrandName, &p.Name, &p.Price, &p.Category, &p.Description); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	query := `INSERT INTO products (brand_id, name, price, for_whom, description)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		product.BrandID, product.Name, product.Price, product.Category, product.Description,
	).Scan(&product.ID)
	if err != nil {
		if hasPQCode(err, pqForeignKeyViolation) {
			return nil, ErrBrandNotFound
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, selectProduct+" WHERE p.id = $1", id)
	p, err := scanProduct(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *productRepository) ListProducts(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	return r.queryProducts(ctx, selectProduct+" ORDER BY p.id LIMIT $1 OFFSET $2", limit, offset)
}

func (r *productRepository) CountProducts(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

func (r *productRepository) SearchProducts(ctx context.Context, query string, limit, offset int) ([]*models.Product, error) {
	return r.queryProducts(ctx,
		selectProduct+` WHERE p.name ILIKE '%' || $1 || '%' ORDER BY p.id LIMIT $2 OFFSET $3`,
		escapeLike(query), limit, offset,
	)
}

func (r *productRepository) CountSearchProducts(ctx context.Context, query string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE name ILIKE '%' || $1 || '%'`, escapeLike(query),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	query := `UPDATE products SET brand_id = $1, name = $2, price = $3, for_whom = $4, description = $5
	          WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query,
		product.BrandID, product.Name, product.Price, product.Category, product.Description, product.ID,
	)
	if err != nil {
		if hasPQCode(err, pqForeignKeyViolation) {
			return ErrBrandNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	return expectAffected(res, ErrProductNotFound)
}

// ProductIDsByBrandTx блокирует и возвращает товары бренда
func (r *productRepository) ProductIDsByBrandTx(ctx context.Context, tx *sql.Tx, brandID int64) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, "SELECT id FROM products WHERE brand_id = $1 ORDER BY id FOR UPDATE", brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to query brand products: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *productRepository) DeleteProductsTx(ctx context.Context, tx *sql.Tx, ids []int64) (int64, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM products WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		if hasPQCode(err, pqForeignKeyViolation) {
			return 0, ErrStillReferenced
		}
		return 0, fmt.Errorf("failed to delete products: %w", err)
	}
	return res.RowsAffected()
}
