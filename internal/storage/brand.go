package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/shop/internal/domain/models"
)

var ErrBrandNotFound = errors.New("brand not found")

// BrandStorage описывает методы для работы с таблицей брендов.
type BrandStorage interface {
	CreateBrand(ctx context.Context, name string) (*models.Brand, error)
	GetBrandByID(ctx context.Context, id int64) (*models.Brand, error)
	ListBrands(ctx context.Context) ([]*models.Brand, error)
	UpdateBrand(ctx context.Context, brand *models.Brand) error
	// DeleteBrandTx удаляет только сам бренд, товары должны быть удалены заранее.
	DeleteBrandTx(ctx context.Context, tx *sql.Tx, id int64) error
}

type brandRepository struct {
	db *sql.DB
}

func NewBrandRepository(db *sql.DB) BrandStorage {
	return &brandRepository{db: db}
}

func (r *brandRepository) CreateBrand(ctx context.Context, name string) (*models.Brand, error) {
	brand := &models.Brand{Name: name}
	err := r.db.QueryRowContext(ctx, "INSERT INTO brands (name) VALUES ($1) RETURNING id", name).Scan(&brand.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create brand: %w", err)
	}
	return brand, nil
}

func (r *brandRepository) GetBrandByID(ctx context.Context, id int64) (*models.Brand, error) {
	brand := &models.Brand{}
	row := r.db.QueryRowContext(ctx, "SELECT id, name FROM brands WHERE id = $1", id)
	if err := row.Scan(&brand.ID, &brand.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBrandNotFound
		}
		return nil, err
	}
	return brand, nil
}

func (r *brandRepository) ListBrands(ctx context.Context) ([]*models.Brand, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM brands ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query brands: %w", err)
	}
	defer rows.Close()

	brands := []*models.Brand{}
	for rows.Next() {
		brand := &models.Brand{}
		if err := rows.Scan(&brand.ID, &brand.Name); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, brand)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return brands, nil
}

func (r *brandRepository) UpdateBrand(ctx context.Context, brand *models.Brand) error {
	res, err := r.db.ExecContext(ctx, "UPDATE brands SET name = $1 WHERE id = $2", brand.Name, brand.ID)
	if err != nil {
		return fmt.Errorf("failed to update brand: %w", err)
	}
	return expectAffected(res, ErrBrandNotFound)
}

func (r *brandRepository) DeleteBrandTx(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM brands WHERE id = $1", id)
	if err != nil {
		if hasPQCode(err, pqForeignKeyViolation) {
			return ErrStillReferenced
		}
		return fmt.Errorf("failed to delete brand: %w", err)
	}
	return expectAffected(res, ErrBrandNotFound)
}
