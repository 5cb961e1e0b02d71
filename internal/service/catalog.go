package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/linemk/shop/internal/domain/models"
	"github.com/linemk/shop/internal/storage"
)

// права на управление каталогом
const (
	PermAddBrand      = "shop.add_brand"
	PermChangeBrand   = "shop.change_brand"
	PermDeleteBrand   = "shop.delete_brand"
	PermAddProduct    = "shop.add_product"
	PermChangeProduct = "shop.change_product"
	PermDeleteProduct = "shop.delete_product"
)

const maxNameLength = 100

// NUMERIC(10, 2): не более 8 цифр до запятой
var maxPrice = decimal.New(1, 8)

type BrandInput struct {
	Name string
}

type ProductInput struct {
	BrandID     int64
	Name        string
	Price       decimal.Decimal
	Category    models.Category
	Description string
}

// ProductDetail - товар вместе с отзывами о нём
type ProductDetail struct {
	Product  *models.Product   `json:"product"`
	Comments []*models.Comment `json:"comments"`
}

// CatalogService управляет брендами и товарами.
//
// Правило удаления: удаление товара удаляет его отзывы и позиции корзин;
// удаление бренда удаляет его товары по тому же правилу. Товар, который есть
// хотя бы в одном заказе, удалить нельзя (ErrConflict), чтобы заказы не менялись.
type CatalogService interface {
	CreateBrand(ctx context.Context, in BrandInput) (*models.Brand, error)
	GetBrand(ctx context.Context, id int64) (*models.Brand, error)
	ListBrands(ctx context.Context) ([]*models.Brand, error)
	UpdateBrand(ctx context.Context, id int64, in BrandInput) (*models.Brand, error)
	DeleteBrand(ctx context.Context, id int64) error

	CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*ProductDetail, error)
	UpdateProduct(ctx context.Context, id int64, in ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type catalogService struct {
	log         *slog.Logger
	db          *sql.DB
	brandRepo   storage.BrandStorage
	productRepo storage.ProductStorage
	commentRepo storage.CommentStorage
	cartRepo    storage.CartStorage
	orderRepo   storage.OrderStorage
}

func NewCatalogService(
	log *slog.Logger,
	db *sql.DB,
	brandRepo storage.BrandStorage,
	productRepo storage.ProductStorage,
	commentRepo storage.CommentStorage,
	cartRepo storage.CartStorage,
	orderRepo storage.OrderStorage,
) CatalogService {
	return &catalogService{
		log:         log,
		db:          db,
		brandRepo:   brandRepo,
		productRepo: productRepo,
		commentRepo: commentRepo,
		cartRepo:    cartRepo,
		orderRepo:   orderRepo,
	}
}

func validateName(fields map[string]string, name string) {
	switch {
	case strings.TrimSpace(name) == "":
		fields["name"] = "this field is required"
	case utf8.RuneCountInString(name) > maxNameLength:
		fields["name"] = fmt.Sprintf("ensure this value has at most %d characters", maxNameLength)
	}
}

func (in BrandInput) validate() error {
	fields := map[string]string{}
	validateName(fields, in.Name)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// validate проверяет инварианты товара; категория по умолчанию - unisex
func (in *ProductInput) validate() error {
	fields := map[string]string{}
	validateName(fields, in.Name)

	switch {
	case !in.Price.IsPositive():
		fields["price"] = "ensure this value is greater than or equal to 0.01"
	case !in.Price.Equal(in.Price.Round(2)):
		fields["price"] = "ensure that there are no more than 2 decimal places"
	case in.Price.GreaterThanOrEqual(maxPrice):
		fields["price"] = "ensure that there are no more than 8 digits before the decimal point"
	}

	if in.Category == 0 {
		in.Category = models.CategoryUnisex
	}
	if !in.Category.Valid() {
		fields["for_whom"] = "select a valid choice"
	}
	if in.BrandID <= 0 {
		fields["brand_id"] = "this field is required"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *catalogService) CreateBrand(ctx context.Context, in BrandInput) (*models.Brand, error) {
	const op = "service.CatalogService.CreateBrand"
	logger := s.log.With(slog.String("op", op))

	if err := in.validate(); err != nil {
		return nil, err
	}

	brand, err := s.brandRepo.CreateBrand(ctx, in.Name)
	if err != nil {
		logger.Error("failed to create brand", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("brand created", slog.Int64("brandID", brand.ID))
	return brand, nil
}

func (s *catalogService) GetBrand(ctx context.Context, id int64) (*models.Brand, error) {
	const op = "service.CatalogService.GetBrand"

	brand, err := s.brandRepo.GetBrandByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrBrandNotFound) {
			return nil, notFound(op, err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return brand, nil
}

func (s *catalogService) ListBrands(ctx context.Context) ([]*models.Brand, error) {
	const op = "service.CatalogService.ListBrands"

	brands, err := s.brandRepo.ListBrands(ctx)
	if err != nil {
		s.log.Error("failed to list brands", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return brands, nil
}

func (s *catalogService) UpdateBrand(ctx context.Context, id int64, in BrandInput) (*models.Brand, error) {
	const op = "service.CatalogService.UpdateBrand"
	logger := s.log.With(slog.String("op", op), slog.Int64("brandID", id))

	if err := in.validate(); err != nil {
		return nil, err
	}

	brand := &models.Brand{ID: id, Name: in.Name}
	if err := s.brandRepo.UpdateBrand(ctx, brand); err != nil {
		if errors.Is(err, storage.ErrBrandNotFound) {
			return nil, notFound(op, err)
		}
		logger.Error("failed to update brand", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("brand updated")
	return brand, nil
}

func (s *catalogService) DeleteBrand(ctx context.Context, id int64) error {
	const op = "service.CatalogService.DeleteBrand"
	logger := s.log.With(slog.String("op", op), slog.Int64("brandID", id))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer rollback(tx, logger)

	productIDs, err := s.productRepo.ProductIDsByBrandTx(ctx, tx, id)
	if err != nil {
		logger.Error("failed to get brand products", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.deleteProductsTx(ctx, tx, logger, productIDs); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.brandRepo.DeleteBrandTx(ctx, tx, id); err != nil {
		switch {
		case errors.Is(err, storage.ErrBrandNotFound):
			return notFound(op, err)
		case errors.Is(err, storage.ErrStillReferenced):
			return fmt.Errorf("%s: %w: brand has new products", op, ErrConflict)
		}
		logger.Error("failed to delete brand", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("brand deleted", slog.Int("products", len(productIDs)))
	return nil
}

func (s *catalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	const op = "service.CatalogService.CreateProduct"
	logger := s.log.With(slog.String("op", op))

	if err := in.validate(); err != nil {
		return nil, err
	}

	product, err := s.productRepo.CreateProduct(ctx, &models.Product{
		BrandID:     in.BrandID,
		Name:        in.Name,
		Price:       in.Price,
		Category:    in.Category,
		Description: in.Description,
	})
	if err != nil {
		if errors.Is(err, storage.ErrBrandNotFound) {
			return nil, NewValidationError("brand_id", "select a valid brand")
		}
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product created", slog.Int64("productID", product.ID))
	return product, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id int64) (*ProductDetail, error) {
	const op = "service.CatalogService.GetProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, notFound(op, err)
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	comments, err := s.commentRepo.ListCommentsByProduct(ctx, id)
	if err != nil {
		logger.Error("failed to get comments", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &ProductDetail{Product: product, Comments: comments}, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	const op = "service.CatalogService.UpdateProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	if err := in.validate(); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:          id,
		BrandID:     in.BrandID,
		Name:        in.Name,
		Price:       in.Price,
		Category:    in.Category,
		Description: in.Description,
	}
	if err := s.productRepo.UpdateProduct(ctx, product); err != nil {
		switch {
		case errors.Is(err, storage.ErrProductNotFound):
			return nil, notFound(op, err)
		case errors.Is(err, storage.ErrBrandNotFound):
			return nil, NewValidationError("brand_id", "select a valid brand")
		}
		logger.Error("failed to update product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product updated")
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	const op = "service.CatalogService.DeleteProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer rollback(tx, logger)

	if err := s.deleteProductsTx(ctx, tx, logger, []int64{id}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("product deleted")
	return nil
}

// deleteProductsTx применяет правило удаления к набору товаров
func (s *catalogService) deleteProductsTx(ctx context.Context, tx *sql.Tx, logger *slog.Logger, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	ordered, err := s.orderRepo.CountLinesForProductsTx(ctx, tx, ids)
	if err != nil {
		logger.Error("failed to count order lines", slog.Any("error", err))
		return err
	}
	if ordered > 0 {
		logger.Warn("products are referenced by orders", slog.Int("orderLines", ordered))
		return fmt.Errorf("%w: products are referenced by %d order lines", ErrConflict, ordered)
	}

	comments, err := s.commentRepo.DeleteCommentsByProductsTx(ctx, tx, ids)
	if err != nil {
		logger.Error("failed to delete comments", slog.Any("error", err))
		return err
	}

	lines, err := s.cartRepo.DeleteLinesByProductsTx(ctx, tx, ids)
	if err != nil {
		logger.Error("failed to delete cart lines", slog.Any("error", err))
		return err
	}

	deleted, err := s.productRepo.DeleteProductsTx(ctx, tx, ids)
	if err != nil {
		if errors.Is(err, storage.ErrStillReferenced) {
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
		logger.Error("failed to delete products", slog.Any("error", err))
		return err
	}
	if deleted == 0 {
		return fmt.Errorf("%w: %w", ErrNotFound, storage.ErrProductNotFound)
	}

	logger.Debug("products deleted",
		slog.Int64("products", deleted),
		slog.Int64("comments", comments),
		slog.Int64("cartLines", lines),
	)
	return nil
}
