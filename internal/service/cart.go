package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/shop/internal/domain/models"
	"github.com/linemk/shop/internal/storage"
)

// CartService управляет корзиной пользователя. Корзина создаётся при первом обращении.
type CartService interface {
	// AddToCart добавляет товар в корзину или увеличивает его количество на 1
	// и возвращает новое количество.
	AddToCart(ctx context.Context, userID, productID int64) (int, error)
	ViewCart(ctx context.Context, userID int64) (*models.Cart, error)
}

type cartService struct {
	log         *slog.Logger
	db          *sql.DB
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
}

func NewCartService(log *slog.Logger, db *sql.DB, cartRepo storage.CartStorage, productRepo storage.ProductStorage) CartService {
	return &cartService{
		log:         log,
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) AddToCart(ctx context.Context, userID, productID int64) (int, error) {
	const op = "service.CartService.AddToCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	if userID == 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}

	if _, err := s.productRepo.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return 0, notFound(op, err)
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer rollback(tx, logger)

	cartID, err := s.cartRepo.LockOrCreateCartTx(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return 0, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
		}
		logger.Error("failed to get cart", slog.Any("error", err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	quantity, err := s.cartRepo.IncrementProductTx(ctx, tx, cartID, productID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return 0, notFound(op, err)
		}
		logger.Error("failed to add product to cart", slog.Any("error", err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("product added to cart", slog.Int64("cartID", cartID), slog.Int("quantity", quantity))
	return quantity, nil
}

func (s *cartService) ViewCart(ctx context.Context, userID int64) (*models.Cart, error) {
	const op = "service.CartService.ViewCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	if userID == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}

	cartID, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
		}
		logger.Error("failed to get cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lines, err := s.cartRepo.GetLines(ctx, cartID)
	if err != nil {
		logger.Error("failed to get cart lines", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.Cart{ID: cartID, UserID: userID, Lines: lines}, nil
}
