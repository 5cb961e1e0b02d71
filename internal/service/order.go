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

// OrderService оформляет и показывает заказы.
type OrderService interface {
	// CreateOrder переносит позиции корзины в новый заказ и очищает корзину.
	// Для пустой корзины заказ не создаётся: возвращается nil без ошибки.
	CreateOrder(ctx context.Context, userID int64) (*models.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]*models.Order, error)
	GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error)
}

type orderService struct {
	log       *slog.Logger
	db        *sql.DB
	cartRepo  storage.CartStorage
	orderRepo storage.OrderStorage
}

func NewOrderService(log *slog.Logger, db *sql.DB, cartRepo storage.CartStorage, orderRepo storage.OrderStorage) OrderService {
	return &orderService{
		log:       log,
		db:        db,
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
	}
}

// CreateOrder выполняется в одной транзакции. Строка корзины блокируется первой,
// поэтому параллельное оформление того же пользователя ждёт и видит уже пустую корзину.
func (s *orderService) CreateOrder(ctx context.Context, userID int64) (*models.Order, error) {
	const op = "service.OrderService.CreateOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	if userID == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}

	logger.Info("starting checkout transaction")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer rollback(tx, logger)

	cartID, err := s.cartRepo.LockOrCreateCartTx(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
		}
		logger.Error("failed to lock cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to lock cart: %w", op, err)
	}

	lines, err := s.cartRepo.GetLinesTx(ctx, tx, cartID)
	if err != nil {
		logger.Error("failed to get cart lines", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get cart lines: %w", op, err)
	}

	if len(lines) == 0 {
		// корзина могла быть только что создана, сохраняем её
		if err := tx.Commit(); err != nil {
			logger.Error("failed to commit transaction", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
		}
		logger.Info("cart is empty, order not created")
		return nil, nil
	}

	order, err := s.orderRepo.CreateOrderTx(ctx, tx, userID)
	if err != nil {
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	// Цена фиксируется в позиции заказа, количество копируется из корзины
	for _, line := range lines {
		if err := s.orderRepo.AddOrderLineTx(ctx, tx, order.ID, line.ProductID, line.Quantity, line.Price); err != nil {
			logger.Error("failed to create order line", slog.Any("error", err), slog.Int64("productID", line.ProductID))
			return nil, fmt.Errorf("%s: failed to create order line: %w", op, err)
		}
		order.Lines = append(order.Lines, models.OrderLine{
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.Price,
		})
	}

	cleared, err := s.cartRepo.ClearCartTx(ctx, tx, cartID)
	if err != nil {
		logger.Error("failed to clear cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to clear cart: %w", op, err)
	}
	if cleared != int64(len(lines)) {
		logger.Error("cart changed during checkout", slog.Int64("cleared", cleared), slog.Int("lines", len(lines)))
		return nil, fmt.Errorf("%s: cart changed during checkout", op)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	order.Total = order.LinesTotal()
	logger.Info("order created", slog.Int64("orderID", order.ID), slog.Int("lines", len(order.Lines)))
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	const op = "service.OrderService.ListOrders"

	if userID == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

// GetOrder возвращает заказ только его владельцу
func (s *orderService) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	const op = "service.OrderService.GetOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("orderID", orderID))

	if userID == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, notFound(op, err)
		}
		logger.Error("failed to get order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if order.UserID != userID {
		logger.Warn("order access denied")
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	return order, nil
}
