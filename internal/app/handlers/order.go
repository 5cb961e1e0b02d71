package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/linemk/shop/internal/domain/models"
	"github.com/linemk/shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop/internal/service"
)

// OrderLineResponse - позиция заказа по зафиксированной цене
type OrderLineResponse struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Total       string `json:"total"`
}

// OrderResponse - заказ с суммой
type OrderResponse struct {
	ID    int64               `json:"id"`
	Date  string              `json:"date"`
	Lines []OrderLineResponse `json:"lines,omitempty"`
	Total string              `json:"total"`
}

func newOrderResponse(order *models.Order) OrderResponse {
	resp := OrderResponse{
		ID:    order.ID,
		Date:  order.CreatedAt.Format(time.RFC3339),
		Total: models.FormatMoney(order.Total),
	}
	for _, line := range order.Lines {
		resp.Lines = append(resp.Lines, OrderLineResponse{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   models.FormatMoney(line.UnitPrice),
			Quantity:    line.Quantity,
			Total:       models.FormatMoney(line.Total()),
		})
	}
	return resp
}

// CreateOrderHandler - POST /create_order. Пустая корзина возвращает на /cart.
func CreateOrderHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.CreateOrderHandler"))

		userID, _ := jwtmiddleware.FromContext(r.Context())

		order, err := orders.CreateOrder(r.Context(), userID)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		if order == nil {
			http.Redirect(w, r, "/cart", http.StatusSeeOther)
			return
		}
		writeJSON(w, logger, http.StatusCreated, newOrderResponse(order))
	}
}

// OrderListHandler - GET /order_list, только заказы текущего пользователя
func OrderListHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.OrderListHandler"))

		userID, _ := jwtmiddleware.FromContext(r.Context())

		list, err := orders.ListOrders(r.Context(), userID)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		resp := make([]OrderResponse, 0, len(list))
		for _, order := range list {
			resp = append(resp, newOrderResponse(order))
		}
		writeJSON(w, logger, http.StatusOK, resp)
	}
}

// OrderDetailHandler - GET /order_detail/{id}
func OrderDetailHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.OrderDetailHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		userID, _ := jwtmiddleware.FromContext(r.Context())

		order, err := orders.GetOrder(r.Context(), userID, id)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, newOrderResponse(order))
	}
}
