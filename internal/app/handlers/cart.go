package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/shop/internal/domain/models"
	"github.com/linemk/shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop/internal/service"
)

// AddToCartResponse - новое количество товара в корзине
type AddToCartResponse struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CartLineResponse - позиция корзины с посчитанной стоимостью
type CartLineResponse struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
	Total       string `json:"total"`
}

// CartResponse - содержимое корзины и итоговая сумма
type CartResponse struct {
	Lines []CartLineResponse `json:"lines"`
	Total string             `json:"total"`
}

func newCartResponse(cart *models.Cart) CartResponse {
	resp := CartResponse{
		Lines: make([]CartLineResponse, 0, len(cart.Lines)),
		Total: models.FormatMoney(cart.Total()),
	}
	for _, line := range cart.Lines {
		resp.Lines = append(resp.Lines, CartLineResponse{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Price:       models.FormatMoney(line.Price),
			Quantity:    line.Quantity,
			Total:       models.FormatMoney(line.Total()),
		})
	}
	return resp
}

// AddToCartHandler - POST /add_to_cart/{product_id}
func AddToCartHandler(log *slog.Logger, carts service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.AddToCartHandler"))

		productID, err := idParam(r, "product_id")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		userID, _ := jwtmiddleware.FromContext(r.Context())

		quantity, err := carts.AddToCart(r.Context(), userID, productID)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, AddToCartResponse{ProductID: productID, Quantity: quantity})
	}
}

// CartHandler - GET /cart
func CartHandler(log *slog.Logger, carts service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.CartHandler"))

		userID, _ := jwtmiddleware.FromContext(r.Context())

		cart, err := carts.ViewCart(r.Context(), userID)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, newCartResponse(cart))
	}
}
