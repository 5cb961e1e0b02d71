package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop/internal/service"
)

// CommentRequest - текст отзыва
type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// DeleteCommentResponse указывает, к какому товару вернуться после удаления
type DeleteCommentResponse struct {
	Message   string `json:"message"`
	ProductID int64  `json:"product_id"`
}

// AddCommentHandler - POST /add_comment/{product_id}
func AddCommentHandler(log *slog.Logger, comments service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.AddCommentHandler"))

		productID, err := idParam(r, "product_id")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		// userID отсутствует только если маршрут не закрыт LoginRequired
		userID, _ := jwtmiddleware.FromContext(r.Context())

		var req CommentRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		comment, err := comments.AddComment(r.Context(), userID, productID, req.Text)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, comment)
	}
}

// OwnCommentHandler - GET /update_comment/{id} и GET /delete_comment/{id}
func OwnCommentHandler(log *slog.Logger, comments service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.OwnCommentHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		userID, _ := jwtmiddleware.FromContext(r.Context())

		comment, err := comments.GetOwnComment(r.Context(), userID, id)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, comment)
	}
}

// UpdateCommentHandler - POST /update_comment/{id}
func UpdateCommentHandler(log *slog.Logger, comments service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.UpdateCommentHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		userID, _ := jwtmiddleware.FromContext(r.Context())

		var req CommentRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		comment, err := comments.UpdateComment(r.Context(), userID, id, req.Text)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, comment)
	}
}

// DeleteCommentHandler - POST /delete_comment/{id}
func DeleteCommentHandler(log *slog.Logger, comments service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.DeleteCommentHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		userID, _ := jwtmiddleware.FromContext(r.Context())

		comment, err := comments.DeleteComment(r.Context(), userID, id)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, DeleteCommentResponse{Message: "comment deleted", ProductID: comment.ProductID})
	}
}
