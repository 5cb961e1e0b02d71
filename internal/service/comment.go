package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/shop/internal/domain/models"
	"github.com/linemk/shop/internal/storage"
)

// CommentService управляет отзывами. Изменять и удалять отзыв может только автор.
type CommentService interface {
	AddComment(ctx context.Context, userID, productID int64, text string) (*models.Comment, error)
	// GetOwnComment возвращает отзыв, если userID - его автор.
	GetOwnComment(ctx context.Context, userID, commentID int64) (*models.Comment, error)
	UpdateComment(ctx context.Context, userID, commentID int64, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID int64) (*models.Comment, error)
}

type commentService struct {
	log         *slog.Logger
	commentRepo storage.CommentStorage
	productRepo storage.ProductStorage
}

func NewCommentService(log *slog.Logger, commentRepo storage.CommentStorage, productRepo storage.ProductStorage) CommentService {
	return &commentService{
		log:         log,
		commentRepo: commentRepo,
		productRepo: productRepo,
	}
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return NewValidationError("text", "this field is required")
	}
	return nil
}

func (s *commentService) AddComment(ctx context.Context, userID, productID int64, text string) (*models.Comment, error) {
	const op = "service.CommentService.AddComment"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	if userID == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}
	if err := validateText(text); err != nil {
		return nil, err
	}

	if _, err := s.productRepo.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, notFound(op, err)
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	comment, err := s.commentRepo.CreateComment(ctx, &models.Comment{
		ProductID: productID,
		UserID:    userID,
		Text:      text,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
		}
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, notFound(op, err)
		}
		logger.Error("failed to create comment", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("comment created", slog.Int64("commentID", comment.ID))
	return comment, nil
}

// ownComment загружает отзыв и проверяет авторство до любых изменений
func (s *commentService) ownComment(ctx context.Context, op string, userID, commentID int64) (*models.Comment, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}

	comment, err := s.commentRepo.GetCommentByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, storage.ErrCommentNotFound) {
			return nil, notFound(op, err)
		}
		s.log.Error("failed to get comment", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !comment.OwnedBy(userID) {
		s.log.Warn("comment access denied",
			slog.String("op", op),
			slog.Int64("userID", userID),
			slog.Int64("commentID", commentID),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	return comment, nil
}

func (s *commentService) GetOwnComment(ctx context.Context, userID, commentID int64) (*models.Comment, error) {
	return s.ownComment(ctx, "service.CommentService.GetOwnComment", userID, commentID)
}

func (s *commentService) UpdateComment(ctx context.Context, userID, commentID int64, text string) (*models.Comment, error) {
	const op = "service.CommentService.UpdateComment"

	comment, err := s.ownComment(ctx, op, userID, commentID)
	if err != nil {
		return nil, err
	}
	if err := validateText(text); err != nil {
		return nil, err
	}

	if err := s.commentRepo.UpdateCommentText(ctx, commentID, text); err != nil {
		if errors.Is(err, storage.ErrCommentNotFound) {
			return nil, notFound(op, err)
		}
		s.log.Error("failed to update comment", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	comment.Text = text
	return comment, nil
}

func (s *commentService) DeleteComment(ctx context.Context, userID, commentID int64) (*models.Comment, error) {
	const op = "service.CommentService.DeleteComment"

	comment, err := s.ownComment(ctx, op, userID, commentID)
	if err != nil {
		return nil, err
	}

	if err := s.commentRepo.DeleteComment(ctx, commentID); err != nil {
		if errors.Is(err, storage.ErrCommentNotFound) {
			return nil, notFound(op, err)
		}
		s.log.Error("failed to delete comment", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("comment deleted", slog.String("op", op), slog.Int64("commentID", commentID))
	return comment, nil
}
