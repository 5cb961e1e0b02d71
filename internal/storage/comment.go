package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/linemk/shop/internal/domain/models"
)

var ErrCommentNotFound = errors.New("comment not found")

// CommentStorage описывает методы для работы с отзывами.
type CommentStorage interface {
	CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	GetCommentByID(ctx context.Context, id int64) (*models.Comment, error)
	// ListCommentsByProduct возвращает отзывы о товаре, старые первыми.
	ListCommentsByProduct(ctx context.Context, productID int64) ([]*models.Comment, error)
	UpdateCommentText(ctx context.Context, id int64, text string) error
	DeleteComment(ctx context.Context, id int64) error
	DeleteCommentsByProductsTx(ctx context.Context, tx *sql.Tx, productIDs []int64) (int64, error)
}

type commentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) CommentStorage {
	return &commentRepository{db: db}
}

func (r *commentRepository) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	query := `INSERT INTO comments (product_id, user_id, text, created_at)
	          VALUES ($1, $2, $3, NOW()) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, comment.ProductID, comment.UserID, comment.Text).
		Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		if hasPQCode(err, pqForeignKeyViolation) {
			if violatedConstraint(err) == "comments_user_id_fkey" {
				return nil, ErrUserNotFound
			}
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

func (r *commentRepository) GetCommentByID(ctx context.Context, id int64) (*models.Comment, error) {
	query := `
		SELECT c.id, c.product_id, c.user_id, u.username, c.text, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.id = $1`
	c := &models.Comment{}
	row := r.db.QueryRowContext(ctx, query, id)
	if err := row.Scan(&c.ID, &c.ProductID, &c.UserID, &c.Username, &c.Text, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *commentRepository) ListCommentsByProduct(ctx context.Context, productID int64) ([]*models.Comment, error) {
	query := `
		SELECT c.id, c.product_id, c.user_id, u.username, c.text, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.product_id = $1
		ORDER BY c.created_at, c.id`
	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		c := &models.Comment{}
		if err := rows.Scan(&c.ID, &c.ProductID, &c.UserID, &c.Username, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) UpdateCommentText(ctx context.Context, id int64, text string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE comments SET text = $1 WHERE id = $2", text, id)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return expectAffected(res, ErrCommentNotFound)
}

func (r *commentRepository) DeleteComment(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return expectAffected(res, ErrCommentNotFound)
}

func (r *commentRepository) DeleteCommentsByProductsTx(ctx context.Context, tx *sql.Tx, productIDs []int64) (int64, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE product_id = ANY($1)", pq.Array(productIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to delete comments: %w", err)
	}
	return res.RowsAffected()
}
