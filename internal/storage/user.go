package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/linemk/shop/internal/domain/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

type UserStorage interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	// HasPermissions проверяет, что у пользователя есть все перечисленные права
	HasPermissions(ctx context.Context, userID int64, codenames []string) (bool, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

const selectUser = "SELECT id, username, pass_hash, is_superuser, created_at FROM users"

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Username, &user.PassHash, &user.IsSuperuser, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, selectUser+" WHERE username = $1", username))
}

func (r *userRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, selectUser+" WHERE id = $1", id))
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO users (username, pass_hash, is_superuser) VALUES ($1, $2, $3) RETURNING id, created_at",
		user.Username, user.PassHash, user.IsSuperuser,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if hasPQCode(err, pqUniqueViolation) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// суперпользователь имеет все права
func (r *userRepository) HasPermissions(ctx context.Context, userID int64, codenames []string) (bool, error) {
	query := `
		SELECT u.is_superuser, COUNT(DISTINCT p.codename)
		FROM users u
		LEFT JOIN user_permissions p ON p.user_id = u.id AND p.codename = ANY($2)
		WHERE u.id = $1
		GROUP BY u.is_superuser`

	var (
		superuser bool
		granted   int
	)
	err := r.db.QueryRowContext(ctx, query, userID, pq.Array(codenames)).Scan(&superuser, &granted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("failed to check permissions: %w", err)
	}
	return superuser || granted >= countDistinct(codenames), nil
}

func countDistinct(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
