package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/linemk/shop/internal/domain/models"
	security "github.com/linemk/shop/internal/jwt-new"
	"github.com/linemk/shop/internal/storage"
)

const minPasswordLength = 8

type AuthService struct {
	log       *slog.Logger
	userRepo  storage.UserStorage
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(log *slog.Logger, userRepo storage.UserStorage, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		log:       log,
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

type AuthServiceInterface interface {
	Register(ctx context.Context, username, password, password2 string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	HasPermissions(ctx context.Context, userID int64, codenames ...string) (bool, error)
}

// Register создаёт нового пользователя.
// Пароль хэшируется через bcrypt, который автоматически добавляет соль.
func (a *AuthService) Register(ctx context.Context, username, password, password2 string) (*models.User, error) {
	const op = "service.AuthService.Register"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("username", username),
	)

	if password != password2 {
		return nil, NewValidationError("password2", "passwords do not match")
	}
	if len(password) < minPasswordLength {
		return nil, NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := a.userRepo.CreateUser(ctx, &models.User{Username: username, PassHash: passHash})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			logger.Info("username already taken")
			return nil, NewValidationError("username", "a user with that username already exists")
		}
		logger.Error("failed to create user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create user: %w", op, err)
	}

	logger.Info("user registered", slog.Int64("userID", user.ID))
	return user, nil
}

// Login проверяет пароль и выдаёт JWT-токен.
func (a *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	const op = "service.AuthService.Login"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("username", username),
	)
	logger.Info("checking user")

	user, err := a.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	// Сравниваем введённый пароль с хэшированным паролем
	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := security.NewToken(user, a.jwtSecret, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user logged in successfully", slog.Int64("userID", user.ID))
	return token, nil
}

// HasPermissions сообщает, выдано ли пользователю каждое из прав.
// Удалённый пользователь считается неаутентифицированным.
func (a *AuthService) HasPermissions(ctx context.Context, userID int64, codenames ...string) (bool, error) {
	const op = "service.AuthService.HasPermissions"

	ok, err := a.userRepo.HasPermissions(ctx, userID, codenames)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return false, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
		}
		a.log.Error("failed to check permissions", slog.String("op", op), slog.Any("error", err))
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}
