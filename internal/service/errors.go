package service

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

var (
	// ErrNotAuthenticated - нет активного пользователя
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrForbidden - пользователь аутентифицирован, но не имеет доступа
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound - запрошенный объект не существует
	ErrNotFound = errors.New("not found")
	// ErrConflict - операция нарушает правило удаления
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials - неверное имя пользователя или пароль
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError содержит сообщения об ошибках по полям формы
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// NewValidationError создаёт ошибку для одного поля
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// notFound оборачивает ошибку хранилища так, чтобы errors.Is узнавал ErrNotFound
func notFound(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
}

func rollback(tx *sql.Tx, logger *slog.Logger) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Error("transaction rollback failed", slog.Any("error", err))
	}
}
