package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
)

// коды ошибок postgres
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// ErrStillReferenced - на удаляемую строку ещё ссылаются другие таблицы
var ErrStillReferenced = errors.New("row is still referenced")

// queryer - общее подмножество *sql.DB и *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func hasPQCode(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}

// violatedConstraint возвращает имя нарушенного ограничения
func violatedConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike экранирует спецсимволы LIKE, чтобы строка искалась буквально
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// одна затронутая строка или errNotFound
func expectAffected(res sql.Result, errNotFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errNotFound
	}
	return nil
}
