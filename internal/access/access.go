// Package access проверяет права доступа до вызова обработчика.
//
// Каждое правило возвращает решение: пропустить запрос, отправить пользователя
// на страницу входа или ответить 403. Правила проверяются по порядку,
// первое решение, отличное от Allow, останавливает проверку.
package access

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/linemk/shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop/internal/service"
)

type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// DefaultLoginURL используется, если адрес входа не задан через LoginURL
const DefaultLoginURL = "/login"

type Rule interface {
	Check(r *http.Request) (Decision, error)
}

// RuleFunc позволяет использовать функцию как Rule
type RuleFunc func(r *http.Request) (Decision, error)

func (f RuleFunc) Check(r *http.Request) (Decision, error) {
	return f(r)
}

// PermissionChecker реализуется service.AuthService
type PermissionChecker interface {
	HasPermissions(ctx context.Context, userID int64, codenames ...string) (bool, error)
}

// LoginRequired пропускает только аутентифицированных пользователей
func LoginRequired() Rule {
	return RuleFunc(func(r *http.Request) (Decision, error) {
		if userID, ok := jwtmiddleware.FromContext(r.Context()); !ok || userID == 0 {
			return RedirectToLogin, nil
		}
		return Allow, nil
	})
}

// PermissionRequired требует, чтобы пользователю были выданы все права
func PermissionRequired(checker PermissionChecker, codenames ...string) Rule {
	return RuleFunc(func(r *http.Request) (Decision, error) {
		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok || userID == 0 {
			return RedirectToLogin, nil
		}

		allowed, err := checker.HasPermissions(r.Context(), userID, codenames...)
		if err != nil {
			if errors.Is(err, service.ErrNotAuthenticated) {
				return RedirectToLogin, nil
			}
			return Forbidden, err
		}
		if !allowed {
			return Forbidden, nil
		}
		return Allow, nil
	})
}

type loginURLKey struct{}

// LoginURL запоминает адрес страницы входа в контексте запроса
func LoginURL(loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), loginURLKey{}, loginURL)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func loginURLFromContext(ctx context.Context) string {
	if u, ok := ctx.Value(loginURLKey{}).(string); ok && u != "" {
		return u
	}
	return DefaultLoginURL
}

// LoginRedirectURL возвращает адрес входа с параметром next на текущий запрос
func LoginRedirectURL(r *http.Request) string {
	q := url.Values{}
	q.Set("next", r.URL.RequestURI())
	return loginURLFromContext(r.Context()) + "?" + q.Encode()
}

// RedirectToLoginPage отправляет пользователя на страницу входа
func RedirectToLoginPage(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, LoginRedirectURL(r), http.StatusFound)
}

// Require возвращает middleware, которое проверяет правила до вызова обработчика
func Require(log *slog.Logger, rules ...Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "access.Require"

			for _, rule := range rules {
				decision, err := rule.Check(r)
				if err != nil {
					log.Error("access check failed",
						slog.String("op", op),
						slog.String("url", r.URL.Path),
						slog.Any("error", err),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}

				switch decision {
				case Allow:
					continue
				case RedirectToLogin:
					RedirectToLoginPage(w, r)
				default:
					log.Warn("access denied", slog.String("op", op), slog.String("url", r.URL.Path))
					http.Error(w, "forbidden", http.StatusForbidden)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
