package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/linemk/shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop/internal/service"
)

// адрес по умолчанию после входа
const defaultNext = "/products_list"

// RegisterRequest - форма регистрации
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,max=150"`
	Password  string `json:"password" validate:"required"`
	Password2 string `json:"password2" validate:"required"`
}

// RegisterResponse - созданный пользователь
type RegisterResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// LoginRequest представляет структуру запроса для входа с тегами валидации
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Next     string `json:"next"`
}

// LoginResponse представляет структуру ответа с JWT-токеном
type LoginResponse struct {
	Token string `json:"token"`
	Next  string `json:"next"`
}

// safeNext разрешает переход только по локальному пути
func safeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return defaultNext
}

// RegisterHandler - POST /register
func RegisterHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RegisterHandler"
		logger := log.With(slog.String("op", op))

		var req RegisterRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		user, err := authService.Register(r.Context(), req.Username, req.Password, req.Password2)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusCreated, RegisterResponse{ID: user.ID, Username: user.Username})
	}
}

// LoginHandler - POST /login. Токен возвращается в теле и в HttpOnly cookie.
func LoginHandler(log *slog.Logger, authService service.AuthServiceInterface, tokenTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LoginHandler"
		logger := log.With(slog.String("op", op))

		var req LoginRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}
		if req.Next == "" {
			req.Next = r.URL.Query().Get("next")
		}

		token, err := authService.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     jwtmiddleware.CookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(tokenTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		writeJSON(w, logger, http.StatusOK, LoginResponse{Token: token, Next: safeNext(req.Next)})
	}
}

// LogoutHandler - POST /logout, удаляет cookie с токеном
func LogoutHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.LogoutHandler"))

		http.SetCookie(w, &http.Cookie{
			Name:     jwtmiddleware.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "logged out"})
	}
}
