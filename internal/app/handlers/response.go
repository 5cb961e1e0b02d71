package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/linemk/shop/internal/access"
	"github.com/linemk/shop/internal/service"
)

var validate = newValidator()

// newValidator настраивает validator: имена полей берутся из json-тегов,
// decimal.Decimal проверяется как число
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// ErrorResponse - тело ответа с ошибкой валидации
type ErrorResponse struct {
	Errors map[string]string `json:"errors"`
}

// MessageResponse - простой ответ с сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// validationFields переводит ошибки validator в сообщения по полям
func validationFields(err error) map[string]string {
	fields := map[string]string{}

	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		fields["non_field_errors"] = "invalid input"
		return fields
	}

	for _, fe := range vErrs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "this field is required"
		case "max":
			fields[fe.Field()] = fmt.Sprintf("ensure this value has at most %s characters", fe.Param())
		case "gt":
			fields[fe.Field()] = fmt.Sprintf("ensure this value is greater than %s", fe.Param())
		default:
			fields[fe.Field()] = "invalid value"
		}
	}
	return fields
}

// decodingFields описывает ошибку разбора тела в том же виде, что и ошибки валидации
func decodingFields(err error) map[string]string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return map[string]string{typeErr.Field: fmt.Sprintf("expected %s", typeErr.Type)}
	}
	return map[string]string{"non_field_errors": "malformed JSON body"}
}

// decodeAndValidate читает JSON-тело запроса и проверяет его по тегам validate.
// При ошибке ответ уже отправлен.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Info("invalid request: decoding error", slog.Any("error", err))
		writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{Errors: decodingFields(err)})
		return false
	}

	if err := validate.Struct(dst); err != nil {
		logger.Info("invalid request: validation error", slog.Any("error", err))
		writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{Errors: validationFields(err)})
		return false
	}
	return true
}

// writeError выбирает статус ответа по ошибке сервиса
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var vErr *service.ValidationError

	switch {
	case errors.As(err, &vErr):
		writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{Errors: vErr.Fields})
	case errors.Is(err, service.ErrNotAuthenticated):
		access.RedirectToLoginPage(w, r)
	case errors.Is(err, service.ErrInvalidCredentials):
		http.Error(w, "invalid username or password", http.StatusUnauthorized)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, service.ErrConflict):
		http.Error(w, "object is referenced by existing orders", http.StatusConflict)
	default:
		logger.Error("request failed", slog.Any("error", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// idParam извлекает положительный идентификатор из URL
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// pageParam читает номер страницы из query, по умолчанию 1
func pageParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid page %q", service.ErrNotFound, raw)
	}
	return page, nil
}
