package access_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linemk/shop/internal/access"
	"github.com/linemk/shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop/internal/lib/logger"
	"github.com/linemk/shop/internal/service"
)

type fakeChecker struct {
	allowed bool
	err     error
	got     []string
}

func (f *fakeChecker) HasPermissions(ctx context.Context, userID int64, codenames ...string) (bool, error) {
	f.got = codenames
	return f.allowed, f.err
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(t *testing.T, handler http.Handler, target string, userID int64) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if userID != 0 {
		req = req.WithContext(jwtmiddleware.WithUserID(req.Context(), userID))
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestRequire_LoginRequired(t *testing.T) {
	handler := access.Require(logger.NewDiscard(), access.LoginRequired())(okHandler)

	rr := serve(t, handler, "/cart", 1)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(t, handler, "/cart", 0)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/login?next=%2Fcart", rr.Header().Get("Location"))
}

func TestRequire_RedirectKeepsQuery(t *testing.T) {
	handler := access.LoginURL("/accounts/login")(
		access.Require(logger.NewDiscard(), access.LoginRequired())(okHandler),
	)

	rr := serve(t, handler, "/order_detail/5?x=1", 0)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/accounts/login?next=%2Forder_detail%2F5%3Fx%3D1", rr.Header().Get("Location"))
}

func TestRequire_PermissionRequired(t *testing.T) {
	tests := []struct {
		name     string
		userID   int64
		checker  *fakeChecker
		wantCode int
	}{
		{name: "granted", userID: 1, checker: &fakeChecker{allowed: true}, wantCode: http.StatusOK},
		{name: "missing permission", userID: 1, checker: &fakeChecker{allowed: false}, wantCode: http.StatusForbidden},
		{name: "anonymous", userID: 0, checker: &fakeChecker{allowed: true}, wantCode: http.StatusFound},
		{
			name:     "deleted user",
			userID:   1,
			checker:  &fakeChecker{err: fmt.Errorf("op: %w", service.ErrNotAuthenticated)},
			wantCode: http.StatusFound,
		},
		{name: "storage failure", userID: 1, checker: &fakeChecker{err: errors.New("db down")}, wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := access.PermissionRequired(tt.checker, service.PermAddBrand)
			handler := access.Require(logger.NewDiscard(), rule)(okHandler)

			rr := serve(t, handler, "/add_brand", tt.userID)
			assert.Equal(t, tt.wantCode, rr.Code)
		})
	}
}

func TestRequire_StopsAtFirstDenial(t *testing.T) {
	checker := &fakeChecker{allowed: true}
	handler := access.Require(logger.NewDiscard(),
		access.LoginRequired(),
		access.PermissionRequired(checker, service.PermDeleteProduct),
	)(okHandler)

	rr := serve(t, handler, "/delete_product/1", 0)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Nil(t, checker.got, "permission check must not run for anonymous user")

	rr = serve(t, handler, "/delete_product/1", 3)
	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, checker.got, 1)
	assert.Equal(t, service.PermDeleteProduct, checker.got[0])
}

func TestRuleFunc(t *testing.T) {
	rule := access.RuleFunc(func(r *http.Request) (access.Decision, error) {
		return access.Forbidden, nil
	})

	rr := serve(t, access.Require(logger.NewDiscard(), rule)(okHandler), "/", 1)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "forbidden", access.Forbidden.String())
}
