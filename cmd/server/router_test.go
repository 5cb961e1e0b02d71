package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linemk/shop/internal/app"
	"github.com/linemk/shop/internal/config"
	"github.com/linemk/shop/internal/domain/models"
	security "github.com/linemk/shop/internal/jwt-new"
	"github.com/linemk/shop/internal/lib/logger"
	"github.com/linemk/shop/internal/service"
)

const testSecret = "router-secret"

// stubAuth выдаёт настоящий токен для userID 1 и права только суперпользователю
type stubAuth struct {
	superuser int64
}

func (s *stubAuth) Register(ctx context.Context, username, password, password2 string) (*models.User, error) {
	return &models.User{ID: 2, Username: username}, nil
}

func (s *stubAuth) Login(ctx context.Context, username, password string) (string, error) {
	if password != "password123" {
		return "", service.ErrInvalidCredentials
	}
	return security.NewToken(&models.User{ID: 1, Username: username}, testSecret, time.Hour)
}

func (s *stubAuth) HasPermissions(ctx context.Context, userID int64, codenames ...string) (bool, error) {
	return userID == s.superuser, nil
}

// Незадействованные методы встроенных интерфейсов не вызываются в этих тестах
type stubCart struct{ service.CartService }

func (stubCart) ViewCart(ctx context.Context, userID int64) (*models.Cart, error) {
	return &models.Cart{ID: 1, UserID: userID}, nil
}

type stubCatalog struct{ service.CatalogService }

func (stubCatalog) CreateBrand(ctx context.Context, in service.BrandInput) (*models.Brand, error) {
	return &models.Brand{ID: 1, Name: in.Name}, nil
}

func (stubCatalog) GetBrand(ctx context.Context, id int64) (*models.Brand, error) {
	return &models.Brand{ID: id, Name: "Acme"}, nil
}

func (stubCatalog) ListBrands(ctx context.Context) ([]*models.Brand, error) {
	return []*models.Brand{{ID: 1, Name: "Acme"}}, nil
}

type stubSearch struct{ service.SearchService }

func (stubSearch) ListProducts(ctx context.Context, page int) (*service.ProductPage, error) {
	return &service.ProductPage{Number: page, NumPages: 1, Results: []*models.Product{}}, nil
}

func newTestServer(t *testing.T, superuser int64) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		JWT:  config.JWTConfig{Secret: testSecret, TokenTTL: 60},
		Shop: config.ShopConfig{PageSize: 10, LoginURL: "/login"},
	}
	services := &app.Services{
		Auth:    &stubAuth{superuser: superuser},
		Catalog: stubCatalog{},
		Search:  stubSearch{},
		Cart:    stubCart{},
	}

	srv := httptest.NewServer(newRouter(logger.NewDiscard(), cfg, services))
	t.Cleanup(srv.Close)
	return srv
}

// noRedirectClient позволяет проверять ответы 302 и 303
func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func login(t *testing.T, srv *httptest.Server) *http.Cookie {
	t.Helper()

	body := bytes.NewBufferString(`{"username": "alice", "password": "password123"}`)
	resp, err := http.Post(srv.URL+"/login", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatal("login did not set token cookie")
	return nil
}

func get(t *testing.T, srv *httptest.Server, path string, cookie *http.Cookie) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := noRedirectClient().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRouter_AnonymousRedirectedToLogin(t *testing.T) {
	srv := newTestServer(t, 0)

	resp := get(t, srv, "/cart", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?next=%2Fcart", resp.Header.Get("Location"))
}

func TestRouter_AnonymousRedirects(t *testing.T) {
	tests := []struct {
		method string
		path   string
		next   string
	}{
		{method: http.MethodGet, path: "/cart", next: "/cart"},
		{method: http.MethodPost, path: "/add_to_cart/5", next: "/add_to_cart/5"},
		{method: http.MethodPost, path: "/create_order", next: "/create_order"},
		{method: http.MethodGet, path: "/order_list", next: "/order_list"},
		{method: http.MethodGet, path: "/order_detail/3", next: "/order_detail/3"},
		{method: http.MethodPost, path: "/add_comment/5", next: "/add_comment/5"},
		{method: http.MethodGet, path: "/update_comment/1", next: "/update_comment/1"},
		{method: http.MethodPost, path: "/delete_comment/1", next: "/delete_comment/1"},
		// завершающий слэш сохраняется в next
		{method: http.MethodGet, path: "/add_brand/", next: "/add_brand/"},
		{method: http.MethodGet, path: "/add_product", next: "/add_product"},
		{method: http.MethodGet, path: "/update_brand/1", next: "/update_brand/1"},
		{method: http.MethodGet, path: "/delete_brand/1", next: "/delete_brand/1"},
		{method: http.MethodGet, path: "/delete_product/1", next: "/delete_product/1"},
		{method: http.MethodPost, path: "/delete_product/1", next: "/delete_product/1"},
	}

	srv := newTestServer(t, 0)
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := noRedirectClient().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, "/login?"+url.Values{"next": {tt.next}}.Encode(), resp.Header.Get("Location"))
		})
	}
}

func TestRouter_CatalogFormsForSuperuser(t *testing.T) {
	srv := newTestServer(t, 1)
	cookie := login(t, srv)

	for _, path := range []string{"/add_brand/", "/add_product", "/update_brand/1", "/delete_brand/1"} {
		resp := get(t, srv, path, cookie)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	// без прав форма недоступна
	srv = newTestServer(t, 0)
	resp := get(t, srv, "/add_brand", login(t, srv))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_CartWithCookie(t *testing.T) {
	srv := newTestServer(t, 0)
	cookie := login(t, srv)

	resp := get(t, srv, "/cart", cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_PublicCatalog(t *testing.T) {
	srv := newTestServer(t, 0)

	resp := get(t, srv, "/products_list", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// завершающий слэш не мешает маршрутизации
	resp = get(t, srv, "/products_list/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, srv, "/", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/products_list", resp.Header.Get("Location"))
}

func TestRouter_CatalogManagementRequiresPermission(t *testing.T) {
	post := func(srv *httptest.Server, cookie *http.Cookie) *http.Response {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/add_brand", bytes.NewBufferString(`{"name": "Acme"}`))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		if cookie != nil {
			req.AddCookie(cookie)
		}
		resp, err := noRedirectClient().Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	// пользователь без прав
	srv := newTestServer(t, 0)
	assert.Equal(t, http.StatusFound, post(srv, nil).StatusCode)
	assert.Equal(t, http.StatusForbidden, post(srv, login(t, srv)).StatusCode)

	// userID 1 - суперпользователь
	srv = newTestServer(t, 1)
	assert.Equal(t, http.StatusCreated, post(srv, login(t, srv)).StatusCode)
}

func TestRouter_LoginFailure(t *testing.T) {
	srv := newTestServer(t, 0)

	body := bytes.NewBufferString(`{"username": "alice", "password": "wrong-password"}`)
	resp, err := http.Post(srv.URL+"/login", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
