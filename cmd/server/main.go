package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"github.com/linemk/shop/internal/access"
	"github.com/linemk/shop/internal/app"
	"github.com/linemk/shop/internal/app/handlers"
	"github.com/linemk/shop/internal/config"
	"github.com/linemk/shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop/internal/lib/logger"
	"github.com/linemk/shop/internal/lib/logger/handlers/urllog"
	"github.com/linemk/shop/internal/service"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.Close()

	router := newRouter(log, cfg, application.Services)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}

func newRouter(log *slog.Logger, cfg *config.Config, svc *app.Services) http.Handler {
	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.URLFormat)
	// токен необязателен: без него запрос обрабатывается как анонимный
	router.Use(jwtmiddleware.NewJWTMiddleware(cfg.JWT.Secret))
	router.Use(access.LoginURL(cfg.Shop.LoginURL))

	// открытые маршруты
	router.Get("/", http.RedirectHandler("/products_list", http.StatusFound).ServeHTTP)
	router.Post("/register", handlers.RegisterHandler(log, svc.Auth))
	router.Post("/login", handlers.LoginHandler(log, svc.Auth, cfg.JWT.TTL()))
	router.Post("/logout", handlers.LogoutHandler(log))
	router.Get("/products_list", handlers.ProductsListHandler(log, svc.Search))
	router.Get("/product_search", handlers.SearchHandler(log, svc.Search))
	router.Get("/detail_product/{id}", handlers.ProductDetailHandler(log, svc.Catalog))
	router.Get("/brands_list", handlers.BrandsListHandler(log, svc.Catalog))

	// маршруты для вошедших пользователей
	router.Group(func(r chi.Router) {
		r.Use(access.Require(log, access.LoginRequired()))

		r.Post("/add_comment/{product_id}", handlers.AddCommentHandler(log, svc.Comment))
		r.Get("/update_comment/{id}", handlers.OwnCommentHandler(log, svc.Comment))
		r.Post("/update_comment/{id}", handlers.UpdateCommentHandler(log, svc.Comment))
		r.Get("/delete_comment/{id}", handlers.OwnCommentHandler(log, svc.Comment))
		r.Post("/delete_comment/{id}", handlers.DeleteCommentHandler(log, svc.Comment))

		r.Post("/add_to_cart/{product_id}", handlers.AddToCartHandler(log, svc.Cart))
		r.Get("/cart", handlers.CartHandler(log, svc.Cart))

		r.Post("/create_order", handlers.CreateOrderHandler(log, svc.Order))
		r.Get("/order_list", handlers.OrderListHandler(log, svc.Order))
		r.Get("/order_detail/{id}", handlers.OrderDetailHandler(log, svc.Order))
	})

	// управление каталогом, нужны отдельные права
	perm := func(codename string) func(http.Handler) http.Handler {
		return access.Require(log, access.PermissionRequired(svc.Auth, codename))
	}

	router.Group(func(r chi.Router) {
		r.Use(perm(service.PermAddBrand))
		r.Get("/add_brand", handlers.BrandFormHandler(log))
		r.Post("/add_brand", handlers.AddBrandHandler(log, svc.Catalog))
	})
	router.Group(func(r chi.Router) {
		r.Use(perm(service.PermChangeBrand))
		r.Get("/update_brand/{id}", handlers.GetBrandHandler(log, svc.Catalog))
		r.Post("/update_brand/{id}", handlers.UpdateBrandHandler(log, svc.Catalog))
	})
	router.Group(func(r chi.Router) {
		r.Use(perm(service.PermDeleteBrand))
		r.Get("/delete_brand/{id}", handlers.GetBrandHandler(log, svc.Catalog))
		r.Post("/delete_brand/{id}", handlers.DeleteBrandHandler(log, svc.Catalog))
	})

	router.Group(func(r chi.Router) {
		r.Use(perm(service.PermAddProduct))
		r.Get("/add_product", handlers.ProductFormHandler(log, svc.Catalog))
		r.Post("/add_product", handlers.AddProductHandler(log, svc.Catalog))
	})
	router.Group(func(r chi.Router) {
		r.Use(perm(service.PermChangeProduct))
		r.Get("/update_product/{id}", handlers.ProductDetailHandler(log, svc.Catalog))
		r.Post("/update_product/{id}", handlers.UpdateProductHandler(log, svc.Catalog))
	})
	router.Group(func(r chi.Router) {
		r.Use(perm(service.PermDeleteProduct))
		r.Get("/delete_product/{id}", handlers.ProductDetailHandler(log, svc.Catalog))
		r.Post("/delete_product/{id}", handlers.DeleteProductHandler(log, svc.Catalog))
	})

	return router
}
