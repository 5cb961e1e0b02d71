package app

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/linemk/shop/internal/config"
	"github.com/linemk/shop/internal/service"
	"github.com/linemk/shop/internal/storage"
)

// Services - все сервисы приложения, собранные поверх одного пула соединений
type Services struct {
	Auth    service.AuthServiceInterface
	Catalog service.CatalogService
	Search  service.SearchService
	Comment service.CommentService
	Cart    service.CartService
	Order   service.OrderService
}

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *sql.DB
	Services *Services
}

// NewApp создаёт новый экземпляр App
func NewApp(log *slog.Logger, cfg *config.Config) (*App, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	app := &App{
		Config:   cfg,
		Logger:   log,
		DB:       db,
		Services: NewServices(log, db, cfg),
	}

	return app, nil
}

// NewServices создаёт репозитории и сервисы
func NewServices(log *slog.Logger, db *sql.DB, cfg *config.Config) *Services {
	userRepo := storage.NewUserRepository(db)
	brandRepo := storage.NewBrandRepository(db)
	productRepo := storage.NewProductRepository(db)
	commentRepo := storage.NewCommentRepository(db)
	cartRepo := storage.NewCartRepository(db)
	orderRepo := storage.NewOrderRepository(db)

	return &Services{
		Auth:    service.NewAuthService(log, userRepo, cfg.JWT.Secret, cfg.JWT.TTL()),
		Catalog: service.NewCatalogService(log, db, brandRepo, productRepo, commentRepo, cartRepo, orderRepo),
		Search:  service.NewSearchService(log, productRepo, cfg.Shop.PageSize),
		Comment: service.NewCommentService(log, commentRepo, productRepo),
		Cart:    service.NewCartService(log, db, cartRepo, productRepo),
		Order:   service.NewOrderService(log, db, cartRepo, orderRepo),
	}
}

// Close закрывает пул соединений
func (a *App) Close() error {
	return a.DB.Close()
}
