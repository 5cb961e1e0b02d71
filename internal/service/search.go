package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/shop/internal/domain/models"
	"github.com/linemk/shop/internal/storage"
)

// ProductPage - одна страница списка товаров
type ProductPage struct {
	Number   int               `json:"page"`
	NumPages int               `json:"num_pages"`
	Count    int               `json:"count"`
	Results  []*models.Product `json:"results"`
}

// SearchService отдаёт постраничные списки товаров.
type SearchService interface {
	// ListProducts возвращает страницу каталога, нумерация с 1.
	ListProducts(ctx context.Context, page int) (*ProductPage, error)
	// Search ищет товары по подстроке названия без учёта регистра.
	// Пустой запрос возвращает пустой результат, а не весь каталог.
	Search(ctx context.Context, query string, page int) (*ProductPage, error)
}

type searchService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
	pageSize    int
}

func NewSearchService(log *slog.Logger, productRepo storage.ProductStorage, pageSize int) SearchService {
	return &searchService{
		log:         log,
		productRepo: productRepo,
		pageSize:    pageSize,
	}
}

// paginate возвращает смещение и число страниц. Первая страница существует всегда,
// даже если элементов нет.
func paginate(number, count, size int) (offset, numPages int, err error) {
	numPages = (count + size - 1) / size
	if numPages == 0 {
		numPages = 1
	}
	if number < 1 || number > numPages {
		return 0, 0, fmt.Errorf("%w: invalid page %d", ErrNotFound, number)
	}
	return (number - 1) * size, numPages, nil
}

func (s *searchService) ListProducts(ctx context.Context, page int) (*ProductPage, error) {
	const op = "service.SearchService.ListProducts"
	logger := s.log.With(slog.String("op", op), slog.Int("page", page))

	count, err := s.productRepo.CountProducts(ctx)
	if err != nil {
		logger.Error("failed to count products", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	offset, numPages, err := paginate(page, count, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	products, err := s.productRepo.ListProducts(ctx, s.pageSize, offset)
	if err != nil {
		logger.Error("failed to list products", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &ProductPage{Number: page, NumPages: numPages, Count: count, Results: products}, nil
}

func (s *searchService) Search(ctx context.Context, query string, page int) (*ProductPage, error) {
	const op = "service.SearchService.Search"
	logger := s.log.With(slog.String("op", op), slog.String("query", query), slog.Int("page", page))

	if query == "" {
		return &ProductPage{Number: 1, NumPages: 1, Count: 0, Results: []*models.Product{}}, nil
	}

	count, err := s.productRepo.CountSearchProducts(ctx, query)
	if err != nil {
		logger.Error("failed to count products", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	offset, numPages, err := paginate(page, count, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	products, err := s.productRepo.SearchProducts(ctx, query, s.pageSize, offset)
	if err != nil {
		logger.Error("failed to search products", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Debug("search completed", slog.Int("count", count))
	return &ProductPage{Number: page, NumPages: numPages, Count: count, Results: products}, nil
}
