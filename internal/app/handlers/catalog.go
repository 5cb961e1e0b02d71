package handlers

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/linemk/shop/internal/domain/models"
	"github.com/linemk/shop/internal/service"
)

// BrandRequest - форма бренда
type BrandRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// ProductRequest - форма товара; for_whom можно не указывать
type ProductRequest struct {
	BrandID     int64           `json:"brand_id" validate:"required,gt=0"`
	Name        string          `json:"name" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
	ForWhom     models.Category `json:"for_whom" validate:"omitempty,min=1,max=3"`
	Description string          `json:"description"`
}

func (req ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		BrandID:     req.BrandID,
		Name:        req.Name,
		Price:       req.Price,
		Category:    req.ForWhom,
		Description: req.Description,
	}
}

// BrandsListHandler - GET /brands_list
func BrandsListHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.BrandsListHandler"))

		brands, err := catalog.ListBrands(r.Context())
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, brands)
	}
}

// AddBrandHandler - POST /add_brand
func AddBrandHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.AddBrandHandler"))

		var req BrandRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		brand, err := catalog.CreateBrand(r.Context(), service.BrandInput{Name: req.Name})
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, brand)
	}
}

// BrandFormHandler - GET /add_brand: пустая форма
func BrandFormHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.BrandFormHandler"))
		writeJSON(w, logger, http.StatusOK, BrandRequest{})
	}
}

// GetBrandHandler - GET /update_brand/{id} и /delete_brand/{id}, текущие значения для формы
func GetBrandHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.GetBrandHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		brand, err := catalog.GetBrand(r.Context(), id)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, brand)
	}
}

// UpdateBrandHandler - POST /update_brand/{id}
func UpdateBrandHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.UpdateBrandHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var req BrandRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		brand, err := catalog.UpdateBrand(r.Context(), id, service.BrandInput{Name: req.Name})
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, brand)
	}
}

// DeleteBrandHandler - POST /delete_brand/{id}
func DeleteBrandHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.DeleteBrandHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		if err := catalog.DeleteBrand(r.Context(), id); err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "brand deleted"})
	}
}

// ProductDetailHandler - GET /detail_product/{id}: товар и отзывы
func ProductDetailHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.ProductDetailHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		detail, err := catalog.GetProduct(r.Context(), id)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, detail)
	}
}

// ProductFormResponse - пустая форма товара и бренды для выбора
type ProductFormResponse struct {
	Form   ProductRequest  `json:"form"`
	Brands []*models.Brand `json:"brands"`
}

// ProductFormHandler - GET /add_product
func ProductFormHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.ProductFormHandler"))

		brands, err := catalog.ListBrands(r.Context())
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, ProductFormResponse{
			Form:   ProductRequest{ForWhom: models.CategoryUnisex},
			Brands: brands,
		})
	}
}

// AddProductHandler - POST /add_product
func AddProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.AddProductHandler"))

		var req ProductRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		product, err := catalog.CreateProduct(r.Context(), req.input())
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, product)
	}
}

// UpdateProductHandler - POST /update_product/{id}
func UpdateProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.UpdateProductHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var req ProductRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		product, err := catalog.UpdateProduct(r.Context(), id, req.input())
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, product)
	}
}

// DeleteProductHandler - POST /delete_product/{id}
func DeleteProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.DeleteProductHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		if err := catalog.DeleteProduct(r.Context(), id); err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "product deleted"})
	}
}
