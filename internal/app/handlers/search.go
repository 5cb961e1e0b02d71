package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/linemk/shop/internal/service"
)

// SearchResponse - страница результатов поиска вместе с запросом
type SearchResponse struct {
	Query string `json:"q"`
	*service.ProductPage
}

// ProductsListHandler - GET /products_list?page=N
func ProductsListHandler(log *slog.Logger, search service.SearchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.ProductsListHandler"))

		page, err := pageParam(r)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		result, err := search.ListProducts(r.Context(), page)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, result)
	}
}

// SearchHandler - GET /product_search?q=...&page=N
func SearchHandler(log *slog.Logger, search service.SearchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.SearchHandler"))

		query := strings.TrimSpace(r.URL.Query().Get("q"))
		page, err := pageParam(r)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		result, err := search.Search(r.Context(), query, page)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, SearchResponse{Query: query, ProductPage: result})
	}
}
