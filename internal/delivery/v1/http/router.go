package http

import (
	_ "github.com/DRSN-tech/catalog-enricher/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/catalog-enricher/internal/usecase"
	"github.com/DRSN-tech/catalog-enricher/pkg/logger"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(catalogUC usecase.CatalogUC) {
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		handler := NewProductHandler(catalogUC, r.logger)
		registerProductRoutes(v1, handler)
	})
}

func registerProductRoutes(router chi.Router, handler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", handler.getProducts)
		pr.Get("/{id}", handler.getProduct)
		pr.Get("/{id}/related", handler.getRelated)
		pr.Get("/{id}/similar", handler.getSimilar)
	})
}
