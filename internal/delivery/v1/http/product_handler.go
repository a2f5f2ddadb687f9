package http

import (
	"net/http"

	"github.com/DRSN-tech/catalog-enricher/internal/usecase"
	"github.com/DRSN-tech/catalog-enricher/pkg/logger"
)

// Лимит "похожих" и "связанных" товаров по умолчанию — как на витрине
const defaultRelatedLimit = 3

type ProductHandler struct {
	catalogUC usecase.CatalogUC
	logger    logger.Logger
}

func NewProductHandler(catalogUC usecase.CatalogUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{catalogUC: catalogUC, logger: logger}
}

// getProducts
//
//	@Summary		Список товаров каталога
//	@Description	Возвращает все обогащённые товары
//	@Tags			products
//	@Produce		json
//	@Success		200	{array}		usecase.ProductInfo
//	@Failure		500	{object}	ErrorResponse
//	@Router			/products [get]
func (p *ProductHandler) getProducts(w http.ResponseWriter, r *http.Request) {
	products, err := p.catalogUC.GetProducts(r.Context())
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, products)
}

// getProduct
//
//	@Summary		Товар по идентификатору
//	@Tags			products
//	@Produce		json
//	@Param			id	path		int	true	"Идентификатор товара"
//	@Success		200	{object}	usecase.ProductInfo
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	product, err := p.catalogUC.GetProduct(r.Context(), id)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, product)
}

// getRelated
//
//	@Summary		Товары той же категории
//	@Description	Возвращает товары из категории запрошенного, исключая его самого
//	@Tags			products
//	@Produce		json
//	@Param			id		path		int	true	"Идентификатор товара"
//	@Param			limit	query		int	false	"Максимум записей"
//	@Success		200		{array}		usecase.ProductInfo
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/products/{id}/related [get]
func (p *ProductHandler) getRelated(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	related, err := p.catalogUC.GetRelated(r.Context(), id, parseLimit(r, defaultRelatedLimit))
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, related)
}

// getSimilar
//
//	@Summary		Похожие товары по эмбеддингу
//	@Description	Возвращает ближайшие по вектору описания товары
//	@Tags			products
//	@Produce		json
//	@Param			id		path		int	true	"Идентификатор товара"
//	@Param			limit	query		int	false	"Максимум записей"
//	@Success		200		{array}		usecase.ProductInfo
//	@Failure		400		{object}	ErrorResponse
//	@Router			/products/{id}/similar [get]
func (p *ProductHandler) getSimilar(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	similar, err := p.catalogUC.GetSimilar(r.Context(), id, parseLimit(r, defaultRelatedLimit))
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, similar)
}
