package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/DRSN-tech/catalog-enricher/internal/cfg"
	"github.com/DRSN-tech/catalog-enricher/internal/domain"
	"github.com/DRSN-tech/catalog-enricher/pkg/e"
	"github.com/DRSN-tech/catalog-enricher/pkg/logger"
	"github.com/shopspring/decimal"
)

// FileSource читает батч товаров из JSON-документа на диске.
// Документ читается один раз на прогон.
type FileSource struct {
	cfg    *cfg.PipelineCfg
	logger logger.Logger
}

func NewFileSource(cfg *cfg.PipelineCfg, logger logger.Logger) *FileSource {
	return &FileSource{
		cfg:    cfg,
		logger: logger,
	}
}

// Load читает, валидирует и обрезает батч до настроенного лимита.
// Любое нарушение схемы фатально для всего прогона: кривой входной документ
// должен остановить обработку, а не молча выбросить элементы.
func (f *FileSource) Load(ctx context.Context) ([]domain.Product, error) {
	const op = "FileSource.Load"

	data, err := os.ReadFile(f.cfg.DataFile)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	items, err := ParseBatch(data, f.cfg.ItemsField)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(items) > f.cfg.BatchLimit {
		f.logger.Infof("truncating batch from %d to %d items", len(items), f.cfg.BatchLimit)
		items = items[:f.cfg.BatchLimit]
	}

	return items, nil
}

// ParseBatch разбирает документ и проверяет каждый элемент массива по схеме:
// целочисленный id, строковые name/category/description, числовой price.
func ParseBatch(data []byte, itemsField string) ([]domain.Product, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, e.NewSchemaError(-1, fmt.Sprintf("invalid JSON document: %v", err))
	}

	raw, ok := doc[itemsField]
	if !ok {
		return nil, e.NewSchemaError(-1, fmt.Sprintf("document has no %q field", itemsField))
	}

	rawItems, ok := raw.([]any)
	if !ok {
		return nil, e.NewSchemaError(-1, fmt.Sprintf("%q field is not an array", itemsField))
	}

	products := make([]domain.Product, 0, len(rawItems))
	for i, rawItem := range rawItems {
		product, err := parseItem(i, rawItem)
		if err != nil {
			return nil, err
		}

		products = append(products, *product)
	}

	return products, nil
}

func parseItem(index int, raw any) (*domain.Product, error) {
	item, ok := raw.(map[string]any)
	if !ok {
		return nil, e.NewSchemaError(index, "item is not an object")
	}

	id, err := intField(item, "id")
	if err != nil {
		return nil, e.NewSchemaError(index, err.Error())
	}

	name, err := stringField(item, "name")
	if err != nil {
		return nil, e.NewSchemaError(index, err.Error())
	}

	category, err := stringField(item, "category")
	if err != nil {
		return nil, e.NewSchemaError(index, err.Error())
	}

	description, err := stringField(item, "description")
	if err != nil {
		return nil, e.NewSchemaError(index, err.Error())
	}

	price, err := numberField(item, "price")
	if err != nil {
		return nil, e.NewSchemaError(index, err.Error())
	}

	return domain.NewProduct(id, name, category, description, price), nil
}

func intField(item map[string]any, field string) (int64, error) {
	v, ok := item[field]
	if !ok {
		return 0, fmt.Errorf("missing %q field", field)
	}

	num, ok := v.(float64)
	if !ok || num != float64(int64(num)) {
		return 0, fmt.Errorf("%q must be an integer", field)
	}

	return int64(num), nil
}

func stringField(item map[string]any, field string) (string, error) {
	v, ok := item[field]
	if !ok {
		return "", fmt.Errorf("missing %q field", field)
	}

	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%q must be a string", field)
	}

	return s, nil
}

func numberField(item map[string]any, field string) (decimal.Decimal, error) {
	v, ok := item[field]
	if !ok {
		return decimal.Zero, fmt.Errorf("missing %q field", field)
	}

	num, ok := v.(float64)
	if !ok {
		return decimal.Zero, fmt.Errorf("%q must be a number", field)
	}

	return decimal.NewFromFloat(num), nil
}
