package domain

import "github.com/shopspring/decimal"

// Product описывает сырую запись каталога из входного документа.
// После чтения не изменяется.
type Product struct {
	ID          int64
	Name        string
	Category    string
	Description string
	Price       decimal.Decimal
}

func NewProduct(id int64, name, category, description string, price decimal.Decimal) *Product {
	return &Product{
		ID:          id,
		Name:        name,
		Category:    category,
		Description: description,
		Price:       price,
	}
}

// EnrichedProduct — запись каталога после обогащения: исходные поля
// плюс ссылка на изображение и эмбеддинг описания.
type EnrichedProduct struct {
	Product
	ImageURL  string
	Embedding []float32
}

func NewEnrichedProduct(product Product, imageURL string, embedding []float32) *EnrichedProduct {
	return &EnrichedProduct{
		Product:   product,
		ImageURL:  imageURL,
		Embedding: embedding,
	}
}
