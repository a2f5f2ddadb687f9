package e

import "fmt"

var (
	// Ошибки шагов конвейера обогащения
	ErrEmbedFailed   = fmt.Errorf("embedding service error")
	ErrEmptyVector   = fmt.Errorf("embedding vector is empty")
	ErrAssetUpload   = fmt.Errorf("asset upload failed")
	ErrCatalogUpsert = fmt.Errorf("catalog upsert failed")

	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// 400 Bad Request
	ErrInvalidProductID = fmt.Errorf("invalid product id")

	// 404 Not Found
	ErrProductNotFound = fmt.Errorf("product not found")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")

	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// SchemaError описывает нарушение схемы входного документа.
// Index указывает на элемент массива, не прошедший проверку;
// -1 — ошибка уровня документа.
type SchemaError struct {
	Index  int
	Reason string
}

func (s *SchemaError) Error() string {
	if s.Index < 0 {
		return fmt.Sprintf("schema error: %s", s.Reason)
	}
	return fmt.Sprintf("schema error at index %d: %s", s.Index, s.Reason)
}

func NewSchemaError(index int, reason string) *SchemaError {
	return &SchemaError{Index: index, Reason: reason}
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
