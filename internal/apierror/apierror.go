// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// Machine-readable codes for business-rule rejections. Clients branch on
// these instead of parsing Detail.
const (
	CodigoStockInsuficiente = "stock_insuficiente"
	CodigoDescuentoExcedido = "descuento_excedido"
	CodigoSaldoInsuficiente = "saldo_insuficiente"
	CodigoConflicto         = "conflicto"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Codigo string `json:"codigo,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// NewCodigo is New with a machine-readable code.
func NewCodigo(codigo, msg string) *APIError {
	return &APIError{Detail: msg, Codigo: codigo}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}
