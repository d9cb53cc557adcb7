package stock

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ── Validation ──────────────────────────────────────────────────────────────

var (
	ErrValorInvalido       = errors.New("valor numerico invalido")
	ErrCantidadNegativa    = errors.New("la cantidad no puede ser negativa")
	ErrCantidadNoPositiva  = errors.New("informe una cantidad mayor que cero")
	ErrPrecioCostoInvalido = errors.New("el precio de costo debe ser mayor que cero")
	ErrDescuentoNegativo   = errors.New("el descuento no puede ser negativo")
	ErrCarritoVacio        = errors.New("el carrito esta vacio")
)

// ── Not found ───────────────────────────────────────────────────────────────

var (
	ErrProductoNoEncontrado = errors.New("producto no encontrado")
	ErrVentaNoEncontrada    = errors.New("venta no encontrada")
	ErrClienteNoEncontrado  = errors.New("cliente no encontrado")
	ErrUsuarioNoEncontrado  = errors.New("usuario no encontrado")
)

// ── Business rules ──────────────────────────────────────────────────────────

var (
	ErrStockNegativo        = errors.New("la cantidad en stock no puede quedar negativa")
	ErrConflictoConcurrente = errors.New("el producto fue modificado por otra operacion, intente nuevamente")
	ErrVentaNoAnulable      = errors.New("solo se pueden anular ventas completadas")
	ErrDocumentoDuplicado   = errors.New("ya existe un cliente con ese documento")
	ErrCodigosAgotados      = errors.New("no quedan codigos de producto disponibles")
)

// DescuentoExcedidoError means the discount is larger than the margin
// available in the cart.
type DescuentoExcedidoError struct {
	Maximo decimal.Decimal
}

func (e *DescuentoExcedidoError) Error() string {
	return fmt.Sprintf("Descuento maximo permitido: $ %s", formatear(e.Maximo))
}

// StockInsuficienteError names the first product that cannot cover its line.
type StockInsuficienteError struct {
	Producto string
}

func (e *StockInsuficienteError) Error() string {
	return "Stock insuficiente: " + e.Producto
}

// SaldoInsuficienteError carries the amount the user would need to pay.
type SaldoInsuficienteError struct {
	Requerido decimal.Decimal
}

func (e *SaldoInsuficienteError) Error() string {
	return fmt.Sprintf("Saldo insuficiente: $ %s", formatear(e.Requerido))
}
