// Package stock holds the pure inventory rules: derived pricing, change
// detection and the ledger entry produced by every product save.
package stock

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimales is the scale of every monetary amount and quantity.
const Decimales = 2

var cien = decimal.NewFromInt(100)

// Redondear rounds to two decimal places, half to even, the same way the
// amounts are stored.
func Redondear(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(Decimales)
}

// CalcularPrecioVenta returns round(costo * (1 + margen/100), 2).
func CalcularPrecioVenta(costo, margenPct decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(margenPct.Div(cien))
	return Redondear(costo.Mul(factor))
}

// ParseMonto parses a user-supplied amount. Blank input is zero.
func ParseMonto(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrValorInvalido, s)
	}
	return d, nil
}

// ParseCantidad parses a quantity. Unlike ParseMonto, blank input is rejected.
func ParseCantidad(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, fmt.Errorf("%w: cantidad vacia", ErrValorInvalido)
	}
	return ParseMonto(s)
}

func formatear(d decimal.Decimal) string {
	return d.StringFixed(Decimales)
}
