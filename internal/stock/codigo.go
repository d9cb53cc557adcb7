package stock

import (
	"fmt"
	"strconv"
)

// LargoCodigo is the width of a product code.
const LargoCodigo = 6

const codigoMaximo = 999999

// SiguienteCodigo returns the code following ultimo, zero-padded to six
// digits. An empty ultimo means no product exists yet. Past 999999 it
// returns ErrCodigosAgotados.
func SiguienteCodigo(ultimo string) (string, error) {
	if ultimo == "" {
		return fmt.Sprintf("%0*d", LargoCodigo, 1), nil
	}
	n, err := strconv.Atoi(ultimo)
	if err != nil {
		return "", fmt.Errorf("codigo de producto invalido %q: %w", ultimo, err)
	}
	if n+1 > codigoMaximo {
		return "", ErrCodigosAgotados
	}
	return fmt.Sprintf("%0*d", LargoCodigo, n+1), nil
}

// CodigoValido reports whether s has the shape of a product code.
func CodigoValido(s string) bool {
	if len(s) != LargoCodigo {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
