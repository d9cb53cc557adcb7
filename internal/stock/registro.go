package stock

import (
	"fmt"
	"strings"

	"ventarapida/internal/model"
)

const (
	notaAlta = "Alta inicial del producto"
)

// Aplicar recomputes the derived sale price of p and returns the ledger entry
// the save must append, or nil when no tracked field changed.
//
// p must already carry the new values; c.Anterior the old ones.
func Aplicar(p *model.Producto, c Cambio) *model.MovimientoStock {
	p.PrecioVenta = CalcularPrecioVenta(p.PrecioCosto, p.MargenPct)
	if c.UsuarioID != nil {
		p.UsuarioID = c.UsuarioID
	}

	if c.Intencion == Alta {
		return nuevoMovimiento(p, c, model.MovimientoEntrada, notaAlta)
	}
	ant := c.Anterior
	if ant == nil {
		return nil
	}

	if c.Intencion == Recuento {
		if p.Cantidad.Equal(ant.Cantidad) {
			return nil
		}
		nota := fmt.Sprintf("Ajuste de inventario: %s → %s", formatear(ant.Cantidad), formatear(p.Cantidad))
		return nuevoMovimiento(p, c, model.MovimientoAjuste, nota)
	}

	tipo := model.MovimientoAjuste
	var notas []string

	if !p.Cantidad.Equal(ant.Cantidad) {
		delta := p.Cantidad.Sub(ant.Cantidad)
		if delta.IsPositive() {
			tipo = model.MovimientoEntrada
		} else {
			tipo = model.MovimientoSalida
		}
		notas = append(notas, "Cantidad alterada en "+formatear(delta.Abs()))
	}
	if !p.PrecioCosto.Equal(ant.PrecioCosto) {
		notas = append(notas, "Costo alterado a $ "+formatear(p.PrecioCosto))
	}
	if p.Proveedor != ant.Proveedor {
		notas = append(notas, "Proveedor alterado a "+p.Proveedor)
	}
	if p.DireccionDeposito != ant.DireccionDeposito {
		notas = append(notas, "Direccion alterada a "+p.DireccionDeposito)
	}
	if len(notas) == 0 {
		return nil
	}

	if c.ReferenciaID != nil {
		switch c.Intencion {
		case Venta:
			notas = append(notas, "Venta "+c.ReferenciaID.String())
		case Anulacion:
			notas = append(notas, "Anulacion venta "+c.ReferenciaID.String())
		}
	}
	return nuevoMovimiento(p, c, tipo, strings.Join(notas, ". "))
}

func nuevoMovimiento(p *model.Producto, c Cambio, tipo, nota string) *model.MovimientoStock {
	return &model.MovimientoStock{
		ProductoID:        p.ID,
		Tipo:              tipo,
		Cantidad:          p.Cantidad,
		PrecioCosto:       p.PrecioCosto,
		Proveedor:         p.Proveedor,
		DireccionDeposito: p.DireccionDeposito,
		Observacion:       nota,
		UsuarioID:         c.UsuarioID,
		ReferenciaID:      c.ReferenciaID,
	}
}
