// Package carrito holds the quick-sale cart of a session and where it is kept
// between requests.
package carrito

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ventarapida/internal/model"
)

// Linea is one product in the cart. PrecioUnitario is captured when the
// product is first added and is what the customer pays at checkout.
type Linea struct {
	ProductoID     uuid.UUID       `json:"producto_id"`
	Codigo         string          `json:"codigo"`
	Nombre         string          `json:"nombre"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// Carrito keeps lines in the order they were first added.
type Carrito struct {
	Lineas []Linea `json:"lineas"`
}

var uno = decimal.NewFromInt(1)

// Agregar puts one unit of p in the cart. A product already present only
// gets its quantity incremented; its captured price is kept.
func (c *Carrito) Agregar(p *model.Producto) {
	for i := range c.Lineas {
		l := &c.Lineas[i]
		if l.ProductoID == p.ID {
			l.Cantidad = l.Cantidad.Add(uno)
			l.Subtotal = l.Cantidad.Mul(l.PrecioUnitario).RoundBank(2)
			return
		}
	}
	c.Lineas = append(c.Lineas, Linea{
		ProductoID:     p.ID,
		Codigo:         p.Codigo,
		Nombre:         p.Nombre,
		Cantidad:       uno,
		PrecioUnitario: p.PrecioVenta,
		Subtotal:       p.PrecioVenta,
	})
}

// Quitar drops the line of productoID. Unknown ids are ignored.
func (c *Carrito) Quitar(productoID uuid.UUID) {
	for i, l := range c.Lineas {
		if l.ProductoID == productoID {
			c.Lineas = append(c.Lineas[:i], c.Lineas[i+1:]...)
			return
		}
	}
}

func (c *Carrito) Vacio() bool { return len(c.Lineas) == 0 }

// TotalBruto is the sum of line subtotals before discount.
func (c *Carrito) TotalBruto() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lineas {
		total = total.Add(l.Subtotal)
	}
	return total
}
