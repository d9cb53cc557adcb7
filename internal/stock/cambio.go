package stock

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ventarapida/internal/model"
)

// Intencion tells the recorder why a product is being saved.
type Intencion int

const (
	Alta Intencion = iota + 1
	Edicion
	Ingreso
	Recuento
	Venta
	Anulacion
)

func (i Intencion) String() string {
	switch i {
	case Alta:
		return "alta"
	case Edicion:
		return "edicion"
	case Ingreso:
		return "ingreso"
	case Recuento:
		return "recuento"
	case Venta:
		return "venta"
	case Anulacion:
		return "anulacion"
	}
	return "desconocida"
}

// Snapshot holds the tracked fields of a product as they were before the
// mutation. Only these fields produce ledger entries.
type Snapshot struct {
	Cantidad          decimal.Decimal
	PrecioCosto       decimal.Decimal
	Proveedor         string
	DireccionDeposito string
}

func SnapshotDe(p *model.Producto) *Snapshot {
	return &Snapshot{
		Cantidad:          p.Cantidad,
		PrecioCosto:       p.PrecioCosto,
		Proveedor:         p.Proveedor,
		DireccionDeposito: p.DireccionDeposito,
	}
}

// Cambio describes one product save. Anterior is nil only for Alta.
type Cambio struct {
	Intencion    Intencion
	Anterior     *Snapshot
	UsuarioID    *uuid.UUID
	ReferenciaID *uuid.UUID
}

// NuevoAlta describes the creation of a product.
func NuevoAlta(usuarioID *uuid.UUID) Cambio {
	return Cambio{Intencion: Alta, UsuarioID: usuarioID}
}

// NuevoCambio snapshots p before the caller mutates it.
func NuevoCambio(intencion Intencion, p *model.Producto, usuarioID *uuid.UUID) Cambio {
	return Cambio{Intencion: intencion, Anterior: SnapshotDe(p), UsuarioID: usuarioID}
}

// ConReferencia links the resulting movement to a sale.
func (c Cambio) ConReferencia(id uuid.UUID) Cambio {
	c.ReferenciaID = &id
	return c
}
