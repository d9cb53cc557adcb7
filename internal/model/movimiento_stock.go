package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	MovimientoEntrada = "entrada"
	MovimientoSalida  = "salida"
	MovimientoAjuste  = "ajuste"
)

// MovimientoStock is an append-only ledger row. It is only ever created as a
// side effect of saving a Producto and is never updated or deleted.
type MovimientoStock struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductoID uuid.UUID `gorm:"type:uuid;not null;index"`
	Tipo       string    `gorm:"type:varchar(10);not null"` // "entrada" | "salida" | "ajuste"
	// Cantidad is the product quantity right after the save; the delta lives in Observacion.
	Cantidad          decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PrecioCosto       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Proveedor         string          `gorm:"type:varchar(100)"`
	DireccionDeposito string          `gorm:"type:varchar(255)"`
	Observacion       string          `gorm:"type:text"`
	UsuarioID         *uuid.UUID      `gorm:"type:uuid"`
	ReferenciaID      *uuid.UUID      `gorm:"type:uuid;index"` // venta_id when produced by a sale or its cancellation
	CreatedAt         time.Time       `gorm:"index"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }

func (m *MovimientoStock) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
