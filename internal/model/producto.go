package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Producto is a stock-keeping unit of the store.
// Codigo is assigned once at creation and never edited afterwards.
// PrecioVenta is derived from PrecioCosto and MargenPct on every save
// (see stock.Aplicar); it is never written by callers.
type Producto struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Codigo            string          `gorm:"type:varchar(6);uniqueIndex;not null"`
	Nombre            string          `gorm:"index;not null"`
	Descripcion       string          `gorm:"type:text"`
	PrecioCosto       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	MargenPct         decimal.Decimal `gorm:"type:decimal(6,2);not null"`
	PrecioVenta       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Cantidad          decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CantidadMinima    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	UnidadMedida      string          `gorm:"type:varchar(2);not null"` // "UN" | "KG" | "LT" | "MT"
	Categoria         string          `gorm:"type:varchar(20);index"`   // "fosil" | "artesania" | "mineral" | "otro"
	Proveedor         string          `gorm:"type:varchar(100)"`
	DireccionDeposito string          `gorm:"type:varchar(255)"`
	Activo            bool            `gorm:"not null;index"`
	FechaVencimiento  *time.Time      `gorm:"type:date"`
	// UsuarioID is the last user that saved the product.
	UsuarioID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Producto) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BajoMinimo reports whether the quantity on hand reached the alert threshold.
func (p *Producto) BajoMinimo() bool {
	return p.CantidadMinima.IsPositive() && p.Cantidad.LessThanOrEqual(p.CantidadMinima)
}
