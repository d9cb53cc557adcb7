package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	VentaAbierta    = "abierta"
	VentaCompletada = "completada"
	VentaCancelada  = "cancelada"
)

// Venta is a quick sale. Total and CostoTotal are written once, at completion.
type Venta struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UsuarioID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClienteID       *uuid.UUID      `gorm:"type:uuid;index"`
	FormaPago       string          `gorm:"type:varchar(10);not null"` // "efectivo" | "debito" | "credito" | "pix" | "boleto"
	Estado          string          `gorm:"type:varchar(12);not null;index"`
	Descuento       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostoTotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Observaciones   string          `gorm:"type:text"`
	MotivoAnulacion *string
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time

	Items   []VentaItem `gorm:"foreignKey:VentaID"`
	Usuario *Usuario    `gorm:"foreignKey:UsuarioID"`
	Cliente *Cliente    `gorm:"foreignKey:ClienteID"`
}

func (Venta) TableName() string { return "ventas" }

func (v *Venta) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// VentaItem is one line of a sale. PrecioUnitario is the price captured when
// the product was put in the cart, not the price at completion.
type VentaItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VentaID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Cantidad       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID;constraint:OnDelete:RESTRICT"`
}

func (VentaItem) TableName() string { return "venta_items" }

func (i *VentaItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i VentaItem) Subtotal() decimal.Decimal {
	return i.Cantidad.Mul(i.PrecioUnitario).RoundBank(2)
}
