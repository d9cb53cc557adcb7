package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cliente is an optional customer attached to a sale.
type Cliente struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre        string    `gorm:"not null"`
	Documento     string    `gorm:"type:varchar(18);uniqueIndex;not null"` // CPF or CNPJ
	Tipo          string    `gorm:"type:varchar(2);not null"`              // "PF" | "PJ"
	Email         string
	Telefono      string `gorm:"type:varchar(20)"`
	Observaciones string `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (c *Cliente) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
