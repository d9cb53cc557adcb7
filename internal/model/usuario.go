package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RolAdministrador = "administrador"
	RolVendedor      = "vendedor"
	RolEstoquista    = "estoquista"
)

// Usuario stores system users with role-based access.
// Saldo is the spendable balance debited by every completed quick sale.
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"not null"`
	Email        *string
	PasswordHash string          `gorm:"not null"`
	Rol          string          `gorm:"type:varchar(20);not null"`
	Saldo        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Activo       bool            `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *Usuario) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
