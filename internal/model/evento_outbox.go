package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventoVentaCompletada = "venta.completada"
	EventoVentaCancelada  = "venta.cancelada"
)

// EventoOutbox is written in the same transaction as the sale it describes
// and later relayed to the message broker by the outbox publisher.
type EventoOutbox struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Tipo        string         `gorm:"type:varchar(40);not null"`
	AgregadoID  uuid.UUID      `gorm:"type:uuid;not null;index"`
	Payload     datatypes.JSON `gorm:"not null"`
	Publicado   bool           `gorm:"not null;index"`
	Intentos    int            `gorm:"not null"`
	PublicadoEn *time.Time
	CreatedAt   time.Time `gorm:"index"`
}

func (EventoOutbox) TableName() string { return "eventos_outbox" }

func (e *EventoOutbox) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
