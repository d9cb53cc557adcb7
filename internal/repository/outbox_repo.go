package repository

import (
	"context"
	"time"

	"ventarapida/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutboxRepository interface {
	CreateTx(tx *gorm.DB, e *model.EventoOutbox) error
	// ListPendientes returns unpublished events that failed fewer than
	// maxIntentos times, oldest first.
	ListPendientes(ctx context.Context, limit, maxIntentos int) ([]model.EventoOutbox, error)
	MarcarPublicado(ctx context.Context, id uuid.UUID, en time.Time) error
	IncrementarIntentos(ctx context.Context, id uuid.UUID) error
	ContarPendientes(ctx context.Context) (int64, error)
}

type outboxRepo struct{ db *gorm.DB }

func NewOutboxRepository(db *gorm.DB) OutboxRepository { return &outboxRepo{db: db} }

func (r *outboxRepo) CreateTx(tx *gorm.DB, e *model.EventoOutbox) error {
	return tx.Create(e).Error
}

func (r *outboxRepo) ListPendientes(ctx context.Context, limit, maxIntentos int) ([]model.EventoOutbox, error) {
	var eventos []model.EventoOutbox
	err := r.db.WithContext(ctx).
		Where("publicado = ? AND intentos < ?", false, maxIntentos).
		Order("created_at ASC").Limit(limit).
		Find(&eventos).Error
	return eventos, err
}

func (r *outboxRepo) MarcarPublicado(ctx context.Context, id uuid.UUID, en time.Time) error {
	return r.db.WithContext(ctx).Model(&model.EventoOutbox{}).Where("id = ?", id).
		Updates(map[string]interface{}{"publicado": true, "publicado_en": en}).Error
}

func (r *outboxRepo) IncrementarIntentos(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.EventoOutbox{}).Where("id = ?", id).
		Update("intentos", gorm.Expr("intentos + 1")).Error
}

func (r *outboxRepo) ContarPendientes(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.EventoOutbox{}).
		Where("publicado = ?", false).Count(&n).Error
	return n, err
}
