package repository

import (
	"context"
	"time"

	"ventarapida/internal/dto"
	"ventarapida/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VentaRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error)

	CreateTx(tx *gorm.DB, v *model.Venta) error
	CreateItemsTx(tx *gorm.DB, items []model.VentaItem) error
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Venta, error)
	AnularTx(tx *gorm.DB, id uuid.UUID, motivo string) error
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) CreateTx(tx *gorm.DB, v *model.Venta) error {
	return tx.Omit(clause.Associations).Create(v).Error
}

func (r *ventaRepo) CreateItemsTx(tx *gorm.DB, items []model.VentaItem) error {
	if len(items) == 0 {
		return nil
	}
	return tx.Omit(clause.Associations).Create(&items).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).
		Preload("Items.Producto").Preload("Usuario").Preload("Cliente").
		First(&v, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ventaRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&v, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := tx.Where("venta_id = ?", id).Find(&v.Items).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ventaRepo) AnularTx(tx *gorm.DB, id uuid.UUID, motivo string) error {
	return tx.Model(&model.Venta{}).Where("id = ?", id).Updates(map[string]interface{}{
		"estado":           model.VentaCancelada,
		"motivo_anulacion": motivo,
	}).Error
}

func (r *ventaRepo) List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	var ventas []model.Venta
	var total int64

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Venta{})

	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.Fecha != "" {
		dia, err := time.ParseInLocation("2006-01-02", filter.Fecha, time.Local)
		if err != nil {
			return nil, 0, err
		}
		q = q.Where("created_at >= ? AND created_at < ?", dia, dia.AddDate(0, 0, 1))
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items.Producto").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&ventas).Error

	return ventas, total, err
}
