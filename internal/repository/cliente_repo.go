package repository

import (
	"context"

	"ventarapida/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClienteRepository interface {
	Create(ctx context.Context, c *model.Cliente) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error)
	List(ctx context.Context, q string) ([]model.Cliente, error)
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) Create(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clienteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clienteRepo) List(ctx context.Context, q string) ([]model.Cliente, error) {
	var clientes []model.Cliente
	db := r.db.WithContext(ctx)
	if q != "" {
		like := "%" + q + "%"
		db = db.Where("LOWER(nombre) LIKE LOWER(?) OR documento LIKE ?", like, like)
	}
	err := db.Order("nombre ASC").Limit(200).Find(&clientes).Error
	return clientes, err
}
