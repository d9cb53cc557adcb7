package repository

import (
	"context"

	"ventarapida/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UsuarioRepository interface {
	Create(ctx context.Context, u *model.Usuario) error
	FindByUsername(ctx context.Context, username string) (*model.Usuario, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error)
	Update(ctx context.Context, u *model.Usuario) error

	// DebitarSaldoTx subtracts monto only while the balance covers it and
	// reports whether the row was updated.
	DebitarSaldoTx(tx *gorm.DB, id uuid.UUID, monto interface{}) (bool, error)
	AcreditarSaldoTx(tx *gorm.DB, id uuid.UUID, monto interface{}) error
}

type usuarioRepo struct{ db *gorm.DB }

func NewUsuarioRepository(db *gorm.DB) UsuarioRepository { return &usuarioRepo{db: db} }

func (r *usuarioRepo) Create(ctx context.Context, u *model.Usuario) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *usuarioRepo) FindByUsername(ctx context.Context, username string) (*model.Usuario, error) {
	var u model.Usuario
	// Accept login by username OR email (case-insensitive email match)
	err := r.db.WithContext(ctx).
		Where("(username = ? OR LOWER(email) = LOWER(?)) AND activo = ?", username, username, true).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *usuarioRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error) {
	var u model.Usuario
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *usuarioRepo) Update(ctx context.Context, u *model.Usuario) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *usuarioRepo) DebitarSaldoTx(tx *gorm.DB, id uuid.UUID, monto interface{}) (bool, error) {
	res := tx.Model(&model.Usuario{}).
		Where("id = ? AND saldo >= ?", id, monto).
		Update("saldo", gorm.Expr("saldo - ?", monto))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *usuarioRepo) AcreditarSaldoTx(tx *gorm.DB, id uuid.UUID, monto interface{}) error {
	return tx.Model(&model.Usuario{}).Where("id = ?", id).
		Update("saldo", gorm.Expr("saldo + ?", monto)).Error
}
