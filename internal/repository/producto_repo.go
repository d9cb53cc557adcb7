package repository

import (
	"context"
	"strings"

	"ventarapida/internal/dto"
	"ventarapida/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductoRepository defines the data access contract for products.
// Writes only exist in their *Tx form: every product save goes through
// service.Registrador inside a transaction so that the ledger entry is
// committed together with the row.
type ProductoRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	FindByCodigo(ctx context.Context, codigo string) (*model.Producto, error)
	List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error)
	// ListVendibles returns active products with a non-zero margin, optionally
	// narrowed by code or name.
	ListVendibles(ctx context.Context, q string) ([]model.Producto, error)
	ListBajoMinimo(ctx context.Context) ([]model.Producto, error)
	// Buscar matches q against code or name, case-insensitive.
	Buscar(ctx context.Context, q string, limit int) ([]model.Producto, error)

	// Used inside transactions; callers must pass the tx instance
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Producto, error)
	FindByCodigoForUpdateTx(tx *gorm.DB, codigo string) (*model.Producto, error)
	UltimoCodigoTx(tx *gorm.DB) (string, error)
	CreateTx(tx *gorm.DB, p *model.Producto) error
	// UpdateIfCantidadTx writes every column of p except the code, but only if
	// the stored quantity still equals cantidadAnterior. It reports whether the
	// row was written.
	UpdateIfCantidadTx(tx *gorm.DB, p *model.Producto, cantidadAnterior interface{}) (bool, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) DB() *gorm.DB { return r.db }

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) FindByCodigo(ctx context.Context, codigo string) (*model.Producto, error) {
	var p model.Producto
	if err := r.db.WithContext(ctx).Where("codigo = ?", codigo).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error) {
	var productos []model.Producto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Producto{})

	// Activo filter: "false" = inactivos, "all" = todos, anything else = activos (default)
	switch filter.Activo {
	case "false":
		q = q.Where("activo = ?", false)
	case "all":
		// no filter
	default:
		q = q.Where("activo = ?", true)
	}

	if filter.CodigoDesde != "" {
		q = q.Where("codigo >= ?", filter.CodigoDesde)
	}
	if filter.CodigoHasta != "" {
		q = q.Where("codigo <= ?", filter.CodigoHasta)
	}
	if codigos := splitCodigos(filter.Codigos); len(codigos) > 0 {
		q = q.Where("codigo IN ?", codigos)
	}
	if filter.Q != "" {
		q = whereCodigoONombre(q, filter.Q)
	}
	if filter.Categoria != "" {
		q = q.Where("categoria = ?", filter.Categoria)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	err := q.Order("codigo ASC").Limit(limit).Offset((page - 1) * limit).Find(&productos).Error
	return productos, total, err
}

func (r *productoRepo) ListVendibles(ctx context.Context, q string) ([]model.Producto, error) {
	var productos []model.Producto
	db := r.db.WithContext(ctx).Where("activo = ? AND margen_pct <> 0", true)
	if q != "" {
		db = whereCodigoONombre(db, q)
	}
	err := db.Order("nombre ASC").Find(&productos).Error
	return productos, err
}

func (r *productoRepo) ListBajoMinimo(ctx context.Context) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).
		Where("activo = ? AND cantidad_minima > 0 AND cantidad <= cantidad_minima", true).
		Order("codigo ASC").
		Find(&productos).Error
	return productos, err
}

func (r *productoRepo) Buscar(ctx context.Context, q string, limit int) ([]model.Producto, error) {
	var productos []model.Producto
	err := whereCodigoONombre(r.db.WithContext(ctx), q).
		Order("codigo ASC").Limit(limit).
		Find(&productos).Error
	return productos, err
}

func (r *productoRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) FindByCodigoForUpdateTx(tx *gorm.DB, codigo string) (*model.Producto, error) {
	var p model.Producto
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("codigo = ?", codigo).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) UltimoCodigoTx(tx *gorm.DB) (string, error) {
	var ultimo string
	err := tx.Model(&model.Producto{}).Select("COALESCE(MAX(codigo), '')").Row().Scan(&ultimo)
	return ultimo, err
}

func (r *productoRepo) CreateTx(tx *gorm.DB, p *model.Producto) error {
	return tx.Create(p).Error
}

func (r *productoRepo) UpdateIfCantidadTx(tx *gorm.DB, p *model.Producto, cantidadAnterior interface{}) (bool, error) {
	res := tx.Model(p).
		Where("cantidad = ?", cantidadAnterior).
		Select("*").Omit("id", "codigo", "created_at").
		Updates(p)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func whereCodigoONombre(db *gorm.DB, q string) *gorm.DB {
	like := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	return db.Where("(LOWER(codigo) LIKE ? OR LOWER(nombre) LIKE ?)", like, like)
}

func splitCodigos(raw string) []string {
	var out []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
