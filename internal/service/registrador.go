package service

import (
	"context"
	"fmt"

	"ventarapida/internal/dto"
	"ventarapida/internal/metrics"
	"ventarapida/internal/model"
	"ventarapida/internal/repository"
	"ventarapida/internal/stock"

	"gorm.io/gorm"
)

// CachePrecios is the price-check cache. infra.PrecioCache implements it.
type CachePrecios interface {
	Obtener(ctx context.Context, codigo string) (*dto.ConsultaPreciosResponse, bool)
	Guardar(ctx context.Context, resp *dto.ConsultaPreciosResponse)
	Invalidar(ctx context.Context, codigos ...string)
}

// Registrador is the only write path for products. Every save recomputes the
// sale price and appends at most one ledger entry in the same transaction.
type Registrador struct {
	productos   repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
	cache       CachePrecios
}

func NewRegistrador(productos repository.ProductoRepository, movimientos repository.MovimientoStockRepository, cache CachePrecios) *Registrador {
	return &Registrador{productos: productos, movimientos: movimientos, cache: cache}
}

// GuardarTx persists p as described by c. Updates are compare-and-swap on the
// quantity read when c was built; a concurrent writer yields
// stock.ErrConflictoConcurrente and the caller's transaction must roll back.
func (r *Registrador) GuardarTx(tx *gorm.DB, p *model.Producto, c stock.Cambio) (*model.MovimientoStock, error) {
	mov := stock.Aplicar(p, c)
	if p.Cantidad.IsNegative() {
		return nil, stock.ErrStockNegativo
	}

	if c.Intencion == stock.Alta || c.Anterior == nil {
		if err := r.productos.CreateTx(tx, p); err != nil {
			return nil, fmt.Errorf("crear producto: %w", err)
		}
	} else {
		ok, err := r.productos.UpdateIfCantidadTx(tx, p, c.Anterior.Cantidad)
		if err != nil {
			return nil, fmt.Errorf("actualizar producto %s: %w", p.Codigo, err)
		}
		if !ok {
			return nil, stock.ErrConflictoConcurrente
		}
	}

	if mov == nil {
		return nil, nil
	}
	mov.ProductoID = p.ID
	if err := r.movimientos.CreateTx(tx, mov); err != nil {
		return nil, fmt.Errorf("registrar movimiento: %w", err)
	}
	return mov, nil
}

// Confirmar runs after commit: drops the cached prices of the saved products
// and counts the appended movements.
func (r *Registrador) Confirmar(ctx context.Context, productos []*model.Producto, movs ...*model.MovimientoStock) {
	if r.cache != nil && len(productos) > 0 {
		codigos := make([]string, 0, len(productos))
		for _, p := range productos {
			codigos = append(codigos, p.Codigo)
		}
		r.cache.Invalidar(ctx, codigos...)
	}
	for _, m := range movs {
		if m != nil {
			metrics.Movimientos.WithLabelValues(m.Tipo).Inc()
		}
	}
}
