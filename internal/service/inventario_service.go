package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"ventarapida/internal/dto"
	"ventarapida/internal/infra"
	"ventarapida/internal/model"
	"ventarapida/internal/repository"
	"ventarapida/internal/stock"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// paginaRelatorio is the page size used to walk the catalogue for reports.
const paginaRelatorio = 500

// InventarioService covers the physical count and the stock reports.
type InventarioService interface {
	Recontar(ctx context.Context, req dto.RecuentoRequest, usuarioID uuid.UUID) (*dto.RecuentoResponse, error)
	Relatorio(ctx context.Context, filter dto.ProductoFilter) (*dto.RelatorioInventarioResponse, error)
	ExportarRelatorio(ctx context.Context, filter dto.ProductoFilter, w io.Writer) error
	ObtenerAlertas(ctx context.Context) ([]dto.AlertaStockResponse, error)
}

type inventarioService struct {
	repo        repository.ProductoRepository
	registrador *Registrador
	now         func() time.Time
}

func NewInventarioService(repo repository.ProductoRepository, registrador *Registrador) InventarioService {
	return &inventarioService{repo: repo, registrador: registrador, now: time.Now}
}

// ── Recuento ─────────────────────────────────────────────────────────────────

// Recontar replaces the stored quantity with the counted one. An unchanged
// count is not an error and writes nothing.
func (s *inventarioService) Recontar(ctx context.Context, req dto.RecuentoRequest, usuarioID uuid.UUID) (*dto.RecuentoResponse, error) {
	nueva, err := stock.ParseCantidad(req.NuevaCantidad)
	if err != nil {
		return nil, err
	}
	if nueva.IsNegative() {
		return nil, stock.ErrCantidadNegativa
	}
	nueva = stock.Redondear(nueva)

	var (
		p        *model.Producto
		mov      *model.MovimientoStock
		anterior decimal.Decimal
	)
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindByCodigoForUpdateTx(tx, req.Codigo)
		if err != nil {
			return productoErr(err)
		}
		anterior = p.Cantidad
		if anterior.Equal(nueva) {
			return nil
		}
		cambio := stock.NuevoCambio(stock.Recuento, p, ptrUsuario(usuarioID))
		p.Cantidad = nueva
		mov, err = s.registrador.GuardarTx(tx, p, cambio)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.RecuentoResponse{
		Codigo:           p.Codigo,
		Nombre:           p.Nombre,
		CantidadAnterior: anterior,
		CantidadNueva:    nueva,
	}
	if mov == nil {
		resp.Mensaje = fmt.Sprintf("Cantidad de '%s' ya esta en %s. Ningun ajuste necesario.", p.Nombre, nueva.StringFixed(stock.Decimales))
		return resp, nil
	}

	s.registrador.Confirmar(ctx, []*model.Producto{p}, mov)
	resp.Ajustado = true
	resp.Mensaje = fmt.Sprintf("Inventario de '%s' ajustado de %s para %s.",
		p.Nombre, anterior.StringFixed(stock.Decimales), nueva.StringFixed(stock.Decimales))
	log.Info().Str("codigo", p.Codigo).Str("anterior", anterior.String()).Str("nueva", nueva.String()).Msg("recuento aplicado")
	return resp, nil
}

// ── Relatorio ────────────────────────────────────────────────────────────────

func (s *inventarioService) Relatorio(ctx context.Context, filter dto.ProductoFilter) (*dto.RelatorioInventarioResponse, error) {
	productos, err := s.todos(ctx, filter)
	if err != nil {
		return nil, err
	}
	costo, venta := decimal.Zero, decimal.Zero
	for _, p := range productos {
		costo = costo.Add(p.Cantidad.Mul(p.PrecioCosto))
		venta = venta.Add(p.Cantidad.Mul(p.PrecioVenta))
	}
	return &dto.RelatorioInventarioResponse{
		Data:       productosToResponse(productos),
		Total:      int64(len(productos)),
		ValorCosto: stock.Redondear(costo),
		ValorVenta: stock.Redondear(venta),
		GeneradoEn: s.now().Format(time.RFC3339),
	}, nil
}

func (s *inventarioService) ExportarRelatorio(ctx context.Context, filter dto.ProductoFilter, w io.Writer) error {
	productos, err := s.todos(ctx, filter)
	if err != nil {
		return err
	}
	return infra.EscribirRelatorioInventario(w, productos, s.now())
}

// todos walks every page of the filtered catalogue. The report covers active
// and inactive products unless the filter says otherwise.
func (s *inventarioService) todos(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, error) {
	if filter.Activo == "" {
		filter.Activo = "all"
	}
	filter.Limit = paginaRelatorio
	var out []model.Producto
	for page := 1; ; page++ {
		filter.Page = page
		productos, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, productos...)
		if len(productos) < paginaRelatorio || int64(len(out)) >= total {
			return out, nil
		}
	}
}

// ── Alertas ──────────────────────────────────────────────────────────────────

func (s *inventarioService) ObtenerAlertas(ctx context.Context) ([]dto.AlertaStockResponse, error) {
	productos, err := s.repo.ListBajoMinimo(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AlertaStockResponse, len(productos))
	for i, p := range productos {
		out[i] = dto.AlertaStockResponse{
			ProductoID:     p.ID.String(),
			Codigo:         p.Codigo,
			Nombre:         p.Nombre,
			Cantidad:       p.Cantidad,
			CantidadMinima: p.CantidadMinima,
		}
	}
	return out, nil
}
