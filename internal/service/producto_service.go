package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"ventarapida/internal/dto"
	"ventarapida/internal/metrics"
	"ventarapida/internal/model"
	"ventarapida/internal/repository"
	"ventarapida/internal/stock"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// maxIntentosCodigo bounds the retries of a creation that lost the race for
// the next sequential code.
const maxIntentosCodigo = 5

// ProductoService defines the business logic contract for products.
type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest, usuarioID uuid.UUID) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	ObtenerPorCodigo(ctx context.Context, codigo string) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	// Catalogo lists what can be sold in the quick sale: active products
	// with a non-zero margin.
	Catalogo(ctx context.Context, q string) ([]dto.ProductoResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest, usuarioID uuid.UUID) (*dto.ProductoResponse, error)
	IngresarStock(ctx context.Context, codigo string, req dto.IngresarStockRequest, usuarioID uuid.UUID) (*dto.ProductoResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID, usuarioID uuid.UUID) error
	Reactivar(ctx context.Context, id uuid.UUID, usuarioID uuid.UUID) (*dto.ProductoResponse, error)
	Historial(ctx context.Context, id uuid.UUID, page, limit int) (*dto.MovimientoListResponse, error)
	HistorialPorBusqueda(ctx context.Context, q string, page, limit int) (*dto.MovimientoListResponse, error)
	ConsultaPrecio(ctx context.Context, codigo string) (*dto.ConsultaPreciosResponse, error)
}

type productoService struct {
	repo        repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
	registrador *Registrador
	cache       CachePrecios
}

func NewProductoService(
	repo repository.ProductoRepository,
	movimientos repository.MovimientoStockRepository,
	registrador *Registrador,
	cache CachePrecios,
) ProductoService {
	return &productoService{repo: repo, movimientos: movimientos, registrador: registrador, cache: cache}
}

// ── Crear ────────────────────────────────────────────────────────────────────

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest, usuarioID uuid.UUID) (*dto.ProductoResponse, error) {
	if req.Cantidad.IsNegative() || req.CantidadMinima.IsNegative() {
		return nil, stock.ErrCantidadNegativa
	}
	if !req.PrecioCosto.IsPositive() {
		return nil, stock.ErrPrecioCostoInvalido
	}
	vence, err := parseFecha(req.FechaVencimiento)
	if err != nil {
		return nil, err
	}

	for intento := 1; ; intento++ {
		p := &model.Producto{
			Nombre:            strings.TrimSpace(req.Nombre),
			Descripcion:       req.Descripcion,
			PrecioCosto:       stock.Redondear(req.PrecioCosto),
			MargenPct:         stock.Redondear(req.MargenPct),
			Cantidad:          stock.Redondear(req.Cantidad),
			CantidadMinima:    stock.Redondear(req.CantidadMinima),
			UnidadMedida:      req.UnidadMedida,
			Categoria:         req.Categoria,
			Proveedor:         req.Proveedor,
			DireccionDeposito: req.DireccionDeposito,
			FechaVencimiento:  vence,
			Activo:            req.Activo == nil || *req.Activo,
		}
		if p.Categoria == "" {
			p.Categoria = "otro"
		}

		var mov *model.MovimientoStock
		err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			ultimo, err := s.repo.UltimoCodigoTx(tx)
			if err != nil {
				return err
			}
			if p.Codigo, err = stock.SiguienteCodigo(ultimo); err != nil {
				return err
			}
			mov, err = s.registrador.GuardarTx(tx, p, stock.NuevoAlta(ptrUsuario(usuarioID)))
			return err
		})
		if err == nil {
			s.registrador.Confirmar(ctx, []*model.Producto{p}, mov)
			log.Info().Str("codigo", p.Codigo).Str("nombre", p.Nombre).Msg("producto creado")
			resp := productoToResponse(p)
			return &resp, nil
		}
		if esClaveDuplicada(err) && intento < maxIntentosCodigo {
			log.Warn().Int("intento", intento).Msg("codigo de producto en uso, reintentando")
			continue
		}
		return nil, fmt.Errorf("crear producto: %w", err)
	}
}

// ── Lectura ──────────────────────────────────────────────────────────────────

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, productoErr(err)
	}
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) ObtenerPorCodigo(ctx context.Context, codigo string) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByCodigo(ctx, codigo)
	if err != nil {
		return nil, productoErr(err)
	}
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	productos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.ProductoListResponse{
		Data:       productosToResponse(productos),
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *productoService) Catalogo(ctx context.Context, q string) ([]dto.ProductoResponse, error) {
	productos, err := s.repo.ListVendibles(ctx, strings.TrimSpace(q))
	if err != nil {
		return nil, err
	}
	return productosToResponse(productos), nil
}

// ── Escritura ────────────────────────────────────────────────────────────────

func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest, usuarioID uuid.UUID) (*dto.ProductoResponse, error) {
	vence, err := parseFecha(req.FechaVencimiento)
	if err != nil {
		return nil, err
	}
	return s.guardar(ctx, id, stock.Edicion, usuarioID, func(p *model.Producto) error {
		if req.Nombre != nil {
			p.Nombre = strings.TrimSpace(*req.Nombre)
		}
		if req.Descripcion != nil {
			p.Descripcion = *req.Descripcion
		}
		if req.PrecioCosto != nil {
			if !req.PrecioCosto.IsPositive() {
				return stock.ErrPrecioCostoInvalido
			}
			p.PrecioCosto = stock.Redondear(*req.PrecioCosto)
		}
		if req.MargenPct != nil {
			p.MargenPct = stock.Redondear(*req.MargenPct)
		}
		if req.Cantidad != nil {
			if req.Cantidad.IsNegative() {
				return stock.ErrCantidadNegativa
			}
			p.Cantidad = stock.Redondear(*req.Cantidad)
		}
		if req.CantidadMinima != nil {
			if req.CantidadMinima.IsNegative() {
				return stock.ErrCantidadNegativa
			}
			p.CantidadMinima = stock.Redondear(*req.CantidadMinima)
		}
		if req.UnidadMedida != nil {
			p.UnidadMedida = *req.UnidadMedida
		}
		if req.Categoria != nil {
			p.Categoria = *req.Categoria
		}
		if req.Proveedor != nil {
			p.Proveedor = *req.Proveedor
		}
		if req.DireccionDeposito != nil {
			p.DireccionDeposito = *req.DireccionDeposito
		}
		if req.FechaVencimiento != nil {
			p.FechaVencimiento = vence
		}
		if req.Activo != nil {
			p.Activo = *req.Activo
		}
		return nil
	})
}

// IngresarStock adds received goods and takes over the supplier's cost,
// name and storage address.
func (s *productoService) IngresarStock(ctx context.Context, codigo string, req dto.IngresarStockRequest, usuarioID uuid.UUID) (*dto.ProductoResponse, error) {
	if !req.Cantidad.IsPositive() {
		return nil, stock.ErrCantidadNoPositiva
	}
	if !req.PrecioCosto.IsPositive() {
		return nil, stock.ErrPrecioCostoInvalido
	}

	var (
		p   *model.Producto
		mov *model.MovimientoStock
	)
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindByCodigoForUpdateTx(tx, codigo)
		if err != nil {
			return productoErr(err)
		}
		cambio := stock.NuevoCambio(stock.Ingreso, p, ptrUsuario(usuarioID))
		p.Cantidad = stock.Redondear(p.Cantidad.Add(req.Cantidad))
		p.PrecioCosto = stock.Redondear(req.PrecioCosto)
		p.Proveedor = req.Proveedor
		p.DireccionDeposito = req.DireccionDeposito
		if req.Activo != nil {
			p.Activo = *req.Activo
		}
		mov, err = s.registrador.GuardarTx(tx, p, cambio)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.registrador.Confirmar(ctx, []*model.Producto{p}, mov)
	log.Info().Str("codigo", p.Codigo).Str("cantidad", req.Cantidad.String()).Msg("entrada de stock registrada")
	resp := productoToResponse(p)
	return &resp, nil
}

// Desactivar is the soft delete; products are never removed.
func (s *productoService) Desactivar(ctx context.Context, id uuid.UUID, usuarioID uuid.UUID) error {
	_, err := s.guardar(ctx, id, stock.Edicion, usuarioID, func(p *model.Producto) error {
		p.Activo = false
		return nil
	})
	return err
}

func (s *productoService) Reactivar(ctx context.Context, id uuid.UUID, usuarioID uuid.UUID) (*dto.ProductoResponse, error) {
	return s.guardar(ctx, id, stock.Edicion, usuarioID, func(p *model.Producto) error {
		p.Activo = true
		return nil
	})
}

// guardar locks the product, lets mutar change it and saves it through the
// Registrador.
func (s *productoService) guardar(ctx context.Context, id uuid.UUID, intencion stock.Intencion, usuarioID uuid.UUID, mutar func(p *model.Producto) error) (*dto.ProductoResponse, error) {
	var (
		p   *model.Producto
		mov *model.MovimientoStock
	)
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return productoErr(err)
		}
		cambio := stock.NuevoCambio(intencion, p, ptrUsuario(usuarioID))
		if err := mutar(p); err != nil {
			return err
		}
		mov, err = s.registrador.GuardarTx(tx, p, cambio)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.registrador.Confirmar(ctx, []*model.Producto{p}, mov)
	resp := productoToResponse(p)
	return &resp, nil
}

// ── Historial ────────────────────────────────────────────────────────────────

func (s *productoService) Historial(ctx context.Context, id uuid.UUID, page, limit int) (*dto.MovimientoListResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, productoErr(err)
	}
	return s.historial(ctx, p, page, limit)
}

// HistorialPorBusqueda shows the movements of the first product, by code,
// whose code or name matches q.
func (s *productoService) HistorialPorBusqueda(ctx context.Context, q string, page, limit int) (*dto.MovimientoListResponse, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, stock.ErrProductoNoEncontrado
	}
	productos, err := s.repo.Buscar(ctx, q, 1)
	if err != nil {
		return nil, err
	}
	if len(productos) == 0 {
		return nil, stock.ErrProductoNoEncontrado
	}
	return s.historial(ctx, &productos[0], page, limit)
}

func (s *productoService) historial(ctx context.Context, p *model.Producto, page, limit int) (*dto.MovimientoListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	movs, total, err := s.movimientos.List(ctx, repository.MovimientoStockFilter{
		ProductoIDs: []uuid.UUID{p.ID},
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		return nil, err
	}
	data := make([]dto.MovimientoResponse, len(movs))
	for i := range movs {
		data[i] = movimientoToResponse(&movs[i])
	}
	resp := productoToResponse(p)
	return &dto.MovimientoListResponse{Producto: &resp, Data: data, Total: total, Page: page, Limit: limit}, nil
}

// ── Consulta de precios ──────────────────────────────────────────────────────

// ConsultaPrecio is the public price check. Inactive products are reported
// as not found.
func (s *productoService) ConsultaPrecio(ctx context.Context, codigo string) (*dto.ConsultaPreciosResponse, error) {
	if s.cache != nil {
		if resp, ok := s.cache.Obtener(ctx, codigo); ok {
			metrics.CacheConsultas.WithLabelValues("hit").Inc()
			return resp, nil
		}
	}
	metrics.CacheConsultas.WithLabelValues("miss").Inc()

	p, err := s.repo.FindByCodigo(ctx, codigo)
	if err != nil {
		return nil, productoErr(err)
	}
	if !p.Activo {
		return nil, stock.ErrProductoNoEncontrado
	}
	resp := &dto.ConsultaPreciosResponse{
		Codigo:          p.Codigo,
		Nombre:          p.Nombre,
		PrecioVenta:     p.PrecioVenta,
		Categoria:       p.Categoria,
		UnidadMedida:    p.UnidadMedida,
		StockDisponible: p.Cantidad,
	}
	if s.cache != nil {
		s.cache.Guardar(ctx, resp)
	}
	return resp, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func productoErr(err error) error {
	if noEncontrado(err) {
		return stock.ErrProductoNoEncontrado
	}
	return err
}

func parseFecha(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(fechaLayout, *s)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha_vencimiento", stock.ErrValorInvalido)
	}
	return &t, nil
}
