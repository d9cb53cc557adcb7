package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"ventarapida/internal/carrito"
	"ventarapida/internal/dto"
	"ventarapida/internal/infra"
	"ventarapida/internal/metrics"
	"ventarapida/internal/model"
	"ventarapida/internal/repository"
	"ventarapida/internal/stock"
	"ventarapida/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AlertaDispatcher enqueues low-stock notifications. worker.Dispatcher
// implements it.
type AlertaDispatcher interface {
	EnqueueAlertaStock(ctx context.Context, payload worker.AlertaStockPayload) error
}

type VentaService interface {
	AgregarAlCarrito(ctx context.Context, sesion string, productoID uuid.UUID) (*dto.CarritoResponse, error)
	QuitarDelCarrito(ctx context.Context, sesion string, productoID uuid.UUID) (*dto.CarritoResponse, error)
	VerCarrito(ctx context.Context, sesion string) (*dto.CarritoResponse, error)
	Finalizar(ctx context.Context, sesion string, usuarioID uuid.UUID, req dto.FinalizarVentaRequest) (*dto.VentaResponse, error)
	AnularVenta(ctx context.Context, id uuid.UUID, motivo string, usuarioID uuid.UUID) error
	ListarVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error)
	ObtenerVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	GenerarTicket(ctx context.Context, id uuid.UUID, w io.Writer) error
}

type ventaService struct {
	repo         repository.VentaRepository
	productoRepo repository.ProductoRepository
	usuarioRepo  repository.UsuarioRepository
	clienteRepo  repository.ClienteRepository
	outbox       repository.OutboxRepository
	registrador  *Registrador
	carritos     carrito.Store
	dispatcher   AlertaDispatcher
	tienda       string
}

func NewVentaService(
	repo repository.VentaRepository,
	productoRepo repository.ProductoRepository,
	usuarioRepo repository.UsuarioRepository,
	clienteRepo repository.ClienteRepository,
	outbox repository.OutboxRepository,
	registrador *Registrador,
	carritos carrito.Store,
	dispatcher AlertaDispatcher,
	tienda string,
) VentaService {
	return &ventaService{
		repo:         repo,
		productoRepo: productoRepo,
		usuarioRepo:  usuarioRepo,
		clienteRepo:  clienteRepo,
		outbox:       outbox,
		registrador:  registrador,
		carritos:     carritos,
		dispatcher:   dispatcher,
		tienda:       tienda,
	}
}

// ── Carrito ──────────────────────────────────────────────────────────────────

func (s *ventaService) AgregarAlCarrito(ctx context.Context, sesion string, productoID uuid.UUID) (*dto.CarritoResponse, error) {
	p, err := s.productoRepo.FindByID(ctx, productoID)
	if err != nil {
		return nil, productoErr(err)
	}
	if !p.Activo {
		return nil, stock.ErrProductoNoEncontrado
	}

	c, err := s.carritos.Modificar(ctx, sesion, func(c *carrito.Carrito) { c.Agregar(p) })
	if err != nil {
		return nil, err
	}
	return s.carritoToResponse(ctx, c)
}

func (s *ventaService) QuitarDelCarrito(ctx context.Context, sesion string, productoID uuid.UUID) (*dto.CarritoResponse, error) {
	c, err := s.carritos.Modificar(ctx, sesion, func(c *carrito.Carrito) { c.Quitar(productoID) })
	if err != nil {
		return nil, err
	}
	return s.carritoToResponse(ctx, c)
}

func (s *ventaService) VerCarrito(ctx context.Context, sesion string) (*dto.CarritoResponse, error) {
	c, err := s.carritos.Cargar(ctx, sesion)
	if err != nil {
		return nil, err
	}
	return s.carritoToResponse(ctx, c)
}

func (s *ventaService) carritoToResponse(ctx context.Context, c *carrito.Carrito) (*dto.CarritoResponse, error) {
	t, err := s.totales(ctx, c)
	if err != nil {
		return nil, err
	}
	lineas := make([]dto.LineaCarritoResponse, len(c.Lineas))
	for i, l := range c.Lineas {
		lineas[i] = dto.LineaCarritoResponse{
			ProductoID:     l.ProductoID.String(),
			Codigo:         l.Codigo,
			Nombre:         l.Nombre,
			Cantidad:       l.Cantidad,
			PrecioUnitario: l.PrecioUnitario,
			Subtotal:       l.Subtotal,
		}
	}
	return &dto.CarritoResponse{
		Lineas:           lineas,
		TotalBruto:       t.bruto,
		CostoTotal:       t.costo,
		MargenDisponible: t.margen(),
	}, nil
}

// totalesCarrito holds the cart sums and the live products they were
// computed from.
type totalesCarrito struct {
	bruto     decimal.Decimal
	costo     decimal.Decimal
	productos map[uuid.UUID]*model.Producto
}

func (t totalesCarrito) margen() decimal.Decimal { return t.bruto.Sub(t.costo) }

// totales prices the cart at its captured unit prices and costs it at the
// current product cost.
func (s *ventaService) totales(ctx context.Context, c *carrito.Carrito) (totalesCarrito, error) {
	t := totalesCarrito{bruto: c.TotalBruto(), costo: decimal.Zero, productos: make(map[uuid.UUID]*model.Producto, len(c.Lineas))}
	for _, l := range c.Lineas {
		p, err := s.productoRepo.FindByID(ctx, l.ProductoID)
		if err != nil {
			return t, productoErr(err)
		}
		t.productos[l.ProductoID] = p
		t.costo = t.costo.Add(p.PrecioCosto.Mul(l.Cantidad))
	}
	t.costo = stock.Redondear(t.costo)
	return t, nil
}

// ── Finalizar ────────────────────────────────────────────────────────────────
// Validation runs in a fixed order and stops at the first failure:
//   1. totals at captured prices, cost at live cost
//   2. discount not negative
//   3. discount within the available margin
//   4. every line covered by live stock
//   5. user balance covers the net total
// The commit then repeats the stock and balance checks under row locks, so
// concurrent checkouts can fail there but never drive a quantity or balance
// below zero. The cart is only emptied after a successful commit.

func (s *ventaService) Finalizar(ctx context.Context, sesion string, usuarioID uuid.UUID, req dto.FinalizarVentaRequest) (resp *dto.VentaResponse, err error) {
	defer func() { metrics.Checkouts.WithLabelValues(resultadoCheckout(err)).Inc() }()

	c, err := s.carritos.Cargar(ctx, sesion)
	if err != nil {
		return nil, err
	}
	if c.Vacio() {
		return nil, stock.ErrCarritoVacio
	}
	pedido, err := stock.ParseMonto(req.Descuento)
	if err != nil {
		return nil, err
	}
	// stored and compared at cent precision so total = bruto - descuento holds
	descuento := stock.Redondear(pedido)
	var clienteID *uuid.UUID
	if req.ClienteID != nil && *req.ClienteID != "" {
		id, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			return nil, fmt.Errorf("%w: cliente_id", stock.ErrValorInvalido)
		}
		if _, err := s.clienteRepo.FindByID(ctx, id); err != nil {
			if noEncontrado(err) {
				return nil, stock.ErrClienteNoEncontrado
			}
			return nil, err
		}
		clienteID = &id
	}

	// 1
	t, err := s.totales(ctx, c)
	if err != nil {
		return nil, err
	}
	// 2
	if pedido.IsNegative() {
		return nil, stock.ErrDescuentoNegativo
	}
	// 3
	if descuento.GreaterThan(t.margen()) {
		return nil, &stock.DescuentoExcedidoError{Maximo: t.margen()}
	}
	// 4
	for _, l := range c.Lineas {
		if p := t.productos[l.ProductoID]; p.Cantidad.LessThan(l.Cantidad) {
			return nil, &stock.StockInsuficienteError{Producto: p.Nombre}
		}
	}
	// 5
	total := stock.Redondear(t.bruto.Sub(descuento))
	usuario, err := s.usuarioRepo.FindByID(ctx, usuarioID)
	if err != nil {
		if noEncontrado(err) {
			return nil, stock.ErrUsuarioNoEncontrado
		}
		return nil, err
	}
	if usuario.Saldo.LessThan(total) {
		return nil, &stock.SaldoInsuficienteError{Requerido: total}
	}

	venta := &model.Venta{
		UsuarioID:     usuarioID,
		ClienteID:     clienteID,
		FormaPago:     req.FormaPago,
		Estado:        model.VentaCompletada,
		Descuento:     descuento,
		Total:         total,
		CostoTotal:    t.costo,
		Observaciones: strings.TrimSpace(req.Observaciones),
	}
	var (
		guardados []*model.Producto
		movs      []*model.MovimientoStock
	)

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, venta); err != nil {
			return fmt.Errorf("crear venta: %w", err)
		}
		items := make([]model.VentaItem, len(c.Lineas))
		for i, l := range c.Lineas {
			items[i] = model.VentaItem{
				VentaID:        venta.ID,
				ProductoID:     l.ProductoID,
				Cantidad:       l.Cantidad,
				PrecioUnitario: l.PrecioUnitario,
			}
		}
		if err := s.repo.CreateItemsTx(tx, items); err != nil {
			return fmt.Errorf("crear items: %w", err)
		}

		for _, l := range ordenarPorProducto(c.Lineas) {
			p, err := s.productoRepo.FindByIDForUpdateTx(tx, l.ProductoID)
			if err != nil {
				return productoErr(err)
			}
			if p.Cantidad.LessThan(l.Cantidad) {
				return &stock.StockInsuficienteError{Producto: p.Nombre}
			}
			cambio := stock.NuevoCambio(stock.Venta, p, ptrUsuario(usuarioID)).ConReferencia(venta.ID)
			p.Cantidad = p.Cantidad.Sub(l.Cantidad)
			mov, err := s.registrador.GuardarTx(tx, p, cambio)
			if err != nil {
				return err
			}
			guardados = append(guardados, p)
			movs = append(movs, mov)
		}

		ok, err := s.usuarioRepo.DebitarSaldoTx(tx, usuarioID, total)
		if err != nil {
			return fmt.Errorf("debitar saldo: %w", err)
		}
		if !ok {
			return &stock.SaldoInsuficienteError{Requerido: total}
		}

		venta.Items = items
		return s.registrarEventoTx(tx, model.EventoVentaCompletada, venta)
	})
	if err != nil {
		return nil, err
	}

	if err := s.carritos.Limpiar(ctx, sesion); err != nil {
		log.Warn().Err(err).Str("sesion", sesion).Msg("no se pudo vaciar el carrito")
	}
	s.registrador.Confirmar(ctx, guardados, movs...)
	s.alertarBajoMinimo(ctx, venta.ID, guardados)

	for i := range venta.Items {
		venta.Items[i].Producto = t.productos[venta.Items[i].ProductoID]
	}
	log.Info().
		Str("venta_id", venta.ID.String()).
		Str("usuario_id", usuarioID.String()).
		Str("total", total.StringFixed(stock.Decimales)).
		Int("items", len(venta.Items)).
		Msg("venta completada")
	return ventaToResponse(venta), nil
}

// ordenarPorProducto returns the lines sorted by product id so concurrent
// checkouts lock rows in the same order.
func ordenarPorProducto(lineas []carrito.Linea) []carrito.Linea {
	out := append([]carrito.Linea(nil), lineas...)
	sort.Slice(out, func(i, j int) bool { return out[i].ProductoID.String() < out[j].ProductoID.String() })
	return out
}

func (s *ventaService) alertarBajoMinimo(ctx context.Context, ventaID uuid.UUID, productos []*model.Producto) {
	if s.dispatcher == nil {
		return
	}
	for _, p := range productos {
		if !p.BajoMinimo() {
			continue
		}
		err := s.dispatcher.EnqueueAlertaStock(ctx, worker.AlertaStockPayload{
			ProductoID:     p.ID.String(),
			Codigo:         p.Codigo,
			Nombre:         p.Nombre,
			Cantidad:       p.Cantidad.StringFixed(stock.Decimales),
			CantidadMinima: p.CantidadMinima.StringFixed(stock.Decimales),
			VentaID:        ventaID.String(),
		})
		if err != nil {
			log.Warn().Err(err).Str("codigo", p.Codigo).Msg("no se pudo encolar alerta de stock")
		}
	}
}

// resultadoCheckout is the label of the checkout counter.
func resultadoCheckout(err error) string {
	var (
		desc  *stock.DescuentoExcedidoError
		st    *stock.StockInsuficienteError
		saldo *stock.SaldoInsuficienteError
	)
	switch {
	case err == nil:
		return "completada"
	case errors.Is(err, stock.ErrCarritoVacio):
		return "carrito_vacio"
	case errors.Is(err, stock.ErrDescuentoNegativo), errors.Is(err, stock.ErrValorInvalido):
		return "descuento_invalido"
	case errors.As(err, &desc):
		return "descuento_excedido"
	case errors.As(err, &st):
		return "stock_insuficiente"
	case errors.As(err, &saldo):
		return "saldo_insuficiente"
	case errors.Is(err, stock.ErrConflictoConcurrente):
		return "conflicto"
	}
	return "error"
}

// ── Anular ───────────────────────────────────────────────────────────────────

// AnularVenta cancels a completed sale: stock goes back to the products and
// the total back to the seller's balance, in one transaction.
func (s *ventaService) AnularVenta(ctx context.Context, id uuid.UUID, motivo string, usuarioID uuid.UUID) error {
	var (
		guardados []*model.Producto
		movs      []*model.MovimientoStock
	)
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		venta, err := s.repo.FindByIDForUpdateTx(tx, id)
		if err != nil {
			if noEncontrado(err) {
				return stock.ErrVentaNoEncontrada
			}
			return err
		}
		if venta.Estado != model.VentaCompletada {
			return stock.ErrVentaNoAnulable
		}

		items := append([]model.VentaItem(nil), venta.Items...)
		sort.Slice(items, func(i, j int) bool { return items[i].ProductoID.String() < items[j].ProductoID.String() })
		for _, it := range items {
			p, err := s.productoRepo.FindByIDForUpdateTx(tx, it.ProductoID)
			if err != nil {
				return productoErr(err)
			}
			cambio := stock.NuevoCambio(stock.Anulacion, p, ptrUsuario(usuarioID)).ConReferencia(venta.ID)
			p.Cantidad = p.Cantidad.Add(it.Cantidad)
			mov, err := s.registrador.GuardarTx(tx, p, cambio)
			if err != nil {
				return err
			}
			guardados = append(guardados, p)
			movs = append(movs, mov)
		}

		if err := s.usuarioRepo.AcreditarSaldoTx(tx, venta.UsuarioID, venta.Total); err != nil {
			return fmt.Errorf("acreditar saldo: %w", err)
		}
		if err := s.repo.AnularTx(tx, venta.ID, motivo); err != nil {
			return err
		}
		venta.Estado = model.VentaCancelada
		venta.MotivoAnulacion = &motivo
		return s.registrarEventoTx(tx, model.EventoVentaCancelada, venta)
	})
	if err != nil {
		return err
	}

	s.registrador.Confirmar(ctx, guardados, movs...)
	log.Info().Str("venta_id", id.String()).Str("motivo", motivo).Msg("venta anulada")
	return nil
}

// ── Outbox ───────────────────────────────────────────────────────────────────

type eventoVenta struct {
	VentaID   string            `json:"venta_id"`
	UsuarioID string            `json:"usuario_id"`
	ClienteID *string           `json:"cliente_id,omitempty"`
	Estado    string            `json:"estado"`
	Total     decimal.Decimal   `json:"total"`
	Descuento decimal.Decimal   `json:"descuento"`
	Motivo    *string           `json:"motivo,omitempty"`
	Items     []eventoVentaItem `json:"items"`
}

type eventoVentaItem struct {
	ProductoID     string          `json:"producto_id"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
}

func (s *ventaService) registrarEventoTx(tx *gorm.DB, tipo string, v *model.Venta) error {
	ev := eventoVenta{
		VentaID:   v.ID.String(),
		UsuarioID: v.UsuarioID.String(),
		Estado:    v.Estado,
		Total:     v.Total,
		Descuento: v.Descuento,
		Motivo:    v.MotivoAnulacion,
		Items:     make([]eventoVentaItem, len(v.Items)),
	}
	if v.ClienteID != nil {
		cid := v.ClienteID.String()
		ev.ClienteID = &cid
	}
	for i, it := range v.Items {
		ev.Items[i] = eventoVentaItem{
			ProductoID:     it.ProductoID.String(),
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
		}
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.outbox.CreateTx(tx, &model.EventoOutbox{
		Tipo:       tipo,
		AgregadoID: v.ID,
		Payload:    datatypes.JSON(payload),
	})
}

// ── Lectura ──────────────────────────────────────────────────────────────────

func (s *ventaService) ListarVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	ventas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.VentaResponse, len(ventas))
	for i := range ventas {
		data[i] = *ventaToResponse(&ventas[i])
	}
	return &dto.VentaListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *ventaService) ObtenerVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if noEncontrado(err) {
			return nil, stock.ErrVentaNoEncontrada
		}
		return nil, err
	}
	return ventaToResponse(v), nil
}

func (s *ventaService) GenerarTicket(ctx context.Context, id uuid.UUID, w io.Writer) error {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if noEncontrado(err) {
			return stock.ErrVentaNoEncontrada
		}
		return err
	}
	return infra.GenerarTicketPDF(w, v, s.tienda)
}
