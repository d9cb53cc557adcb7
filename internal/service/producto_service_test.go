package service_test

import (
	"context"
	"testing"

	"ventarapida/internal/dto"
	"ventarapida/internal/infra"
	"ventarapida/internal/model"
	"ventarapida/internal/repository"
	"ventarapida/internal/service"
	"ventarapida/internal/stock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Crear ─────────────────────────────────────────────────────────────────────

func TestCrear_CodigosSecuenciales(t *testing.T) {
	e := nuevoEntorno(t)

	var codigos []string
	for _, nombre := range []string{"Amonite", "Trilobite", "Ambar"} {
		codigos = append(codigos, e.crearProducto(t, nombre, "10", "50", "1").Codigo)
	}
	assert.Equal(t, []string{"000001", "000002", "000003"}, codigos)
}

// codigoAtrasado answers UltimoCodigoTx with a stale value for the first
// atrasos calls, as a creator that read the maximum before a concurrent
// insert committed.
type codigoAtrasado struct {
	repository.ProductoRepository
	atrasado string
	atrasos  int
	llamadas int
}

func (r *codigoAtrasado) UltimoCodigoTx(tx *gorm.DB) (string, error) {
	r.llamadas++
	if r.atrasos > 0 {
		r.atrasos--
		return r.atrasado, nil
	}
	return r.ProductoRepository.UltimoCodigoTx(tx)
}

func (e *entorno) productoSvcCon(repo repository.ProductoRepository) service.ProductoService {
	cache := infra.NewPrecioCache(nil, 0)
	return service.NewProductoService(repo, e.movimientos, service.NewRegistrador(repo, e.movimientos, cache), cache)
}

func altaFosil(nombre string) dto.CrearProductoRequest {
	return dto.CrearProductoRequest{
		Nombre:       nombre,
		PrecioCosto:  dec("10"),
		MargenPct:    dec("50"),
		Cantidad:     dec("2"),
		UnidadMedida: "UN",
		Categoria:    "fosil",
	}
}

func TestCrear_CodigoEnUsoReintentaConElSiguiente(t *testing.T) {
	e := nuevoEntorno(t)
	e.crearProducto(t, "Amonite", "10", "50", "1")
	e.crearProducto(t, "Trilobite", "10", "50", "1")

	repo := &codigoAtrasado{ProductoRepository: e.productos, atrasado: "", atrasos: 2}
	p, err := e.productoSvcCon(repo).Crear(context.Background(), altaFosil("Ambar"), uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, "000003", p.Codigo)
	assert.Equal(t, 3, repo.llamadas)

	// failed attempts rolled back entirely
	assert.EqualValues(t, 3, e.contar(t, &model.Producto{}))
	assert.EqualValues(t, 3, e.contar(t, &model.MovimientoStock{}))
	movs := e.movimientosDe(t, p.ID)
	require.Len(t, movs, 1)
	assert.Equal(t, model.MovimientoEntrada, movs[0].Tipo)
	decEq(t, "2", movs[0].Cantidad)
}

func TestCrear_CodigoEnUsoAgotaReintentos(t *testing.T) {
	e := nuevoEntorno(t)
	e.crearProducto(t, "Amonite", "10", "50", "1")

	repo := &codigoAtrasado{ProductoRepository: e.productos, atrasado: "", atrasos: 100}
	_, err := e.productoSvcCon(repo).Crear(context.Background(), altaFosil("Ambar"), uuid.Nil)
	require.Error(t, err)
	assert.Equal(t, 5, repo.llamadas)
	assert.EqualValues(t, 1, e.contar(t, &model.Producto{}))
	assert.EqualValues(t, 1, e.contar(t, &model.MovimientoStock{}))
}

func TestCrear_PrecioVentaDerivado(t *testing.T) {
	e := nuevoEntorno(t)

	p := e.crearProducto(t, "Geodo", "33.33", "12.5", "4")
	decEq(t, "37.50", p.PrecioVenta)
	assert.True(t, p.Activo)
}

func TestCrear_UnicoMovimientoDeEntrada(t *testing.T) {
	e := nuevoEntorno(t)

	p := e.crearProducto(t, "Cuarzo", "8", "25", "12")
	movs := e.movimientosDe(t, p.ID)
	require.Len(t, movs, 1)
	assert.Equal(t, model.MovimientoEntrada, movs[0].Tipo)
	decEq(t, "12", movs[0].Cantidad)
	assert.Equal(t, "Alta inicial del producto", movs[0].Observacion)
}

func TestCrear_CantidadNegativa(t *testing.T) {
	e := nuevoEntorno(t)

	_, err := e.productoSvc.Crear(context.Background(), dto.CrearProductoRequest{
		Nombre: "Mal", PrecioCosto: dec("1"), Cantidad: dec("-1"), UnidadMedida: "UN",
	}, uuid.Nil)
	assert.ErrorIs(t, err, stock.ErrCantidadNegativa)
	assert.Zero(t, e.contar(t, &model.Producto{}))
}

// ── Actualizar ────────────────────────────────────────────────────────────────

func TestActualizar_CostoRecalculaPrecioYRegistraAjuste(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.crearProducto(t, "Pirita", "10", "100", "3")

	costo := dec("12.5")
	resp, err := e.productoSvc.Actualizar(context.Background(), uuid.MustParse(p.ID),
		dto.ActualizarProductoRequest{PrecioCosto: &costo}, uuid.Nil)
	require.NoError(t, err)
	decEq(t, "25", resp.PrecioVenta)

	movs := e.movimientosDe(t, p.ID)
	require.Len(t, movs, 2)
	assert.Equal(t, model.MovimientoAjuste, movs[0].Tipo)
	assert.Equal(t, "Costo alterado a $ 12.50", movs[0].Observacion)
}

func TestActualizar_SinCambiosRastreadosNoRegistra(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.crearProducto(t, "Pirita", "10", "100", "3")

	nombre := "Pirita dorada"
	margen := dec("80")
	resp, err := e.productoSvc.Actualizar(context.Background(), uuid.MustParse(p.ID),
		dto.ActualizarProductoRequest{Nombre: &nombre, MargenPct: &margen}, uuid.Nil)
	require.NoError(t, err)
	decEq(t, "18", resp.PrecioVenta)
	assert.Len(t, e.movimientosDe(t, p.ID), 1)
}

func TestActualizar_CantidadRegistraSalida(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.crearProducto(t, "Opala", "20", "50", "10")

	cant := dec("7")
	_, err := e.productoSvc.Actualizar(context.Background(), uuid.MustParse(p.ID),
		dto.ActualizarProductoRequest{Cantidad: &cant}, uuid.Nil)
	require.NoError(t, err)

	movs := e.movimientosDe(t, p.ID)
	require.Len(t, movs, 2)
	assert.Equal(t, model.MovimientoSalida, movs[0].Tipo)
	assert.Equal(t, "Cantidad alterada en 3.00", movs[0].Observacion)
	decEq(t, "7", movs[0].Cantidad)
}

func TestActualizar_NoEncontrado(t *testing.T) {
	e := nuevoEntorno(t)
	_, err := e.productoSvc.Actualizar(context.Background(), uuid.New(), dto.ActualizarProductoRequest{}, uuid.Nil)
	assert.ErrorIs(t, err, stock.ErrProductoNoEncontrado)
}

// ── IngresarStock ─────────────────────────────────────────────────────────────

func TestIngresarStock_SumaCantidadYActualizaProveedor(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.crearProducto(t, "Fluorita", "5", "100", "2")

	resp, err := e.productoSvc.IngresarStock(context.Background(), p.Codigo, dto.IngresarStockRequest{
		Cantidad:          dec("3"),
		PrecioCosto:       dec("6"),
		Proveedor:         "Minas Gerais",
		DireccionDeposito: "Estante B",
	}, uuid.Nil)
	require.NoError(t, err)
	decEq(t, "5", resp.Cantidad)
	decEq(t, "12", resp.PrecioVenta)
	assert.Equal(t, "Minas Gerais", resp.Proveedor)

	movs := e.movimientosDe(t, p.ID)
	require.Len(t, movs, 2)
	assert.Equal(t, model.MovimientoEntrada, movs[0].Tipo)
	assert.Equal(t,
		"Cantidad alterada en 3.00. Costo alterado a $ 6.00. Proveedor alterado a Minas Gerais. Direccion alterada a Estante B",
		movs[0].Observacion)
}

func TestIngresarStock_CantidadCero(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.crearProducto(t, "Fluorita", "5", "100", "2")

	_, err := e.productoSvc.IngresarStock(context.Background(), p.Codigo, dto.IngresarStockRequest{
		Cantidad: dec("0"), PrecioCosto: dec("6"),
	}, uuid.Nil)
	assert.ErrorIs(t, err, stock.ErrCantidadNoPositiva)
	assert.Len(t, e.movimientosDe(t, p.ID), 1)
}

// ── Desactivar / Reactivar ────────────────────────────────────────────────────

func TestDesactivar_NoRegistraMovimientoYOcultaDelCatalogo(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	p := e.crearProducto(t, "Malaquita", "10", "40", "1")

	require.NoError(t, e.productoSvc.Desactivar(ctx, uuid.MustParse(p.ID), uuid.Nil))
	assert.False(t, e.producto(t, p.ID).Activo)
	assert.Len(t, e.movimientosDe(t, p.ID), 1)

	catalogo, err := e.productoSvc.Catalogo(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, catalogo)

	_, err = e.productoSvc.ConsultaPrecio(ctx, p.Codigo)
	assert.ErrorIs(t, err, stock.ErrProductoNoEncontrado)

	resp, err := e.productoSvc.Reactivar(ctx, uuid.MustParse(p.ID), uuid.Nil)
	require.NoError(t, err)
	assert.True(t, resp.Activo)
}

func TestCatalogo_ExcluyeMargenCero(t *testing.T) {
	e := nuevoEntorno(t)
	e.crearProducto(t, "Sin margen", "10", "0", "1")
	vendible := e.crearProducto(t, "Con margen", "10", "10", "1")

	catalogo, err := e.productoSvc.Catalogo(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, catalogo, 1)
	assert.Equal(t, vendible.Codigo, catalogo[0].Codigo)
}

// ── Listar / Historial ────────────────────────────────────────────────────────

func TestListar_RangoDeCodigosYBusqueda(t *testing.T) {
	e := nuevoEntorno(t)
	for _, n := range []string{"Ametista", "Citrino", "Ametrino", "Topacio"} {
		e.crearProducto(t, n, "1", "10", "1")
	}
	ctx := context.Background()

	resp, err := e.productoSvc.Listar(ctx, dto.ProductoFilter{CodigoDesde: "000002", CodigoHasta: "000003"})
	require.NoError(t, err)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "000002", resp.Data[0].Codigo)

	resp, err = e.productoSvc.Listar(ctx, dto.ProductoFilter{Q: "ametr"})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Ametrino", resp.Data[0].Nombre)

	resp, err = e.productoSvc.Listar(ctx, dto.ProductoFilter{Codigos: "000001, 000004", Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, resp.Total)
	assert.Equal(t, 2, resp.TotalPages)
}

func TestHistorialPorBusqueda_MasRecientePrimero(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	p := e.crearProducto(t, "Turmalina", "10", "50", "5")
	_, err := e.inventarioSvc.Recontar(ctx, dto.RecuentoRequest{Codigo: p.Codigo, NuevaCantidad: "4"}, uuid.Nil)
	require.NoError(t, err)

	resp, err := e.productoSvc.HistorialPorBusqueda(ctx, "turma", 1, 10)
	require.NoError(t, err)
	require.NotNil(t, resp.Producto)
	assert.Equal(t, p.Codigo, resp.Producto.Codigo)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, model.MovimientoAjuste, resp.Data[0].Tipo)
	assert.Equal(t, model.MovimientoEntrada, resp.Data[1].Tipo)

	_, err = e.productoSvc.HistorialPorBusqueda(ctx, "inexistente", 1, 10)
	assert.ErrorIs(t, err, stock.ErrProductoNoEncontrado)
}

func TestConsultaPrecio(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.crearProducto(t, "Jade", "40", "25", "2")

	resp, err := e.productoSvc.ConsultaPrecio(context.Background(), p.Codigo)
	require.NoError(t, err)
	decEq(t, "50", resp.PrecioVenta)
	decEq(t, "2", resp.StockDisponible)
}
