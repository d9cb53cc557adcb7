package service_test

import (
	"context"
	"testing"

	"ventarapida/internal/carrito"
	"ventarapida/internal/dto"
	"ventarapida/internal/infra"
	"ventarapida/internal/model"
	"ventarapida/internal/repository"
	"ventarapida/internal/service"
	"ventarapida/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ── Mocks ─────────────────────────────────────────────────────────────────────

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) EnqueueAlertaStock(ctx context.Context, p worker.AlertaStockPayload) error {
	return m.Called(ctx, p).Error(0)
}

// ── Entorno ───────────────────────────────────────────────────────────────────

// entorno wires the services over an in-memory SQLite database. A single
// connection keeps the memory database alive for the whole test.
type entorno struct {
	db          *gorm.DB
	productos   repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
	ventas      repository.VentaRepository
	usuarios    repository.UsuarioRepository
	clientes    repository.ClienteRepository
	outbox      repository.OutboxRepository
	carritos    *carrito.MemoryStore
	alertas     *mockDispatcher

	registrador   *service.Registrador
	productoSvc   service.ProductoService
	inventarioSvc service.InventarioService
	ventaSvc      service.VentaService
	clienteSvc    service.ClienteService
}

func nuevoEntorno(t *testing.T) *entorno {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, infra.RunMigrations(db))

	e := &entorno{
		db:          db,
		productos:   repository.NewProductoRepository(db),
		movimientos: repository.NewMovimientoStockRepository(db),
		ventas:      repository.NewVentaRepository(db),
		usuarios:    repository.NewUsuarioRepository(db),
		clientes:    repository.NewClienteRepository(db),
		outbox:      repository.NewOutboxRepository(db),
		carritos:    carrito.NewMemoryStore(),
		alertas:     &mockDispatcher{},
	}
	e.alertas.On("EnqueueAlertaStock", mock.Anything, mock.Anything).Return(nil).Maybe()

	cache := infra.NewPrecioCache(nil, 0)
	e.registrador = service.NewRegistrador(e.productos, e.movimientos, cache)
	e.productoSvc = service.NewProductoService(e.productos, e.movimientos, e.registrador, cache)
	e.inventarioSvc = service.NewInventarioService(e.productos, e.registrador)
	e.ventaSvc = service.NewVentaService(e.ventas, e.productos, e.usuarios, e.clientes, e.outbox,
		e.registrador, e.carritos, e.alertas, "Tienda de prueba")
	e.clienteSvc = service.NewClienteService(e.clientes)
	return e
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decEq(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

func (e *entorno) crearProducto(t *testing.T, nombre, costo, margen, cantidad string) *dto.ProductoResponse {
	t.Helper()
	resp, err := e.productoSvc.Crear(context.Background(), dto.CrearProductoRequest{
		Nombre:       nombre,
		PrecioCosto:  dec(costo),
		MargenPct:    dec(margen),
		Cantidad:     dec(cantidad),
		UnidadMedida: "UN",
		Categoria:    "mineral",
	}, uuid.Nil)
	require.NoError(t, err)
	return resp
}

func (e *entorno) crearUsuario(t *testing.T, username, saldo string) *model.Usuario {
	t.Helper()
	u := &model.Usuario{
		Username:     username,
		Nombre:       username,
		PasswordHash: "x",
		Rol:          model.RolVendedor,
		Saldo:        dec(saldo),
		Activo:       true,
	}
	require.NoError(t, e.usuarios.Create(context.Background(), u))
	return u
}

func (e *entorno) producto(t *testing.T, id string) *model.Producto {
	t.Helper()
	p, err := e.productos.FindByID(context.Background(), uuid.MustParse(id))
	require.NoError(t, err)
	return p
}

func (e *entorno) saldo(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	u, err := e.usuarios.FindByID(context.Background(), id)
	require.NoError(t, err)
	return u.Saldo
}

func (e *entorno) contar(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Count(&n).Error)
	return n
}

func (e *entorno) movimientosDe(t *testing.T, productoID string) []model.MovimientoStock {
	t.Helper()
	movs, _, err := e.movimientos.List(context.Background(), repository.MovimientoStockFilter{
		ProductoIDs: []uuid.UUID{uuid.MustParse(productoID)},
		Page:        1,
		Limit:       100,
	})
	require.NoError(t, err)
	return movs
}

func (e *entorno) agregar(t *testing.T, sesion, productoID string, veces int) {
	t.Helper()
	for i := 0; i < veces; i++ {
		_, err := e.ventaSvc.AgregarAlCarrito(context.Background(), sesion, uuid.MustParse(productoID))
		require.NoError(t, err)
	}
}
