//go:build integration

package router_test

// Run with: go test -tags integration ./internal/router/... -v
// Real Postgres and Redis through testcontainers: row locks, CHECK
// constraints and the Redis cart behave as in production.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"ventarapida/internal/config"
	"ventarapida/internal/dto"
	"ventarapida/internal/infra"
	"ventarapida/internal/model"
	"ventarapida/internal/repository"
	"ventarapida/internal/router"
	"ventarapida/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
	auth   service.AuthService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("ventarapida_test"),
		tcPostgres.WithUsername("ventarapida"),
		tcPostgres.WithPassword("ventarapida"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		RateLimitPorMinuto: 100000,
		NombreTienda:       "Tienda E2E",
		CarritoTTLHoras:    1,
		PrecioCacheMinutos: 1,
	}

	db, err := infra.NewDatabase(pgURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(rdURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	srv := httptest.NewServer(router.New(cfg, db, rdb))
	t.Cleanup(srv.Close)

	return &testEnv{
		server: srv,
		db:     db,
		auth:   service.NewAuthService(repository.NewUsuarioRepository(db), cfg),
	}
}

func (e *testEnv) usuario(t *testing.T, username, rol, saldo string) (string, uuid.UUID) {
	t.Helper()
	u, err := e.auth.CrearOActualizar(context.Background(), service.NuevoUsuario{
		Username: username, Nombre: username, Password: "secreto123",
		Rol: rol, Saldo: decimal.RequireFromString(saldo),
	})
	require.NoError(t, err)

	var login dto.LoginResponse
	resp := e.do(t, http.MethodPost, "/v1/auth/login", dto.LoginRequest{Username: username, Password: "secreto123"}, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &login)
	return login.AccessToken, uuid.MustParse(u.ID)
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token, sesion string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if sesion != "" {
		req.Header.Set("X-Sesion-ID", sesion)
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func (e *testEnv) crearProducto(t *testing.T, token, cantidad string) dto.ProductoResponse {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/v1/productos", map[string]string{
		"nombre":        "Amonite",
		"precio_costo":  "10.00",
		"margen_pct":    "50",
		"cantidad":      cantidad,
		"unidad_medida": "UN",
	}, token, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p dto.ProductoResponse
	decodeJSON(t, resp, &p)
	return p
}

// finalizarEnParalelo fills one cart per session with a single unit and then
// fires every checkout at once. It returns the status codes.
func (e *testEnv) finalizarEnParalelo(t *testing.T, token, productoID string, sesiones int) []int {
	t.Helper()
	for i := 0; i < sesiones; i++ {
		resp := e.do(t, http.MethodPost, "/v1/venta-rapida/carrito/"+productoID, nil, token, fmt.Sprintf("s%d", i))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	codes := make([]int, sesiones)
	var wg sync.WaitGroup
	for i := 0; i < sesiones; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := e.do(t, http.MethodPost, "/v1/venta-rapida/finalizar",
				map[string]string{"forma_pago": "efectivo", "descuento": "0"}, token, fmt.Sprintf("s%d", i))
			codes[i] = resp.StatusCode
			resp.Body.Close()
		}(i)
	}
	wg.Wait()
	return codes
}

func contarCodigos(codes []int) map[int]int {
	out := map[int]int{}
	for _, c := range codes {
		out[c]++
	}
	return out
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_CheckoutsConcurrentesNoSobrevenden(t *testing.T) {
	env := setupTestEnv(t)
	admin, _ := env.usuario(t, "admin", model.RolAdministrador, "0")
	vendedor, vendedorID := env.usuario(t, "vendedor", model.RolVendedor, "1000.00")
	prod := env.crearProducto(t, admin, "5")

	codes := contarCodigos(env.finalizarEnParalelo(t, vendedor, prod.ID, 10))
	assert.Equal(t, 5, codes[http.StatusCreated])
	assert.Equal(t, 5, codes[http.StatusConflict])

	var p model.Producto
	require.NoError(t, env.db.First(&p, "id = ?", prod.ID).Error)
	assert.True(t, p.Cantidad.IsZero(), "cantidad final %s", p.Cantidad)

	var u model.Usuario
	require.NoError(t, env.db.First(&u, "id = ?", vendedorID).Error)
	assert.True(t, u.Saldo.Equal(decimal.RequireFromString("925.00")), "saldo final %s", u.Saldo)

	var salidas int64
	env.db.Model(&model.MovimientoStock{}).Where("producto_id = ? AND tipo = ?", prod.ID, model.MovimientoSalida).Count(&salidas)
	assert.EqualValues(t, 5, salidas)

	var eventos int64
	env.db.Model(&model.EventoOutbox{}).Count(&eventos)
	assert.EqualValues(t, 5, eventos)
}

func TestE2E_SaldoNoQuedaNegativo(t *testing.T) {
	env := setupTestEnv(t)
	admin, _ := env.usuario(t, "admin", model.RolAdministrador, "0")
	vendedor, vendedorID := env.usuario(t, "vendedor", model.RolVendedor, "30.00")
	prod := env.crearProducto(t, admin, "10")

	codes := contarCodigos(env.finalizarEnParalelo(t, vendedor, prod.ID, 5))
	assert.Equal(t, 2, codes[http.StatusCreated])
	assert.Equal(t, 3, codes[http.StatusUnprocessableEntity])

	var u model.Usuario
	require.NoError(t, env.db.First(&u, "id = ?", vendedorID).Error)
	assert.True(t, u.Saldo.IsZero(), "saldo final %s", u.Saldo)

	var p model.Producto
	require.NoError(t, env.db.First(&p, "id = ?", prod.ID).Error)
	assert.True(t, p.Cantidad.Equal(decimal.NewFromInt(8)), "cantidad final %s", p.Cantidad)
}

func TestE2E_CheckConstraints(t *testing.T) {
	env := setupTestEnv(t)
	admin, _ := env.usuario(t, "admin", model.RolAdministrador, "0")
	prod := env.crearProducto(t, admin, "1")

	err := env.db.Exec("UPDATE productos SET cantidad = -1 WHERE id = ?", prod.ID).Error
	assert.Error(t, err)
	err = env.db.Exec("UPDATE usuarios SET saldo = -0.01").Error
	assert.Error(t, err)
}

func TestE2E_AnularDevuelveStockYSaldo(t *testing.T) {
	env := setupTestEnv(t)
	admin, _ := env.usuario(t, "admin", model.RolAdministrador, "0")
	vendedor, vendedorID := env.usuario(t, "vendedor", model.RolVendedor, "100.00")
	prod := env.crearProducto(t, admin, "3")

	require.Equal(t, []int{http.StatusCreated}, env.finalizarEnParalelo(t, vendedor, prod.ID, 1))

	var ventas dto.VentaListResponse
	decodeJSON(t, env.do(t, http.MethodGet, "/v1/ventas?estado=all", nil, admin, ""), &ventas)
	require.Len(t, ventas.Data, 1)

	resp := env.do(t, http.MethodDelete, "/v1/ventas/"+ventas.Data[0].ID, map[string]string{"motivo": "devolucion"}, admin, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	var p model.Producto
	require.NoError(t, env.db.First(&p, "id = ?", prod.ID).Error)
	assert.True(t, p.Cantidad.Equal(decimal.NewFromInt(3)))

	var u model.Usuario
	require.NoError(t, env.db.First(&u, "id = ?", vendedorID).Error)
	assert.True(t, u.Saldo.Equal(decimal.RequireFromString("100.00")))

	// a second cancellation is rejected
	resp = env.do(t, http.MethodDelete, "/v1/ventas/"+ventas.Data[0].ID, map[string]string{"motivo": "devolucion"}, admin, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestE2E_RolesPorEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	estoquista, _ := env.usuario(t, "estoquista", model.RolEstoquista, "0")
	vendedor, _ := env.usuario(t, "vendedor", model.RolVendedor, "0")

	resp := env.do(t, http.MethodGet, "/v1/venta-rapida/catalogo", nil, estoquista, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/v1/productos", map[string]string{}, vendedor, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/v1/productos", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/health", nil, "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
