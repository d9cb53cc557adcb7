package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ventarapida/internal/dto"
	"ventarapida/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ── Service mocks ────────────────────────────────────────────────────────────

type mockVentaService struct{ mock.Mock }

func (m *mockVentaService) AgregarAlCarrito(ctx context.Context, sesion string, productoID uuid.UUID) (*dto.CarritoResponse, error) {
	args := m.Called(ctx, sesion, productoID)
	return carritoOrNil(args.Get(0)), args.Error(1)
}

func (m *mockVentaService) QuitarDelCarrito(ctx context.Context, sesion string, productoID uuid.UUID) (*dto.CarritoResponse, error) {
	args := m.Called(ctx, sesion, productoID)
	return carritoOrNil(args.Get(0)), args.Error(1)
}

func (m *mockVentaService) VerCarrito(ctx context.Context, sesion string) (*dto.CarritoResponse, error) {
	args := m.Called(ctx, sesion)
	return carritoOrNil(args.Get(0)), args.Error(1)
}

func (m *mockVentaService) Finalizar(ctx context.Context, sesion string, usuarioID uuid.UUID, req dto.FinalizarVentaRequest) (*dto.VentaResponse, error) {
	args := m.Called(ctx, sesion, usuarioID, req)
	v, _ := args.Get(0).(*dto.VentaResponse)
	return v, args.Error(1)
}

func (m *mockVentaService) AnularVenta(ctx context.Context, id uuid.UUID, motivo string, usuarioID uuid.UUID) error {
	return m.Called(ctx, id, motivo, usuarioID).Error(0)
}

func (m *mockVentaService) ListarVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).(*dto.VentaListResponse)
	return v, args.Error(1)
}

func (m *mockVentaService) ObtenerVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*dto.VentaResponse)
	return v, args.Error(1)
}

func (m *mockVentaService) GenerarTicket(ctx context.Context, id uuid.UUID, w io.Writer) error {
	args := m.Called(ctx, id, w)
	if args.Error(0) == nil {
		_, _ = w.Write([]byte("%PDF-1.3"))
	}
	return args.Error(0)
}

func carritoOrNil(v interface{}) *dto.CarritoResponse {
	c, _ := v.(*dto.CarritoResponse)
	return c
}

type mockProductoService struct{ mock.Mock }

func (m *mockProductoService) Crear(ctx context.Context, req dto.CrearProductoRequest, usuarioID uuid.UUID) (*dto.ProductoResponse, error) {
	args := m.Called(ctx, req, usuarioID)
	return productoOrNil(args.Get(0)), args.Error(1)
}

func (m *mockProductoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	args := m.Called(ctx, id)
	return productoOrNil(args.Get(0)), args.Error(1)
}

func (m *mockProductoService) ObtenerPorCodigo(ctx context.Context, codigo string) (*dto.ProductoResponse, error) {
	args := m.Called(ctx, codigo)
	return productoOrNil(args.Get(0)), args.Error(1)
}

func (m *mockProductoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).(*dto.ProductoListResponse)
	return v, args.Error(1)
}

func (m *mockProductoService) Catalogo(ctx context.Context, q string) ([]dto.ProductoResponse, error) {
	args := m.Called(ctx, q)
	v, _ := args.Get(0).([]dto.ProductoResponse)
	return v, args.Error(1)
}

func (m *mockProductoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest, usuarioID uuid.UUID) (*dto.ProductoResponse, error) {
	args := m.Called(ctx, id, req, usuarioID)
	return productoOrNil(args.Get(0)), args.Error(1)
}

func (m *mockProductoService) IngresarStock(ctx context.Context, codigo string, req dto.IngresarStockRequest, usuarioID uuid.UUID) (*dto.ProductoResponse, error) {
	args := m.Called(ctx, codigo, req, usuarioID)
	return productoOrNil(args.Get(0)), args.Error(1)
}

func (m *mockProductoService) Desactivar(ctx context.Context, id uuid.UUID, usuarioID uuid.UUID) error {
	return m.Called(ctx, id, usuarioID).Error(0)
}

func (m *mockProductoService) Reactivar(ctx context.Context, id uuid.UUID, usuarioID uuid.UUID) (*dto.ProductoResponse, error) {
	args := m.Called(ctx, id, usuarioID)
	return productoOrNil(args.Get(0)), args.Error(1)
}

func (m *mockProductoService) Historial(ctx context.Context, id uuid.UUID, page, limit int) (*dto.MovimientoListResponse, error) {
	args := m.Called(ctx, id, page, limit)
	v, _ := args.Get(0).(*dto.MovimientoListResponse)
	return v, args.Error(1)
}

func (m *mockProductoService) HistorialPorBusqueda(ctx context.Context, q string, page, limit int) (*dto.MovimientoListResponse, error) {
	args := m.Called(ctx, q, page, limit)
	v, _ := args.Get(0).(*dto.MovimientoListResponse)
	return v, args.Error(1)
}

func (m *mockProductoService) ConsultaPrecio(ctx context.Context, codigo string) (*dto.ConsultaPreciosResponse, error) {
	args := m.Called(ctx, codigo)
	v, _ := args.Get(0).(*dto.ConsultaPreciosResponse)
	return v, args.Error(1)
}

func productoOrNil(v interface{}) *dto.ProductoResponse {
	p, _ := v.(*dto.ProductoResponse)
	return p
}

// ── HTTP helpers ─────────────────────────────────────────────────────────────

const testSecret = "test_jwt_secret_32_chars_minimum!"

func signToken(t *testing.T, userID, rol string, dur time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID, "username": "testuser", "rol": rol,
		"exp": time.Now().Add(dur).Unix(), "iat": time.Now().Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

// newRouter returns an engine whose routes run behind JWTAuth.
func newRouter() (*gin.Engine, *gin.RouterGroup) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	return r, r.Group("/", middleware.JWTAuth(testSecret))
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest))
}
