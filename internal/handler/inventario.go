package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"ventarapida/internal/dto"
	"ventarapida/internal/middleware"
	"ventarapida/internal/service"

	"github.com/gin-gonic/gin"
)

const contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type InventarioHandler struct {
	svc       service.InventarioService
	productos service.ProductoService
}

func NewInventarioHandler(svc service.InventarioService, productos service.ProductoService) *InventarioHandler {
	return &InventarioHandler{svc: svc, productos: productos}
}

// Recuento godoc
// @Summary      Recuento de inventario
// @Description  Fija la cantidad contada; si difiere de la registrada se genera un ajuste.
// @Tags         inventario
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RecuentoRequest true "Codigo y cantidad contada"
// @Success      200 {object} dto.RecuentoResponse
// @Failure      400 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Router       /v1/inventario/recuento [post]
func (h *InventarioHandler) Recuento(c *gin.Context) {
	var req dto.RecuentoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Recontar(c.Request.Context(), req, middleware.UsuarioID(c))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Relatorio godoc
// @Summary      Relatorio de inventario valorizado
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Param        codigo_desde query string false "Codigo inicial"
// @Param        codigo_hasta query string false "Codigo final"
// @Param        codigos      query string false "Codigos separados por coma"
// @Param        activo       query string false "true | false | all"
// @Success      200 {object} dto.RelatorioInventarioResponse
// @Router       /v1/inventario/relatorio [get]
func (h *InventarioHandler) Relatorio(c *gin.Context) {
	var filter dto.ProductoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Relatorio(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RelatorioXLSX godoc
// @Summary      Relatorio de inventario en Excel
// @Tags         inventario
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Success      200 {file} binary
// @Router       /v1/inventario/relatorio.xlsx [get]
func (h *InventarioHandler) RelatorioXLSX(c *gin.Context) {
	var filter dto.ProductoFilter
	if !bindQuery(c, &filter) {
		return
	}
	// Buffered so a failure halfway does not leave a truncated file with a 200.
	var buf bytes.Buffer
	if err := h.svc.ExportarRelatorio(c.Request.Context(), filter, &buf); err != nil {
		responderError(c, err)
		return
	}
	nombre := fmt.Sprintf("inventario_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, nombre))
	c.Data(http.StatusOK, contentTypeXLSX, buf.Bytes())
}

// Alertas godoc
// @Summary      Productos activos por debajo de la cantidad minima
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.AlertaStockResponse
// @Router       /v1/inventario/alertas [get]
func (h *InventarioHandler) Alertas(c *gin.Context) {
	resp, err := h.svc.ObtenerAlertas(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Historial godoc
// @Summary      Historial de movimientos por busqueda
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Param        q query string true "Codigo o nombre"
// @Success      200 {object} dto.MovimientoListResponse
// @Router       /v1/inventario/historial [get]
func (h *InventarioHandler) Historial(c *gin.Context) {
	page, limit := paginacion(c, 50)
	resp, err := h.productos.HistorialPorBusqueda(c.Request.Context(), c.Query("q"), page, limit)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
