package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"ventarapida/internal/dto"
	"ventarapida/internal/middleware"
	"ventarapida/internal/service"

	"github.com/gin-gonic/gin"
)

type VentasHandler struct{ svc service.VentaService }

func NewVentasHandler(svc service.VentaService) *VentasHandler {
	return &VentasHandler{svc: svc}
}

// Listar godoc
// @Summary      Listar ventas
// @Tags         ventas
// @Produce      json
// @Security     BearerAuth
// @Param        fecha  query string false "Fecha (YYYY-MM-DD)"
// @Param        estado query string false "abierta | completada | cancelada | all"
// @Param        page   query int    false "Pagina"
// @Param        limit  query int    false "Tamano de pagina"
// @Success      200 {object} dto.VentaListResponse
// @Router       /v1/ventas [get]
func (h *VentasHandler) Listar(c *gin.Context) {
	var filter dto.VentaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarVentas(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VentasHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerVenta(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Ticket godoc
// @Summary      Ticket PDF de la venta
// @Tags         ventas
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "ID de la venta"
// @Success      200 {file} binary
// @Failure      404 {object} apierror.APIError
// @Router       /v1/ventas/{id}/ticket [get]
func (h *VentasHandler) Ticket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.svc.GenerarTicket(c.Request.Context(), id, &buf); err != nil {
		responderError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="ticket_%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// Anular godoc
// @Summary      Anular venta
// @Description  Devuelve el stock de cada item y el total al saldo del vendedor.
// @Tags         ventas
// @Accept       json
// @Security     BearerAuth
// @Param        id   path string                 true "ID de la venta"
// @Param        body body dto.AnularVentaRequest true "Motivo"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/ventas/{id} [delete]
func (h *VentasHandler) Anular(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AnularVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.AnularVenta(c.Request.Context(), id, req.Motivo, middleware.UsuarioID(c)); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
