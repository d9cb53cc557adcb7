package handler

import (
	"net/http"

	"ventarapida/internal/dto"
	"ventarapida/internal/middleware"
	"ventarapida/internal/service"

	"github.com/gin-gonic/gin"
)

// VentaRapidaHandler drives the quick-sale screen: catalog, session cart and
// checkout. The cart is keyed by the X-Sesion-ID header.
type VentaRapidaHandler struct {
	ventas    service.VentaService
	productos service.ProductoService
}

func NewVentaRapidaHandler(ventas service.VentaService, productos service.ProductoService) *VentaRapidaHandler {
	return &VentaRapidaHandler{ventas: ventas, productos: productos}
}

// Catalogo godoc
// @Summary      Catalogo de productos activos
// @Tags         venta-rapida
// @Produce      json
// @Security     BearerAuth
// @Param        q query string false "Codigo o nombre"
// @Success      200 {array} dto.ProductoResponse
// @Router       /v1/venta-rapida/catalogo [get]
func (h *VentaRapidaHandler) Catalogo(c *gin.Context) {
	resp, err := h.productos.Catalogo(c.Request.Context(), c.Query("q"))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VerCarrito godoc
// @Summary      Carrito de la sesion
// @Tags         venta-rapida
// @Produce      json
// @Security     BearerAuth
// @Param        X-Sesion-ID header string false "Sesion de venta"
// @Success      200 {object} dto.CarritoResponse
// @Router       /v1/venta-rapida/carrito [get]
func (h *VentaRapidaHandler) VerCarrito(c *gin.Context) {
	resp, err := h.ventas.VerCarrito(c.Request.Context(), sesionCarrito(c))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Agregar godoc
// @Summary      Agregar una unidad al carrito
// @Tags         venta-rapida
// @Produce      json
// @Security     BearerAuth
// @Param        producto_id path string true "ID del producto"
// @Success      200 {object} dto.CarritoResponse
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/venta-rapida/carrito/{producto_id} [post]
func (h *VentaRapidaHandler) Agregar(c *gin.Context) {
	id, ok := parseID(c, "producto_id")
	if !ok {
		return
	}
	resp, err := h.ventas.AgregarAlCarrito(c.Request.Context(), sesionCarrito(c), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Quitar godoc
// @Summary      Quitar un producto del carrito
// @Tags         venta-rapida
// @Produce      json
// @Security     BearerAuth
// @Param        producto_id path string true "ID del producto"
// @Success      200 {object} dto.CarritoResponse
// @Router       /v1/venta-rapida/carrito/{producto_id} [delete]
func (h *VentaRapidaHandler) Quitar(c *gin.Context) {
	id, ok := parseID(c, "producto_id")
	if !ok {
		return
	}
	resp, err := h.ventas.QuitarDelCarrito(c.Request.Context(), sesionCarrito(c), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Finalizar godoc
// @Summary      Finalizar venta rapida
// @Description  Valida descuento, stock y saldo; descuenta el stock y el saldo del vendedor en una sola transaccion.
// @Tags         venta-rapida
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.FinalizarVentaRequest true "Forma de pago y descuento"
// @Success      201 {object} dto.VentaResponse
// @Failure      400 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError "Stock insuficiente"
// @Failure      422 {object} apierror.APIError "Descuento o saldo"
// @Router       /v1/venta-rapida/finalizar [post]
func (h *VentaRapidaHandler) Finalizar(c *gin.Context) {
	var req dto.FinalizarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ventas.Finalizar(c.Request.Context(), sesionCarrito(c), middleware.UsuarioID(c), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
