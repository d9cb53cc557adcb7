package handler

import (
	"net/http"

	"ventarapida/internal/dto"
	"ventarapida/internal/middleware"
	"ventarapida/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductosHandler struct{ svc service.ProductoService }

func NewProductosHandler(svc service.ProductoService) *ProductosHandler {
	return &ProductosHandler{svc: svc}
}

// Crear godoc
// @Summary      Registrar producto
// @Description  Asigna el siguiente codigo de 6 digitos y registra la entrada inicial en el historial.
// @Tags         productos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearProductoRequest true "Producto"
// @Success      201 {object} dto.ProductoResponse
// @Failure      400 {object} apierror.APIError
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/productos [post]
func (h *ProductosHandler) Crear(c *gin.Context) {
	var req dto.CrearProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req, middleware.UsuarioID(c))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Buscar productos
// @Tags         productos
// @Produce      json
// @Security     BearerAuth
// @Param        q            query string false "Codigo o nombre"
// @Param        codigo_desde query string false "Codigo inicial"
// @Param        codigo_hasta query string false "Codigo final"
// @Param        categoria    query string false "Categoria"
// @Param        activo       query string false "true | false | all"
// @Success      200 {object} dto.ProductoListResponse
// @Router       /v1/productos [get]
func (h *ProductosHandler) Listar(c *gin.Context) {
	var filter dto.ProductoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) ObtenerPorID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) ObtenerPorCodigo(c *gin.Context) {
	resp, err := h.svc.ObtenerPorCodigo(c.Request.Context(), c.Param("codigo"))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar godoc
// @Summary      Editar producto
// @Description  Cambios de cantidad quedan registrados como ajuste en el historial.
// @Tags         productos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "ID del producto"
// @Param        body body dto.ActualizarProductoRequest true "Campos a modificar"
// @Success      200 {object} dto.ProductoResponse
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/productos/{id} [put]
func (h *ProductosHandler) Actualizar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req, middleware.UsuarioID(c))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) Desactivar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Desactivar(c.Request.Context(), id, middleware.UsuarioID(c)); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductosHandler) Reactivar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Reactivar(c.Request.Context(), id, middleware.UsuarioID(c))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// IngresarStock godoc
// @Summary      Entrada de mercaderia
// @Tags         productos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        codigo path string true "Codigo del producto"
// @Param        body   body dto.IngresarStockRequest true "Entrada"
// @Success      200 {object} dto.ProductoResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/productos/codigo/{codigo}/entrada [post]
func (h *ProductosHandler) IngresarStock(c *gin.Context) {
	var req dto.IngresarStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.IngresarStock(c.Request.Context(), c.Param("codigo"), req, middleware.UsuarioID(c))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Historial godoc
// @Summary      Historial de movimientos de un producto
// @Tags         productos
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string true  "ID del producto"
// @Param        page  query int    false "Pagina"
// @Param        limit query int    false "Tamano de pagina"
// @Success      200 {object} dto.MovimientoListResponse
// @Router       /v1/productos/{id}/movimientos [get]
func (h *ProductosHandler) Historial(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	page, limit := paginacion(c, 50)
	resp, err := h.svc.Historial(c.Request.Context(), id, page, limit)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
