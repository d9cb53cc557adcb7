package handler

import (
	"net/http"

	"ventarapida/internal/apierror"
	"ventarapida/internal/service"
	"ventarapida/internal/stock"

	"github.com/gin-gonic/gin"
)

// ConsultaPreciosHandler serves the public price check endpoint.
// No authentication required and no side effects.
type ConsultaPreciosHandler struct {
	svc service.ProductoService
}

func NewConsultaPreciosHandler(svc service.ProductoService) *ConsultaPreciosHandler {
	return &ConsultaPreciosHandler{svc: svc}
}

// PorCodigo godoc
// @Summary Consulta de precio por codigo (sin autenticacion)
// @Tags precio
// @Produce json
// @Param codigo path string true "Codigo de 6 digitos"
// @Success 200 {object} dto.ConsultaPreciosResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/precio/{codigo} [get]
func (h *ConsultaPreciosHandler) PorCodigo(c *gin.Context) {
	codigo := c.Param("codigo")
	if !stock.CodigoValido(codigo) {
		c.JSON(http.StatusBadRequest, apierror.New("codigo invalido"))
		return
	}
	resp, err := h.svc.ConsultaPrecio(c.Request.Context(), codigo)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
