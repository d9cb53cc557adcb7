package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"ventarapida/internal/apierror"
	"ventarapida/internal/middleware"
	"ventarapida/internal/service"
	"ventarapida/internal/stock"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SesionHeader carries the quick-sale cart session. Without it the cart is
// keyed by the authenticated user.
const SesionHeader = "X-Sesion-ID"

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return validar(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros invalidos: "+err.Error()))
		return false
	}
	return validar(c, req)
}

func validar(c *gin.Context, req interface{}) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
	return false
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}

func paginacion(c *gin.Context, limitPorDefecto int) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(limitPorDefecto)))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = limitPorDefecto
	}
	return page, limit
}

func sesionCarrito(c *gin.Context) string {
	if s := c.GetHeader(SesionHeader); s != "" {
		return s
	}
	return middleware.UsuarioID(c).String()
}

// responderError maps service errors to the API envelope. Anything not
// recognised is logged and answered with a generic 500.
func responderError(c *gin.Context, err error) {
	var (
		sinStock *stock.StockInsuficienteError
		excedido *stock.DescuentoExcedidoError
		sinSaldo *stock.SaldoInsuficienteError
	)
	switch {
	case errors.As(err, &sinStock):
		c.JSON(http.StatusConflict, apierror.NewCodigo(apierror.CodigoStockInsuficiente, err.Error()))
	case errors.As(err, &excedido):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewCodigo(apierror.CodigoDescuentoExcedido, err.Error()))
	case errors.As(err, &sinSaldo):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewCodigo(apierror.CodigoSaldoInsuficiente, err.Error()))

	case errors.Is(err, stock.ErrProductoNoEncontrado),
		errors.Is(err, stock.ErrVentaNoEncontrada),
		errors.Is(err, stock.ErrClienteNoEncontrado),
		errors.Is(err, stock.ErrUsuarioNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.New(primeraLinea(err)))

	case errors.Is(err, stock.ErrValorInvalido),
		errors.Is(err, stock.ErrCantidadNegativa),
		errors.Is(err, stock.ErrCantidadNoPositiva),
		errors.Is(err, stock.ErrPrecioCostoInvalido),
		errors.Is(err, stock.ErrDescuentoNegativo),
		errors.Is(err, stock.ErrCarritoVacio),
		errors.Is(err, stock.ErrStockNegativo):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))

	case errors.Is(err, stock.ErrConflictoConcurrente),
		errors.Is(err, stock.ErrVentaNoAnulable),
		errors.Is(err, stock.ErrDocumentoDuplicado),
		errors.Is(err, stock.ErrCodigosAgotados):
		c.JSON(http.StatusConflict, apierror.NewCodigo(apierror.CodigoConflicto, err.Error()))

	case errors.Is(err, service.ErrCredencialesInvalidas),
		errors.Is(err, service.ErrTokenInvalido):
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))

	default:
		middleware.Log(c).Error().Err(err).Str("path", c.FullPath()).Msg("error no controlado")
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
	}
}

// primeraLinea strips wrapping context so not-found messages stay short.
func primeraLinea(err error) string {
	for _, sentinel := range []error{
		stock.ErrProductoNoEncontrado, stock.ErrVentaNoEncontrada,
		stock.ErrClienteNoEncontrado, stock.ErrUsuarioNoEncontrado,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
