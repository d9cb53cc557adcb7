package dto

import "github.com/shopspring/decimal"

// RecuentoRequest carries the counted quantity as text so malformed input is
// reported as a validation error instead of a binding error.
type RecuentoRequest struct {
	Codigo        string `json:"codigo"         validate:"required,len=6,numeric"`
	NuevaCantidad string `json:"nueva_cantidad" validate:"required"`
}

type RecuentoResponse struct {
	Codigo           string          `json:"codigo"`
	Nombre           string          `json:"nombre"`
	CantidadAnterior decimal.Decimal `json:"cantidad_anterior"`
	CantidadNueva    decimal.Decimal `json:"cantidad_nueva"`
	Ajustado         bool            `json:"ajustado"`
	Mensaje          string          `json:"mensaje"`
}

type AlertaStockResponse struct {
	ProductoID     string          `json:"producto_id"`
	Codigo         string          `json:"codigo"`
	Nombre         string          `json:"nombre"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	CantidadMinima decimal.Decimal `json:"cantidad_minima"`
}

// RelatorioInventarioResponse totals the listed stock at cost and at sale price.
type RelatorioInventarioResponse struct {
	Data       []ProductoResponse `json:"data"`
	Total      int64              `json:"total"`
	ValorCosto decimal.Decimal    `json:"valor_costo"`
	ValorVenta decimal.Decimal    `json:"valor_venta"`
	GeneradoEn string             `json:"generado_en"`
}
