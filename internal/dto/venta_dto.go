package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// FinalizarVentaRequest closes the session cart. Descuento is parsed by the
// service so malformed amounts surface as a validation message.
type FinalizarVentaRequest struct {
	Descuento     string  `json:"descuento"`
	FormaPago     string  `json:"forma_pago"     validate:"required,oneof=efectivo debito credito pix boleto"`
	ClienteID     *string `json:"cliente_id"     validate:"omitempty,uuid"`
	Observaciones string  `json:"observaciones"  validate:"max=1000"`
}

type AnularVentaRequest struct {
	Motivo string `json:"motivo" validate:"required,min=3,max=255"`
}

type VentaFilter struct {
	Fecha  string `form:"fecha"  validate:"omitempty,datetime=2006-01-02"`
	Estado string `form:"estado" validate:"omitempty,oneof=abierta completada cancelada all"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LineaCarritoResponse struct {
	ProductoID     string          `json:"producto_id"`
	Codigo         string          `json:"codigo"`
	Nombre         string          `json:"nombre"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type CarritoResponse struct {
	Lineas           []LineaCarritoResponse `json:"lineas"`
	TotalBruto       decimal.Decimal        `json:"total_bruto"`
	CostoTotal       decimal.Decimal        `json:"costo_total"`
	MargenDisponible decimal.Decimal        `json:"margen_disponible"`
}

type ItemVentaResponse struct {
	ProductoID     string          `json:"producto_id"`
	Producto       string          `json:"producto"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type VentaResponse struct {
	ID              string              `json:"id"`
	UsuarioID       string              `json:"usuario_id"`
	ClienteID       *string             `json:"cliente_id"`
	FormaPago       string              `json:"forma_pago"`
	Estado          string              `json:"estado"`
	Items           []ItemVentaResponse `json:"items"`
	Descuento       decimal.Decimal     `json:"descuento"`
	Total           decimal.Decimal     `json:"total"`
	CostoTotal      decimal.Decimal     `json:"costo_total"`
	Observaciones   string              `json:"observaciones"`
	MotivoAnulacion *string             `json:"motivo_anulacion,omitempty"`
	CreatedAt       string              `json:"created_at"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
