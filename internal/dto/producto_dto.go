package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Nombre            string          `json:"nombre"             validate:"required,min=2,max=100"`
	Descripcion       string          `json:"descripcion"        validate:"max=2000"`
	PrecioCosto       decimal.Decimal `json:"precio_costo"       validate:"required,gt=0"`
	MargenPct         decimal.Decimal `json:"margen_pct"`
	Cantidad          decimal.Decimal `json:"cantidad"           validate:"min=0"`
	CantidadMinima    decimal.Decimal `json:"cantidad_minima"    validate:"min=0"`
	UnidadMedida      string          `json:"unidad_medida"      validate:"required,oneof=UN KG LT MT"`
	Categoria         string          `json:"categoria"          validate:"omitempty,oneof=fosil artesania mineral otro"`
	Proveedor         string          `json:"proveedor"          validate:"max=100"`
	DireccionDeposito string          `json:"direccion_deposito" validate:"max=255"`
	FechaVencimiento  *string         `json:"fecha_vencimiento"  validate:"omitempty,datetime=2006-01-02"`
	Activo            *bool           `json:"activo"`
}

// ActualizarProductoRequest edits any field except the code; nil fields are left as they are.
type ActualizarProductoRequest struct {
	Nombre            *string          `json:"nombre"             validate:"omitempty,min=2,max=100"`
	Descripcion       *string          `json:"descripcion"        validate:"omitempty,max=2000"`
	PrecioCosto       *decimal.Decimal `json:"precio_costo"       validate:"omitempty,gt=0"`
	MargenPct         *decimal.Decimal `json:"margen_pct"`
	Cantidad          *decimal.Decimal `json:"cantidad"           validate:"omitempty,min=0"`
	CantidadMinima    *decimal.Decimal `json:"cantidad_minima"    validate:"omitempty,min=0"`
	UnidadMedida      *string          `json:"unidad_medida"      validate:"omitempty,oneof=UN KG LT MT"`
	Categoria         *string          `json:"categoria"          validate:"omitempty,oneof=fosil artesania mineral otro"`
	Proveedor         *string          `json:"proveedor"          validate:"omitempty,max=100"`
	DireccionDeposito *string          `json:"direccion_deposito" validate:"omitempty,max=255"`
	FechaVencimiento  *string          `json:"fecha_vencimiento"  validate:"omitempty,datetime=2006-01-02"`
	Activo            *bool            `json:"activo"`
}

// IngresarStockRequest registers goods received from a supplier.
type IngresarStockRequest struct {
	Cantidad          decimal.Decimal `json:"cantidad"           validate:"required,gt=0"`
	PrecioCosto       decimal.Decimal `json:"precio_costo"       validate:"required,gt=0"`
	Proveedor         string          `json:"proveedor"          validate:"max=100"`
	DireccionDeposito string          `json:"direccion_deposito" validate:"max=255"`
	Activo            *bool           `json:"activo"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductoFilter struct {
	Q           string `form:"q"`
	CodigoDesde string `form:"codigo_desde"`
	CodigoHasta string `form:"codigo_hasta"`
	// Codigos is a comma separated list of exact codes.
	Codigos   string `form:"codigos"`
	Categoria string `form:"categoria"`
	// Activo: "true" (default) | "false" | "all"
	Activo string `form:"activo"`
	Page   int    `form:"page,default=1"  validate:"min=1"`
	Limit  int    `form:"limit,default=20" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID                string          `json:"id"`
	Codigo            string          `json:"codigo"`
	Nombre            string          `json:"nombre"`
	Descripcion       string          `json:"descripcion"`
	Categoria         string          `json:"categoria"`
	PrecioCosto       decimal.Decimal `json:"precio_costo"`
	MargenPct         decimal.Decimal `json:"margen_pct"`
	PrecioVenta       decimal.Decimal `json:"precio_venta"`
	Cantidad          decimal.Decimal `json:"cantidad"`
	CantidadMinima    decimal.Decimal `json:"cantidad_minima"`
	UnidadMedida      string          `json:"unidad_medida"`
	Proveedor         string          `json:"proveedor"`
	DireccionDeposito string          `json:"direccion_deposito"`
	FechaVencimiento  *string         `json:"fecha_vencimiento"`
	Activo            bool            `json:"activo"`
	BajoMinimo        bool            `json:"bajo_minimo"`
}

type ProductoListResponse struct {
	Data       []ProductoResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

type MovimientoResponse struct {
	ID                string          `json:"id"`
	ProductoID        string          `json:"producto_id"`
	ProductoCodigo    string          `json:"producto_codigo,omitempty"`
	ProductoNombre    string          `json:"producto_nombre,omitempty"`
	Tipo              string          `json:"tipo"`
	Cantidad          decimal.Decimal `json:"cantidad"`
	PrecioCosto       decimal.Decimal `json:"precio_costo"`
	Proveedor         string          `json:"proveedor"`
	DireccionDeposito string          `json:"direccion_deposito"`
	Observacion       string          `json:"observacion"`
	UsuarioID         *string         `json:"usuario_id"`
	ReferenciaID      *string         `json:"referencia_id"`
	CreatedAt         string          `json:"created_at"`
}

type MovimientoListResponse struct {
	Producto *ProductoResponse    `json:"producto,omitempty"`
	Data     []MovimientoResponse `json:"data"`
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	Limit    int                  `json:"limit"`
}

// ConsultaPreciosResponse is the public price-check payload.
type ConsultaPreciosResponse struct {
	Codigo          string          `json:"codigo"`
	Nombre          string          `json:"nombre"`
	PrecioVenta     decimal.Decimal `json:"precio_venta"`
	Categoria       string          `json:"categoria"`
	UnidadMedida    string          `json:"unidad_medida"`
	StockDisponible decimal.Decimal `json:"stock_disponible"`
}
