package service

import (
	"time"

	"ventarapida/internal/dto"
	"ventarapida/internal/model"
	"ventarapida/internal/stock"
)

const fechaLayout = "2006-01-02"

func productoToResponse(p *model.Producto) dto.ProductoResponse {
	var vence *string
	if p.FechaVencimiento != nil {
		s := p.FechaVencimiento.Format(fechaLayout)
		vence = &s
	}
	return dto.ProductoResponse{
		ID:                p.ID.String(),
		Codigo:            p.Codigo,
		Nombre:            p.Nombre,
		Descripcion:       p.Descripcion,
		Categoria:         p.Categoria,
		PrecioCosto:       p.PrecioCosto,
		MargenPct:         p.MargenPct,
		PrecioVenta:       p.PrecioVenta,
		Cantidad:          p.Cantidad,
		CantidadMinima:    p.CantidadMinima,
		UnidadMedida:      p.UnidadMedida,
		Proveedor:         p.Proveedor,
		DireccionDeposito: p.DireccionDeposito,
		FechaVencimiento:  vence,
		Activo:            p.Activo,
		BajoMinimo:        p.BajoMinimo(),
	}
}

func productosToResponse(ps []model.Producto) []dto.ProductoResponse {
	out := make([]dto.ProductoResponse, len(ps))
	for i := range ps {
		out[i] = productoToResponse(&ps[i])
	}
	return out
}

func movimientoToResponse(m *model.MovimientoStock) dto.MovimientoResponse {
	r := dto.MovimientoResponse{
		ID:                m.ID.String(),
		ProductoID:        m.ProductoID.String(),
		Tipo:              m.Tipo,
		Cantidad:          m.Cantidad,
		PrecioCosto:       m.PrecioCosto,
		Proveedor:         m.Proveedor,
		DireccionDeposito: m.DireccionDeposito,
		Observacion:       m.Observacion,
		CreatedAt:         m.CreatedAt.Format(time.RFC3339),
	}
	if m.Producto != nil {
		r.ProductoCodigo = m.Producto.Codigo
		r.ProductoNombre = m.Producto.Nombre
	}
	if m.UsuarioID != nil {
		s := m.UsuarioID.String()
		r.UsuarioID = &s
	}
	if m.ReferenciaID != nil {
		s := m.ReferenciaID.String()
		r.ReferenciaID = &s
	}
	return r
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	items := make([]dto.ItemVentaResponse, len(v.Items))
	for i, it := range v.Items {
		nombre := ""
		if it.Producto != nil {
			nombre = it.Producto.Nombre
		}
		items[i] = dto.ItemVentaResponse{
			ProductoID:     it.ProductoID.String(),
			Producto:       nombre,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal(),
		}
	}

	var clienteID *string
	if v.ClienteID != nil {
		s := v.ClienteID.String()
		clienteID = &s
	}

	return &dto.VentaResponse{
		ID:              v.ID.String(),
		UsuarioID:       v.UsuarioID.String(),
		ClienteID:       clienteID,
		FormaPago:       v.FormaPago,
		Estado:          v.Estado,
		Items:           items,
		Descuento:       stock.Redondear(v.Descuento),
		Total:           stock.Redondear(v.Total),
		CostoTotal:      stock.Redondear(v.CostoTotal),
		Observaciones:   v.Observaciones,
		MotivoAnulacion: v.MotivoAnulacion,
		CreatedAt:       v.CreatedAt.Format(time.RFC3339),
	}
}

func clienteToResponse(c *model.Cliente) dto.ClienteResponse {
	return dto.ClienteResponse{
		ID:            c.ID.String(),
		Nombre:        c.Nombre,
		Documento:     c.Documento,
		Tipo:          c.Tipo,
		Email:         c.Email,
		Telefono:      c.Telefono,
		Observaciones: c.Observaciones,
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
	}
}
