package infra

import (
	"fmt"
	"io"
	"time"

	"ventarapida/internal/model"

	"github.com/xuri/excelize/v2"
)

const hojaInventario = "Inventario"

var columnasInventario = []string{
	"Codigo", "Nombre", "Categoria", "Unidad", "Cantidad", "Minimo",
	"Costo", "Margen %", "Precio venta", "Valor costo", "Valor venta",
	"Proveedor", "Direccion", "Activo",
}

// EscribirRelatorioInventario writes the inventory report as an .xlsx
// workbook with one row per product and a totals row.
func EscribirRelatorioInventario(w io.Writer, productos []model.Producto, generado time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", hojaInventario); err != nil {
		return fmt.Errorf("excel: rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("excel: style: %w", err)
	}

	if err := f.SetSheetRow(hojaInventario, "A1", &[]interface{}{"Relatorio de inventario", generado.Format("02/01/2006 15:04")}); err != nil {
		return err
	}
	header := make([]interface{}, len(columnasInventario))
	for i, c := range columnasInventario {
		header[i] = c
	}
	if err := f.SetSheetRow(hojaInventario, "A3", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(hojaInventario, 3, 3, bold); err != nil {
		return err
	}

	fila := 4
	for _, p := range productos {
		cantidad, _ := p.Cantidad.Float64()
		minimo, _ := p.CantidadMinima.Float64()
		costo, _ := p.PrecioCosto.Float64()
		margen, _ := p.MargenPct.Float64()
		venta, _ := p.PrecioVenta.Float64()
		valorCosto, _ := p.Cantidad.Mul(p.PrecioCosto).RoundBank(2).Float64()
		valorVenta, _ := p.Cantidad.Mul(p.PrecioVenta).RoundBank(2).Float64()
		activo := "no"
		if p.Activo {
			activo = "si"
		}
		row := []interface{}{
			p.Codigo, p.Nombre, p.Categoria, p.UnidadMedida, cantidad, minimo,
			costo, margen, venta, valorCosto, valorVenta,
			p.Proveedor, p.DireccionDeposito, activo,
		}
		celda, err := excelize.CoordinatesToCellName(1, fila)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(hojaInventario, celda, &row); err != nil {
			return fmt.Errorf("excel: fila %d: %w", fila, err)
		}
		fila++
	}

	if len(productos) > 0 {
		total := fila
		if err := f.SetCellValue(hojaInventario, fmt.Sprintf("A%d", total), "TOTAL"); err != nil {
			return err
		}
		for _, col := range []string{"J", "K"} {
			formula := fmt.Sprintf("SUM(%s4:%s%d)", col, col, total-1)
			if err := f.SetCellFormula(hojaInventario, fmt.Sprintf("%s%d", col, total), formula); err != nil {
				return err
			}
		}
		if err := f.SetRowStyle(hojaInventario, total, total, bold); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("excel: write: %w", err)
	}
	return nil
}
