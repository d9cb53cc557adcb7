package infra

// pdf.go: sale ticket rendered with go-pdf/fpdf.
// Receipt-sized page (74mm wide) with:
//   - store name header
//   - sale id, date and payment method
//   - item table (product, quantity, subtotal)
//   - discount line when applicable and the bold total

import (
	"fmt"
	"io"
	"strings"

	"ventarapida/internal/model"

	"github.com/go-pdf/fpdf"
)

const ticketAncho = 74.0

// GenerarTicketPDF writes the ticket of a sale to w. venta.Items must have
// Producto preloaded to print names.
func GenerarTicketPDF(w io.Writer, venta *model.Venta, tienda string) error {
	alto := 70.0 + 5.0*float64(len(venta.Items))
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: ticketAncho, Ht: alto},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()
	// core fonts are cp1252; convert accented text
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, tr(tienda), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "Venta "+venta.ID.String()[:8], "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 4, venta.CreatedAt.Format("02/01/2006  15:04"), "", 1, "C", false, 0, "")
	if venta.Estado == model.VentaCancelada {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW, 5, "ANULADA", "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Items ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.52
	col2 := contentW * 0.16
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range venta.Items {
		nombre := item.ProductoID.String()[:8]
		if item.Producto != nil {
			nombre = item.Producto.Nombre
		}
		if r := []rune(nombre); len(r) > 22 {
			nombre = string(r[:21]) + "."
		}
		pdf.CellFormat(col1, 5, tr(nombre), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, cantidadTicket(item.Cantidad.String()), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+item.Subtotal().StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 7)
	if !venta.Descuento.IsZero() {
		pdf.CellFormat(col1+col2, 5, "Descuento:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "-$"+venta.Descuento.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "$"+venta.Total.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(col1+col2, 4, "Forma de pago:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 4, venta.FormaPago, "", 1, "R", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("¡Gracias por su compra!"), "", 1, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write ticket: %w", err)
	}
	return nil
}

func cantidadTicket(s string) string {
	if strings.Contains(s, ".") {
		return s
	}
	return "x" + s
}
