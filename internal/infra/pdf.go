package infra

// PDF generation with go-pdf/fpdf.
//   - GenerateTicketPDF: thermal-receipt sized ticket of a stored sale, written
//     to storagePath/ticket_{id}.pdf by the ticket_pdf worker.
//   - GenerateReportePDF: A4 sales report returned as bytes for download.

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ventify/internal/dto"
	"ventify/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateTicketPDF renders venta as a receipt PDF and returns the file path.
// storagePath is created if needed.
func GenerateTicketPDF(negocio *model.Negocio, venta *model.Venta, loc *time.Location, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("ticket_%s.pdf", venta.ID))

	// 74mm × variable height, close to thermal receipt paper
	contacto := datosContacto(negocio)
	alto := 70 + float64(len(venta.Detalles))*9 + float64(len(contacto))*4
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: alto},
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, tr(strings.ToUpper(NombreComercial(negocio))), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	for _, l := range contacto {
		pdf.CellFormat(contentW, 4, tr(l), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(contentW, 5, "Ticket #"+TicketCorto(venta.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 4, venta.FechaHora.In(loc).Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	if venta.Usuario != nil {
		pdf.CellFormat(contentW, 4, tr("Cajero: "+venta.Usuario.Nombre), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(contentW, 4, tr("Pago: "+venta.FormaPago), "", 1, "L", false, 0, "")
	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Items ─────────────────────────────────────────────────────────────────
	col1 := contentW * 0.52
	col2 := contentW * 0.16
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, d := range venta.Detalles {
		nombre := "Producto"
		if d.Producto != nil {
			nombre = d.Producto.Nombre
		}
		pdf.CellFormat(col1, 5, tr(truncate(nombre, 22)), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", d.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+formatMonto(d.Subtotal), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "$"+formatMonto(venta.TotalPagado), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	if venta.MontoRecibido != nil {
		pdf.CellFormat(col1+col2, 4, "Recibido:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, "$"+formatMonto(*venta.MontoRecibido), "", 1, "R", false, 0, "")
	}
	if venta.Cambio != nil {
		pdf.CellFormat(col1+col2, 4, "Cambio:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, "$"+formatMonto(*venta.Cambio), "", 1, "R", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Gracias por su compra", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

// GenerateReportePDF renders a sales report on A4 and returns the document.
func GenerateReportePDF(r *dto.ReporteVentasResponse, loc *time.Location) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 8, tr(r.NombreNegocio), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, tr(fmt.Sprintf("Reporte de ventas del %s al %s",
		r.InicioReal.In(loc).Format("02/01/2006 15:04"), r.FinReal.In(loc).Format("02/01/2006 15:04"))), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 5, tr("Generado: "+r.FechaGeneracion.In(loc).Format("02/01/2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Resumen general ───────────────────────────────────────────────────────
	g := r.ResumenGeneral
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 7, "Resumen general", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	filas := [][2]string{
		{"Ventas", strconv.Itoa(g.TotalVentas)},
		{"Ingresos", "$" + formatMonto(g.TotalIngresos)},
		{"Ticket promedio", "$" + formatMonto(g.TicketPromedio)},
		{"Venta máxima", "$" + formatMonto(g.VentaMaxima)},
		{"Venta mínima", "$" + formatMonto(g.VentaMinima)},
		{"Efectivo", "$" + formatMonto(g.TotalEfectivo)},
		{"Tarjeta", "$" + formatMonto(g.TotalTarjeta)},
		{"Transferencia", "$" + formatMonto(g.TotalTransferencia)},
	}
	for _, f := range filas {
		pdf.CellFormat(contentW*0.5, 6, tr(f[0]), "B", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.5, 6, f[1], "B", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// ── Por periodo ───────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 7, tr("Ventas por "+r.TipoAgrupacion), "", 1, "L", false, 0, "")
	anchos := []float64{contentW * 0.28, contentW * 0.14, contentW * 0.2, contentW * 0.19, contentW * 0.19}
	pdf.SetFont("Helvetica", "B", 8)
	for i, h := range []string{"Periodo", "Ventas", "Ingresos", "Promedio", "Efectivo"} {
		pdf.CellFormat(anchos[i], 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 8)
	for _, p := range r.PorPeriodo {
		pdf.CellFormat(anchos[0], 6, p.Periodo, "1", 0, "L", false, 0, "")
		pdf.CellFormat(anchos[1], 6, strconv.Itoa(p.TotalVentas), "1", 0, "R", false, 0, "")
		pdf.CellFormat(anchos[2], 6, "$"+formatMonto(p.TotalIngresos), "1", 0, "R", false, 0, "")
		pdf.CellFormat(anchos[3], 6, "$"+formatMonto(p.TicketPromedio), "1", 0, "R", false, 0, "")
		pdf.CellFormat(anchos[4], 6, "$"+formatMonto(p.TotalEfectivo), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// ── Top productos ─────────────────────────────────────────────────────────
	if len(r.TopProductos) > 0 {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(contentW, 7, tr("Productos más vendidos"), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		for i, p := range r.TopProductos {
			pdf.CellFormat(contentW*0.6, 6, tr(fmt.Sprintf("%d. %s", i+1, p.ProductoNombre)), "B", 0, "L", false, 0, "")
			pdf.CellFormat(contentW*0.15, 6, strconv.FormatInt(p.CantidadVendida, 10), "B", 0, "R", false, 0, "")
			pdf.CellFormat(contentW*0.25, 6, "$"+formatMonto(p.TotalVentas), "B", 1, "R", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render report: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateInventarioPDF lists productos with their stock on A4.
func GenerateInventarioPDF(nombreNegocio string, productos []model.Producto, generado time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 8, tr(nombreNegocio), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, tr("Inventario al "+generado.Format("02/01/2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	anchos := []float64{contentW * 0.4, contentW * 0.2, contentW * 0.13, contentW * 0.13, contentW * 0.14}
	pdf.SetFont("Helvetica", "B", 8)
	for i, h := range []string{"Producto", "Categoría", "Stock", "Mínimo", "Precio"} {
		pdf.CellFormat(anchos[i], 6, tr(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 8)
	for _, p := range productos {
		pdf.CellFormat(anchos[0], 6, tr(truncate(p.Nombre, 40)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(anchos[1], 6, tr(truncate(p.Categoria, 18)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(anchos[2], 6, strconv.Itoa(p.StockActual), "1", 0, "R", false, 0, "")
		pdf.CellFormat(anchos[3], 6, strconv.Itoa(p.StockMinimo), "1", 0, "R", false, 0, "")
		pdf.CellFormat(anchos[4], 6, "$"+formatMonto(p.PrecioVenta), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render inventario: %w", err)
	}
	return buf.Bytes(), nil
}
