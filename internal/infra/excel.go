package infra

import (
	"fmt"
	"time"

	"ventify/internal/dto"

	"github.com/xuri/excelize/v2"
)

// GenerateReporteExcel builds a workbook with three sheets: Resumen,
// Periodos and Top Productos.
func GenerateReporteExcel(r *dto.ReporteVentasResponse, loc *time.Location) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("excel: style: %w", err)
	}
	moneda, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("excel: style: %w", err)
	}

	const resumen = "Resumen"
	if err := f.SetSheetName("Sheet1", resumen); err != nil {
		return nil, err
	}
	g := r.ResumenGeneral
	filas := [][]interface{}{
		{"Negocio", r.NombreNegocio},
		{"Desde", r.InicioReal.In(loc).Format("02/01/2006 15:04")},
		{"Hasta", r.FinReal.In(loc).Format("02/01/2006 15:04")},
		{"Generado", r.FechaGeneracion.In(loc).Format("02/01/2006 15:04")},
		{"Ventas", g.TotalVentas},
		{"Ingresos", g.TotalIngresos.InexactFloat64()},
		{"Ticket promedio", g.TicketPromedio.InexactFloat64()},
		{"Venta máxima", g.VentaMaxima.InexactFloat64()},
		{"Venta mínima", g.VentaMinima.InexactFloat64()},
		{"Efectivo", g.TotalEfectivo.InexactFloat64()},
		{"Tarjeta", g.TotalTarjeta.InexactFloat64()},
		{"Transferencia", g.TotalTransferencia.InexactFloat64()},
	}
	for i, fila := range filas {
		if err := f.SetSheetRow(resumen, fmt.Sprintf("A%d", i+1), &fila); err != nil {
			return nil, err
		}
	}
	_ = f.SetCellStyle(resumen, "A1", fmt.Sprintf("A%d", len(filas)), header)
	_ = f.SetCellStyle(resumen, "B6", fmt.Sprintf("B%d", len(filas)), moneda)
	_ = f.SetColWidth(resumen, "A", "A", 20)
	_ = f.SetColWidth(resumen, "B", "B", 24)

	const periodos = "Periodos"
	if _, err := f.NewSheet(periodos); err != nil {
		return nil, err
	}
	encabezado := []interface{}{"Periodo", "Ventas", "Ingresos", "Promedio", "Máxima", "Mínima", "Cajeros", "Efectivo", "Tarjeta", "Transferencia"}
	if err := f.SetSheetRow(periodos, "A1", &encabezado); err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(periodos, "A1", "J1", header)
	for i, p := range r.PorPeriodo {
		fila := []interface{}{
			p.Periodo, p.TotalVentas,
			p.TotalIngresos.InexactFloat64(), p.TicketPromedio.InexactFloat64(),
			p.VentaMaxima.InexactFloat64(), p.VentaMinima.InexactFloat64(),
			p.CajerosActivos,
			p.TotalEfectivo.InexactFloat64(), p.TotalTarjeta.InexactFloat64(), p.TotalTransferencia.InexactFloat64(),
		}
		if err := f.SetSheetRow(periodos, fmt.Sprintf("A%d", i+2), &fila); err != nil {
			return nil, err
		}
	}
	if n := len(r.PorPeriodo); n > 0 {
		_ = f.SetCellStyle(periodos, "C2", fmt.Sprintf("F%d", n+1), moneda)
		_ = f.SetCellStyle(periodos, "H2", fmt.Sprintf("J%d", n+1), moneda)
	}
	_ = f.SetColWidth(periodos, "A", "A", 16)

	const top = "Top Productos"
	if _, err := f.NewSheet(top); err != nil {
		return nil, err
	}
	encabezado = []interface{}{"#", "Producto", "Cantidad", "Total", "Transacciones"}
	if err := f.SetSheetRow(top, "A1", &encabezado); err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(top, "A1", "E1", header)
	for i, p := range r.TopProductos {
		fila := []interface{}{i + 1, p.ProductoNombre, p.CantidadVendida, p.TotalVentas.InexactFloat64(), p.Transacciones}
		if err := f.SetSheetRow(top, fmt.Sprintf("A%d", i+2), &fila); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(top, "B", "B", 32)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("excel: write: %w", err)
	}
	return buf.Bytes(), nil
}
