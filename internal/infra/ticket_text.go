package infra

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"ventify/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AnchoTicket is the column count of a 58 mm thermal roll.
const AnchoTicket = 32

var tasaIVA = decimal.RequireFromString("1.16")

// NombreComercial is the business name printed on receipts; n may be nil.
func NombreComercial(n *model.Negocio) string {
	if n == nil || strings.TrimSpace(n.Nombre) == "" {
		return "VENTIFY"
	}
	return strings.TrimSpace(n.Nombre)
}

// datosContacto returns the optional perfil lines under the business name.
func datosContacto(n *model.Negocio) []string {
	if n == nil {
		return nil
	}
	var out []string
	add := func(prefijo string, s *string) {
		if s != nil && strings.TrimSpace(*s) != "" {
			out = append(out, prefijo+strings.TrimSpace(*s))
		}
	}
	add("", n.Direccion)
	add("Tel. ", n.Telefono)
	add("RFC: ", n.RFC)
	return out
}

// FormatTicket lays out v on AnchoTicket columns under the negocio's perfil
// (n may be nil). Prices are IVA-inclusive, so Subtotal is the total without
// the 16% tax.
func FormatTicket(n *model.Negocio, v *model.Venta, loc *time.Location) string {
	const w = AnchoTicket
	sep := strings.Repeat("-", w)
	cajero := "Cajero"
	if v.Usuario != nil && v.Usuario.Nombre != "" {
		cajero = v.Usuario.Nombre
	}
	pago := v.FormaPago
	if pago == "" {
		pago = "N/A"
	}

	var b strings.Builder
	linea := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	linea(center(strings.ToUpper(NombreComercial(n)), w))
	for _, l := range datosContacto(n) {
		linea(center(l, w))
	}
	linea(center("Ticket #"+TicketCorto(v.ID), w))
	linea(center(v.FechaHora.In(loc).Format("02/01/2006 15:04"), w))
	linea(sep)
	linea(alignKV("Cajero", cajero, w))
	linea(alignKV("Pago", pago, w))
	linea(sep)

	for _, d := range v.Detalles {
		nombre := "Producto " + TicketCorto(d.ProductoID)
		if d.Producto != nil {
			nombre = d.Producto.Nombre
		}
		if d.VarianteProducto != nil {
			nombre += " " + d.VarianteProducto.Nombre
		}
		linea(truncate(nombre, w))
		linea(alignKV(fmt.Sprintf("%d x %s", d.Cantidad, formatMonto(d.PrecioUnitario)), "$"+formatMonto(d.Subtotal), w))
	}

	total := v.TotalPagado
	subtotal := total.Div(tasaIVA).Round(2)
	linea(sep)
	linea(alignKV("Subtotal", "$"+formatMonto(subtotal), w))
	linea(alignKV("IVA (16%)", "$"+formatMonto(total.Sub(subtotal)), w))
	linea(alignKV("TOTAL", "$"+formatMonto(total), w))
	if v.MontoRecibido != nil {
		linea(alignKV("Recibido", "$"+formatMonto(*v.MontoRecibido), w))
	}
	if v.Cambio != nil {
		linea(alignKV("Cambio", "$"+formatMonto(*v.Cambio), w))
	}
	linea(sep)
	linea(center("Gracias por su compra", w))
	return b.String()
}

// TicketCorto is the human-facing sale number printed on receipts.
func TicketCorto(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return truncate(s, width)
	}
	pad := (width - n) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-n-pad)
}

// alignKV renders "key:" flush left and value flush right on exactly width
// columns, shortening the key when both do not fit.
func alignKV(key, value string, width int) string {
	vn := utf8.RuneCountInString(value)
	maxKey := width - vn - 2
	if maxKey < 0 {
		maxKey = 0
	}
	key = truncate(key, maxKey)
	spaces := width - utf8.RuneCountInString(key) - 1 - vn
	if spaces < 1 {
		spaces = 1
	}
	return key + ":" + strings.Repeat(" ", spaces) + value
}

// formatMonto renders d with two decimals and comma thousand separators.
func formatMonto(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	entero, frac := s[:len(s)-3], s[len(s)-3:]
	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, c := range entero {
		if i > 0 && (len(entero)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteString(frac)
	return b.String()
}
