package service

import (
	"time"

	"ventify/internal/model"

	"github.com/shopspring/decimal"
)

var cien = decimal.NewFromInt(100)

// DescuentoActivo reports whether p's discount applies at now. now must
// already be in the business time zone; date bounds compare as instants and
// hour bounds as the wall-clock time of now.
//
// A window with HoraFin < HoraInicio wraps past midnight. HoraInicio ==
// HoraFin places no time-of-day restriction.
func DescuentoActivo(p *model.Producto, now time.Time) bool {
	if p.DescuentoPorcentaje == nil || !p.DescuentoPorcentaje.IsPositive() {
		return false
	}
	if p.DescuentoFechaInicio != nil && now.Before(*p.DescuentoFechaInicio) {
		return false
	}
	if p.DescuentoFechaFin != nil && now.After(*p.DescuentoFechaFin) {
		return false
	}
	if p.DescuentoHoraInicio == nil || p.DescuentoHoraFin == nil {
		return true
	}

	inicio, fin := *p.DescuentoHoraInicio, *p.DescuentoHoraFin
	t := model.HoraDe(now)
	switch {
	case inicio == fin:
		return true
	case inicio < fin:
		return t >= inicio && t <= fin
	default:
		return !(t < inicio && t > fin)
	}
}

// PrecioConDescuento applies pct to lista, rounded half-up to cents.
func PrecioConDescuento(lista, pct decimal.Decimal) decimal.Decimal {
	factor := cien.Sub(pct).Div(cien)
	return lista.Mul(factor).Round(2)
}

// PrecioEfectivo is the price charged for p at now. It equals lista whenever
// the discount is inactive.
func PrecioEfectivo(p *model.Producto, lista decimal.Decimal, now time.Time) decimal.Decimal {
	if !DescuentoActivo(p, now) {
		return lista
	}
	return PrecioConDescuento(lista, *p.DescuentoPorcentaje)
}

// Ahorro is lista minus the effective price, zero when inactive.
func Ahorro(p *model.Producto, lista decimal.Decimal, now time.Time) decimal.Decimal {
	return lista.Sub(PrecioEfectivo(p, lista, now)).Round(2)
}
