package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReporteFilter is bound from the query string of GET /v1/reportes/ventas.
type ReporteFilter struct {
	FechaInicio    string `form:"fecha_inicio"` // YYYY-MM-DD, ignored while a caja is open
	FechaFin       string `form:"fecha_fin"`
	TipoAgrupacion string `form:"agrupacion"   validate:"omitempty,oneof=dia semana mes anio"`
	MetodoPago     string `form:"metodo_pago"`
	Formato        string `form:"formato"      validate:"omitempty,oneof=json excel pdf"`
}

type ReporteAgregado struct {
	Periodo            string          `json:"periodo"`
	TotalVentas        int             `json:"total_ventas"`
	TotalIngresos      decimal.Decimal `json:"total_ingresos"`
	TicketPromedio     decimal.Decimal `json:"ticket_promedio"`
	VentaMaxima        decimal.Decimal `json:"venta_maxima"`
	VentaMinima        decimal.Decimal `json:"venta_minima"`
	CajerosActivos     int             `json:"cajeros_activos"`
	TotalEfectivo      decimal.Decimal `json:"total_efectivo"`
	TotalTarjeta       decimal.Decimal `json:"total_tarjeta"`
	TotalTransferencia decimal.Decimal `json:"total_transferencia"`
}

type ProductoMasVendido struct {
	ProductoID      string          `json:"producto_id"`
	ProductoNombre  string          `json:"producto_nombre"`
	CantidadVendida int64           `json:"cantidad_vendida"`
	TotalVentas     decimal.Decimal `json:"total_ventas"`
	Transacciones   int64           `json:"transacciones"`
}

type ReporteVentasResponse struct {
	NombreNegocio   string               `json:"nombre_negocio"`
	FechaGeneracion time.Time            `json:"fecha_generacion"`
	TipoAgrupacion  string               `json:"tipo_agrupacion"`
	InicioReal      time.Time            `json:"inicio_real"`
	FinReal         time.Time            `json:"fin_real"`
	ModoCajaAbierta bool                 `json:"modo_caja_abierta"`
	ResumenGeneral  ReporteAgregado      `json:"resumen_general"`
	PorPeriodo      []ReporteAgregado    `json:"por_periodo"`
	TopProductos    []ProductoMasVendido `json:"top_productos"`
}
