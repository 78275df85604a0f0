package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	MontoInicial decimal.Decimal `json:"monto_inicial"`
	Turno        string          `json:"turno" validate:"max=50"`
}

type CerrarCajaRequest struct {
	MontoCierre   *decimal.Decimal `json:"monto_cierre"`
	ResumenCierre *string          `json:"resumen_cierre" validate:"omitempty,max=1000"`
}

// MovimientoCajaRequest registers a manual inflow/outflow. Tipo is validated
// by the ledger so callers get its message verbatim.
type MovimientoCajaRequest struct {
	Tipo        string          `json:"tipo"`
	Monto       decimal.Decimal `json:"monto"`
	Categoria   string          `json:"categoria"   validate:"max=100"`
	Descripcion *string         `json:"descripcion" validate:"omitempty,max=500"`
	MetodoPago  *string         `json:"metodo_pago" validate:"omitempty,max=30"`
	Referencia  *string         `json:"referencia"  validate:"omitempty,max=100"`
}

// MovimientoCajaFilter is bound from the query string of GET /v1/caja/movimientos.
// Desde/Hasta are RFC3339 or YYYY-MM-DD.
type MovimientoCajaFilter struct {
	CajaID string `form:"caja_id" validate:"omitempty,uuid"`
	Desde  string `form:"desde"`
	Hasta  string `form:"hasta"`
	Tipo   string `form:"tipo"    validate:"omitempty,oneof=entrada salida"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CajaResponse struct {
	ID              string           `json:"id"`
	Turno           string           `json:"turno"`
	AbiertaPor      string           `json:"abierta_por"`
	FechaApertura   string           `json:"fecha_apertura"`
	MontoInicial    decimal.Decimal  `json:"monto_inicial"`
	MontoActual     decimal.Decimal  `json:"monto_actual"`
	Abierta         bool             `json:"abierta"`
	FechaCierre     *string          `json:"fecha_cierre"`
	UsuarioCierreID *string          `json:"usuario_cierre_id"`
	MontoCierre     *decimal.Decimal `json:"monto_cierre"`
	ResumenCierre   *string          `json:"resumen_cierre"`
}

type MovimientoCajaResponse struct {
	ID            string          `json:"id"`
	CajaID        string          `json:"caja_id"`
	Tipo          string          `json:"tipo"`
	Monto         decimal.Decimal `json:"monto"`
	Categoria     string          `json:"categoria"`
	Descripcion   *string         `json:"descripcion"`
	MetodoPago    string          `json:"metodo_pago"`
	Referencia    *string         `json:"referencia"`
	SaldoDespues  decimal.Decimal `json:"saldo_despues"`
	FechaHora     string          `json:"fecha_hora"`
	UsuarioNombre string          `json:"usuario_nombre"`
}

type CategoriaResumen struct {
	Categoria string          `json:"categoria"`
	Tipo      string          `json:"tipo"`
	Total     decimal.Decimal `json:"total"`
	Cantidad  int64           `json:"cantidad"`
}

type ResumenCajaResponse struct {
	CajaID        string             `json:"caja_id"`
	MontoInicial  decimal.Decimal    `json:"monto_inicial"`
	MontoActual   decimal.Decimal    `json:"monto_actual"`
	TotalEntradas decimal.Decimal    `json:"total_entradas"`
	TotalSalidas  decimal.Decimal    `json:"total_salidas"`
	GananciaReal  decimal.Decimal    `json:"ganancia_real"`
	PorCategoria  []CategoriaResumen `json:"por_categoria"`
}

type HistorialCajaResponse struct {
	Data  []CajaResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
