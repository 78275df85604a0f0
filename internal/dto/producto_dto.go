package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Nombre          string          `json:"nombre"        validate:"required,min=2,max=120"`
	Descripcion     *string         `json:"descripcion"`
	CodigoBarras    *string         `json:"codigo_barras" validate:"omitempty,max=64"`
	Categoria       string          `json:"categoria"     validate:"max=100"`
	UnidadMedida    string          `json:"unidad_medida" validate:"max=20"`
	PrecioCompra    decimal.Decimal `json:"precio_compra"`
	PrecioVenta     decimal.Decimal `json:"precio_venta"`
	CantidadInicial int             `json:"cantidad_inicial"`
	Merma           int             `json:"merma"`
	StockMinimo     int             `json:"stock_minimo"`
}

// ActualizarProductoRequest is a partial update. StockActual and Merma drive
// the stock reconciliation rules of the inventory ledger.
type ActualizarProductoRequest struct {
	Nombre          *string          `json:"nombre"        validate:"omitempty,min=2,max=120"`
	Descripcion     *string          `json:"descripcion"`
	CodigoBarras    *string          `json:"codigo_barras" validate:"omitempty,max=64"`
	Categoria       *string          `json:"categoria"     validate:"omitempty,max=100"`
	UnidadMedida    *string          `json:"unidad_medida" validate:"omitempty,max=20"`
	PrecioCompra    *decimal.Decimal `json:"precio_compra"`
	PrecioVenta     *decimal.Decimal `json:"precio_venta"`
	CantidadInicial *int             `json:"cantidad_inicial"`
	StockActual     *int             `json:"stock_actual"`
	Merma           *int             `json:"merma"`
	StockMinimo     *int             `json:"stock_minimo"`
}

// SetActivoRequest replaces the free-form patch body with the one recognized field.
type SetActivoRequest struct {
	Activo *bool `json:"activo" validate:"required"`
}

// DescuentoRequest sets or, with Porcentaje == nil, clears a product discount.
// Horas are "HH:MM" or "HH:MM:SS"; HoraFin < HoraInicio is an overnight window.
type DescuentoRequest struct {
	Porcentaje  *decimal.Decimal `json:"porcentaje"`
	FechaInicio *time.Time       `json:"fecha_inicio"`
	FechaFin    *time.Time       `json:"fecha_fin"`
	HoraInicio  *string          `json:"hora_inicio"`
	HoraFin     *string          `json:"hora_fin"`
}

type CrearVarianteRequest struct {
	Nombre string           `json:"nombre" validate:"required,min=1,max=80"`
	Precio *decimal.Decimal `json:"precio"`
	Codigo *string          `json:"codigo" validate:"omitempty,max=64"`
}

// ActualizarVarianteRequest is a partial update. SinPrecio drops the override
// so the variant sells at the parent's price again.
type ActualizarVarianteRequest struct {
	Nombre    *string          `json:"nombre"     validate:"omitempty,min=1,max=80"`
	Precio    *decimal.Decimal `json:"precio"`
	SinPrecio bool             `json:"sin_precio"`
	Codigo    *string          `json:"codigo"     validate:"omitempty,max=64"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductoFilter struct {
	Barcode   string `form:"barcode"`
	Nombre    string `form:"nombre"`
	Categoria string `form:"categoria"`
	Activo    string `form:"activo"` // "false" = inactivos, "all" = todos, default activos
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DescuentoResponse struct {
	Porcentaje  *decimal.Decimal `json:"porcentaje"`
	FechaInicio *time.Time       `json:"fecha_inicio"`
	FechaFin    *time.Time       `json:"fecha_fin"`
	HoraInicio  *string          `json:"hora_inicio"`
	HoraFin     *string          `json:"hora_fin"`
}

type VarianteResponse struct {
	ID     string           `json:"id"`
	Nombre string           `json:"nombre"`
	Precio *decimal.Decimal `json:"precio"`
	Codigo *string          `json:"codigo"`
}

type ProductoResponse struct {
	ID              string             `json:"id"`
	Nombre          string             `json:"nombre"`
	Descripcion     *string            `json:"descripcion"`
	CodigoBarras    *string            `json:"codigo_barras"`
	Categoria       string             `json:"categoria"`
	UnidadMedida    string             `json:"unidad_medida"`
	PrecioCompra    decimal.Decimal    `json:"precio_compra"`
	PrecioVenta     decimal.Decimal    `json:"precio_venta"`
	PrecioFinal     decimal.Decimal    `json:"precio_final"`
	TieneDescuento  bool               `json:"tiene_descuento"`
	Ahorro          decimal.Decimal    `json:"ahorro"`
	CantidadInicial int                `json:"cantidad_inicial"`
	Merma           int                `json:"merma"`
	StockActual     int                `json:"stock_actual"`
	StockMinimo     int                `json:"stock_minimo"`
	Activo          bool               `json:"activo"`
	Descuento       *DescuentoResponse `json:"descuento"`
	Variantes       []VarianteResponse `json:"variantes,omitempty"`
}

type ProductoListResponse struct {
	Data       []ProductoResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

// ConsultaPreciosResponse is returned by the barcode price check.
// PrecioFinal is computed on every request, never served from cache.
type ConsultaPreciosResponse struct {
	ProductoID      string          `json:"producto_id"`
	Nombre          string          `json:"nombre"`
	PrecioVenta     decimal.Decimal `json:"precio_venta"`
	PrecioFinal     decimal.Decimal `json:"precio_final"`
	TieneDescuento  bool            `json:"tiene_descuento"`
	StockDisponible int             `json:"stock_disponible"`
	Categoria       string          `json:"categoria"`
}
