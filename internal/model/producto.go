package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Producto is a tenant-scoped catalog item.
// CantidadInicial is the cumulative number of units ever received and Merma the
// cumulative shrinkage. StockActual starts as CantidadInicial - Merma and then
// drifts with sales and manual edits.
type Producto struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	NegocioID       uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_productos_negocio_barcode,priority:1"`
	Nombre          string    `gorm:"index;not null"`
	Descripcion     *string
	CodigoBarras    *string         `gorm:"type:varchar(64);uniqueIndex:ux_productos_negocio_barcode,priority:2"`
	Categoria       string          `gorm:"type:varchar(100)"`
	UnidadMedida    string          `gorm:"type:varchar(20);not null;default:'unidad'"`
	PrecioCompra    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PrecioVenta     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CantidadInicial int             `gorm:"not null;default:0"`
	Merma           int             `gorm:"not null;default:0;check:chk_productos_merma,merma >= 0 AND merma <= cantidad_inicial"`
	StockActual     int             `gorm:"not null;default:0;check:chk_productos_stock,stock_actual >= 0"`
	StockMinimo     int             `gorm:"not null;default:0;check:chk_productos_stock_minimo,stock_minimo >= 0"`
	Activo          bool            `gorm:"not null;default:true"`

	// Descuento. Only dueno/gerente set it; the effective price is always
	// computed at read time and never stored.
	DescuentoPorcentaje  *decimal.Decimal `gorm:"type:decimal(5,2)"`
	DescuentoFechaInicio *time.Time
	DescuentoFechaFin    *time.Time
	DescuentoHoraInicio  *HoraDelDia `gorm:"type:integer"`
	DescuentoHoraFin     *HoraDelDia `gorm:"type:integer"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Variantes []VarianteProducto `gorm:"foreignKey:ProductoID"`
}

func (Producto) TableName() string { return "productos" }

func (p *Producto) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// VarianteProducto is a sellable presentation of a product ("600 ml", "Rojo").
// Stock is tracked on the parent product; Precio, when set, replaces the
// parent's list price.
type VarianteProducto struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey"`
	ProductoID uuid.UUID        `gorm:"type:uuid;not null;index"`
	NegocioID  uuid.UUID        `gorm:"type:uuid;not null;index"`
	Nombre     string           `gorm:"not null"`
	Precio     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Codigo     *string          `gorm:"type:varchar(64)"`
	CreatedAt  time.Time
}

func (VarianteProducto) TableName() string { return "variantes_producto" }

func (v *VarianteProducto) BeforeCreate(_ *gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
