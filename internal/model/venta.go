package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Venta is a completed sale. Deleting it reverses its stock and cash effects.
type Venta struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey"`
	NegocioID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	UsuarioID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	TotalPagado   decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	FormaPago     string           `gorm:"type:varchar(30);not null;default:'Efectivo'"`
	MontoRecibido *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Cambio        *decimal.Decimal `gorm:"type:decimal(12,2)"`
	FechaHora     time.Time        `gorm:"not null;index"`
	Ticket        *string          `gorm:"type:text"`

	Usuario  *Usuario       `gorm:"foreignKey:UsuarioID"`
	Detalles []DetalleVenta `gorm:"foreignKey:VentaID"`
}

func (Venta) TableName() string { return "ventas" }

func (v *Venta) BeforeCreate(_ *gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// DetalleVenta is one sale line. PrecioLista keeps the pre-discount price so
// reports can show the discount granted.
type DetalleVenta struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VentaID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	VarianteProductoID *uuid.UUID      `gorm:"type:uuid"`
	Cantidad           int             `gorm:"not null"`
	PrecioUnitario     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PrecioLista        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto         *Producto         `gorm:"foreignKey:ProductoID"`
	VarianteProducto *VarianteProducto `gorm:"foreignKey:VarianteProductoID"`
}

func (DetalleVenta) TableName() string { return "detalles_venta" }

func (d *DetalleVenta) BeforeCreate(_ *gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
