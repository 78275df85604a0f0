package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Proveedor is a supplier of one negocio. RFC, when given, is unique within
// the negocio.
type Proveedor struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	NegocioID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_proveedores_negocio_rfc,priority:1"`
	Nombre    string    `gorm:"not null"`
	RFC       *string   `gorm:"column:rfc;type:varchar(20);uniqueIndex:ux_proveedores_negocio_rfc,priority:2"`
	Correo    *string
	Telefono  *string
	Direccion *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Proveedor) TableName() string { return "proveedores" }

func (p *Proveedor) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
