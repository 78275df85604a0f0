package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Negocio is one isolated business account (tenant). The contact fields form
// its perfil, printed in the receipt header.
type Negocio struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre        string    `gorm:"not null"`
	Direccion     *string
	Telefono      *string
	Correo        *string
	RFC           *string `gorm:"column:rfc;type:varchar(20)"`
	GiroComercial *string `gorm:"type:varchar(80)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Negocio) TableName() string { return "negocios" }

func (n *Negocio) BeforeCreate(_ *gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
