package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles.
const (
	RolDueno       = "dueno"
	RolGerente     = "gerente"
	RolAlmacenista = "almacenista"
	RolCajero      = "cajero"
)

// Token kinds carried in the "typ" claim.
const (
	TokenAcceso  = "access"
	TokenRefresh = "refresh"
)

// Usuario stores system users with role-based access.
// NegocioID is nil only for accounts not yet attached to a business.
type Usuario struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	NegocioID    *uuid.UUID `gorm:"type:uuid;index"`
	Username     string     `gorm:"uniqueIndex;not null"`
	Nombre       string     `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Rol          string `gorm:"type:varchar(20);not null"`
	Activo       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Usuario) TableName() string { return "usuarios" }

func (u *Usuario) BeforeCreate(_ *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// Actor is the resolved identity every ledger operation runs as.
// It is built by the tenant middleware from the authenticated token and
// passed explicitly; no tenant is ever read from request bodies.
type Actor struct {
	NegocioID uuid.UUID
	UsuarioID uuid.UUID
	Rol       string
	Nombre    string
}
