package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tipos de evento del libro de merma.
const (
	EventoReabastecimiento = "reabastecimiento"
	EventoMerma            = "merma"
	EventoAjuste           = "ajuste"
)

// MermaEvento is the immutable audit record of every stock/merma mutation.
// Cantidad is signed: positive for shrinkage reported, negative for a restock
// (net units received).
type MermaEvento struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	NegocioID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductoID   uuid.UUID `gorm:"type:uuid;not null;index"`
	UsuarioID    uuid.UUID `gorm:"type:uuid;not null"`
	Tipo         string    `gorm:"type:varchar(20);not null"`
	Cantidad     int       `gorm:"not null"`
	Motivo       string    `gorm:"not null"`
	StockAntes   int       `gorm:"not null"`
	StockDespues int       `gorm:"not null"`
	MermaAntes   int       `gorm:"not null"`
	MermaDespues int       `gorm:"not null"`
	FechaUTC     time.Time `gorm:"column:fecha_utc;not null;index"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (MermaEvento) TableName() string { return "merma_eventos" }

func (m *MermaEvento) BeforeCreate(_ *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
