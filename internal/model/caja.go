package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tipos de movimiento de caja.
const (
	MovimientoEntrada = "entrada"
	MovimientoSalida  = "salida"
)

// Caja is a cash-drawer session. At most one row per negocio has Abierta=true;
// the partial unique index below enforces it at the database level.
type Caja struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	NegocioID         uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:ux_cajas_negocio_abierta,where:abierta = true"`
	UsuarioAperturaID uuid.UUID       `gorm:"type:uuid;not null"`
	AbiertaPor        string          `gorm:"not null"`
	Turno             string          `gorm:"type:varchar(50);not null;default:'General'"`
	FechaApertura     time.Time       `gorm:"not null"`
	MontoInicial      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MontoActual       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Abierta           bool            `gorm:"not null"`
	FechaCierre       *time.Time
	UsuarioCierreID   *uuid.UUID       `gorm:"type:uuid"`
	MontoCierre       *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ResumenCierre     *string          `gorm:"type:text"`

	Movimientos []MovimientoCaja `gorm:"foreignKey:CajaID"`
}

func (Caja) TableName() string { return "cajas" }

func (c *Caja) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// MovimientoCaja is an immutable ledger entry. SaldoDespues snapshots the
// drawer balance right after the entry was applied.
type MovimientoCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CajaID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	NegocioID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null"`
	Tipo         string          `gorm:"type:varchar(10);not null"`
	Monto        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Categoria    string          `gorm:"type:varchar(100);not null"`
	Descripcion  *string
	MetodoPago   string          `gorm:"type:varchar(30);not null;default:'Efectivo'"`
	Referencia   *string         `gorm:"type:varchar(100);index"`
	SaldoDespues decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FechaHora    time.Time       `gorm:"not null;index"`

	Usuario *Usuario `gorm:"foreignKey:UsuarioID"`
}

func (MovimientoCaja) TableName() string { return "movimientos_caja" }

func (m *MovimientoCaja) BeforeCreate(_ *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
