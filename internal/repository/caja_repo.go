package repository

import (
	"context"
	"time"

	"ventify/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovimientoCajaFilter narrows a movement listing to one session.
type MovimientoCajaFilter struct {
	CajaID uuid.UUID
	Desde  *time.Time
	Hasta  *time.Time
	Tipo   string
}

// CategoriaTotal is one row of the per-category movement summary.
type CategoriaTotal struct {
	Categoria string
	Tipo      string
	Total     decimal.Decimal
	Cantidad  int64
}

type CajaRepository interface {
	Create(ctx context.Context, c *model.Caja) error
	FindAbierta(ctx context.Context, tx *gorm.DB, negocioID uuid.UUID) (*model.Caja, error)
	// FindAbiertaForUpdate locks the open session row until tx ends.
	FindAbiertaForUpdate(ctx context.Context, tx *gorm.DB, negocioID uuid.UUID) (*model.Caja, error)
	FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Caja, error)
	FindAbiertaByIDForUpdate(ctx context.Context, tx *gorm.DB, negocioID, id uuid.UUID) (*model.Caja, error)
	UpdateSaldo(ctx context.Context, tx *gorm.DB, negocioID, id uuid.UUID, saldo decimal.Decimal) error
	Cerrar(ctx context.Context, tx *gorm.DB, c *model.Caja) error
	ListCerradas(ctx context.Context, negocioID uuid.UUID, page, limit int) ([]model.Caja, int64, error)

	CreateMovimiento(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) error
	ListMovimientos(ctx context.Context, negocioID uuid.UUID, filter MovimientoCajaFilter) ([]model.MovimientoCaja, error)
	ResumenPorCategoria(ctx context.Context, negocioID, cajaID uuid.UUID) ([]CategoriaTotal, error)

	DB() *gorm.DB
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) DB() *gorm.DB { return r.db }

func (r *cajaRepo) Create(ctx context.Context, c *model.Caja) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cajaRepo) FindAbierta(ctx context.Context, tx *gorm.DB, negocioID uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := conn(ctx, r.db, tx).
		Where("negocio_id = ? AND abierta = ?", negocioID, true).
		Order("fecha_apertura DESC").
		First(&c).Error
	return &c, err
}

func (r *cajaRepo) FindAbiertaForUpdate(ctx context.Context, tx *gorm.DB, negocioID uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := forUpdate(conn(ctx, r.db, tx)).
		Where("negocio_id = ? AND abierta = ?", negocioID, true).
		Order("fecha_apertura DESC").
		First(&c).Error
	return &c, err
}

func (r *cajaRepo) FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).Where("id = ? AND negocio_id = ?", id, negocioID).First(&c).Error
	return &c, err
}

func (r *cajaRepo) FindAbiertaByIDForUpdate(ctx context.Context, tx *gorm.DB, negocioID, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := forUpdate(conn(ctx, r.db, tx)).
		Where("id = ? AND negocio_id = ? AND abierta = ?", id, negocioID, true).
		First(&c).Error
	return &c, err
}

func (r *cajaRepo) UpdateSaldo(ctx context.Context, tx *gorm.DB, negocioID, id uuid.UUID, saldo decimal.Decimal) error {
	return conn(ctx, r.db, tx).Model(&model.Caja{}).
		Where("id = ? AND negocio_id = ?", id, negocioID).
		Update("monto_actual", saldo).Error
}

func (r *cajaRepo) Cerrar(ctx context.Context, tx *gorm.DB, c *model.Caja) error {
	return conn(ctx, r.db, tx).Model(&model.Caja{}).
		Where("id = ? AND negocio_id = ? AND abierta = ?", c.ID, c.NegocioID, true).
		Updates(map[string]interface{}{
			"abierta":           false,
			"fecha_cierre":      c.FechaCierre,
			"usuario_cierre_id": c.UsuarioCierreID,
			"monto_cierre":      c.MontoCierre,
			"resumen_cierre":    c.ResumenCierre,
			"monto_actual":      c.MontoActual,
		}).Error
}

func (r *cajaRepo) ListCerradas(ctx context.Context, negocioID uuid.UUID, page, limit int) ([]model.Caja, int64, error) {
	var cajas []model.Caja
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Caja{}).Where("negocio_id = ? AND abierta = ?", negocioID, false)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("fecha_cierre DESC").Offset((page - 1) * limit).Limit(limit).Find(&cajas).Error
	return cajas, total, err
}

func (r *cajaRepo) CreateMovimiento(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) error {
	return conn(ctx, r.db, tx).Omit("Usuario").Create(m).Error
}

func (r *cajaRepo) ListMovimientos(ctx context.Context, negocioID uuid.UUID, filter MovimientoCajaFilter) ([]model.MovimientoCaja, error) {
	q := r.db.WithContext(ctx).Preload("Usuario").
		Where("negocio_id = ? AND caja_id = ?", negocioID, filter.CajaID)
	if filter.Desde != nil {
		q = q.Where("fecha_hora >= ?", *filter.Desde)
	}
	if filter.Hasta != nil {
		q = q.Where("fecha_hora <= ?", *filter.Hasta)
	}
	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}
	var movs []model.MovimientoCaja
	err := q.Order("fecha_hora DESC").Find(&movs).Error
	return movs, err
}

func (r *cajaRepo) ResumenPorCategoria(ctx context.Context, negocioID, cajaID uuid.UUID) ([]CategoriaTotal, error) {
	var rows []CategoriaTotal
	err := r.db.WithContext(ctx).Model(&model.MovimientoCaja{}).
		Select("categoria, tipo, SUM(monto) AS total, COUNT(*) AS cantidad").
		Where("negocio_id = ? AND caja_id = ?", negocioID, cajaID).
		Group("categoria, tipo").
		Order("total DESC").
		Scan(&rows).Error
	return rows, err
}
