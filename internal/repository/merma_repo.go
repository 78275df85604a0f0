package repository

import (
	"context"

	"ventify/internal/dto"
	"ventify/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MermaRepository is the append-only audit log of stock and shrinkage changes.
type MermaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, e *model.MermaEvento) error
	List(ctx context.Context, negocioID uuid.UUID, filter dto.MermaFilter) ([]model.MermaEvento, int64, error)
}

type mermaRepo struct{ db *gorm.DB }

func NewMermaRepository(db *gorm.DB) MermaRepository { return &mermaRepo{db: db} }

func (r *mermaRepo) Create(ctx context.Context, tx *gorm.DB, e *model.MermaEvento) error {
	return conn(ctx, r.db, tx).Omit("Producto").Create(e).Error
}

func (r *mermaRepo) List(ctx context.Context, negocioID uuid.UUID, filter dto.MermaFilter) ([]model.MermaEvento, int64, error) {
	var eventos []model.MermaEvento
	var total int64

	q := r.db.WithContext(ctx).Model(&model.MermaEvento{}).Where("negocio_id = ?", negocioID)
	if filter.ProductoID != "" {
		q = q.Where("producto_id = ?", filter.ProductoID)
	}
	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Producto").
		Order("fecha_utc DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&eventos).Error
	return eventos, total, err
}
