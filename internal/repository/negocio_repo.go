package repository

import (
	"context"
	"time"

	"ventify/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NegocioRepository interface {
	Create(ctx context.Context, tx *gorm.DB, n *model.Negocio) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Negocio, error)
	// UpdatePerfil writes the nombre and contact columns of n.
	UpdatePerfil(ctx context.Context, n *model.Negocio) error
	DB() *gorm.DB
}

type negocioRepo struct{ db *gorm.DB }

func NewNegocioRepository(db *gorm.DB) NegocioRepository { return &negocioRepo{db: db} }

func (r *negocioRepo) DB() *gorm.DB { return r.db }

func (r *negocioRepo) Create(ctx context.Context, tx *gorm.DB, n *model.Negocio) error {
	return conn(ctx, r.db, tx).Create(n).Error
}

func (r *negocioRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Negocio, error) {
	var n model.Negocio
	err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error
	return &n, err
}

func (r *negocioRepo) UpdatePerfil(ctx context.Context, n *model.Negocio) error {
	res := r.db.WithContext(ctx).Model(&model.Negocio{}).Where("id = ?", n.ID).
		Updates(map[string]interface{}{
			"nombre":         n.Nombre,
			"direccion":      n.Direccion,
			"telefono":       n.Telefono,
			"correo":         n.Correo,
			"rfc":            n.RFC,
			"giro_comercial": n.GiroComercial,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
