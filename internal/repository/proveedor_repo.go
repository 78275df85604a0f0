package repository

import (
	"context"
	"strings"

	"ventify/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProveedorRepository interface {
	Create(ctx context.Context, p *model.Proveedor) error
	FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Proveedor, error)
	// List filters nombre case-insensitively.
	List(ctx context.Context, negocioID uuid.UUID, nombre string) ([]model.Proveedor, error)
	Update(ctx context.Context, p *model.Proveedor) error
	Delete(ctx context.Context, negocioID, id uuid.UUID) error
}

type proveedorRepo struct{ db *gorm.DB }

func NewProveedorRepository(db *gorm.DB) ProveedorRepository { return &proveedorRepo{db: db} }

func (r *proveedorRepo) Create(ctx context.Context, p *model.Proveedor) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *proveedorRepo) FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Proveedor, error) {
	var p model.Proveedor
	err := r.db.WithContext(ctx).
		Where("id = ? AND negocio_id = ?", id, negocioID).
		First(&p).Error
	return &p, err
}

func (r *proveedorRepo) List(ctx context.Context, negocioID uuid.UUID, nombre string) ([]model.Proveedor, error) {
	var proveedores []model.Proveedor
	q := r.db.WithContext(ctx).Where("negocio_id = ?", negocioID)
	if nombre = strings.TrimSpace(nombre); nombre != "" {
		q = q.Where("LOWER(nombre) LIKE ?", "%"+strings.ToLower(nombre)+"%")
	}
	err := q.Order("nombre ASC").Find(&proveedores).Error
	return proveedores, err
}

func (r *proveedorRepo) Update(ctx context.Context, p *model.Proveedor) error {
	res := r.db.WithContext(ctx).Model(&model.Proveedor{}).
		Where("id = ? AND negocio_id = ?", p.ID, p.NegocioID).
		Updates(map[string]interface{}{
			"nombre":    p.Nombre,
			"rfc":       p.RFC,
			"correo":    p.Correo,
			"telefono":  p.Telefono,
			"direccion": p.Direccion,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the row so its RFC can be registered again.
func (r *proveedorRepo) Delete(ctx context.Context, negocioID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND negocio_id = ?", id, negocioID).
		Delete(&model.Proveedor{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
