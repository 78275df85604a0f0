package repository

import (
	"context"
	"strings"

	"ventify/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UsuarioRepository interface {
	Create(ctx context.Context, tx *gorm.DB, u *model.Usuario) error
	// FindByLogin matches an active user by username or, case-insensitively, email.
	FindByLogin(ctx context.Context, login string) (*model.Usuario, error)
	// FindActivoByID is unscoped: it backs token refresh and tenant resolution,
	// where the tenant is what is being looked up.
	FindActivoByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error)
	FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Usuario, error)
	List(ctx context.Context, negocioID uuid.UUID, incluirInactivos bool) ([]model.Usuario, error)
	Update(ctx context.Context, u *model.Usuario) error
	SetActivo(ctx context.Context, negocioID, id uuid.UUID, activo bool) error
}

type usuarioRepo struct{ db *gorm.DB }

func NewUsuarioRepository(db *gorm.DB) UsuarioRepository { return &usuarioRepo{db: db} }

func (r *usuarioRepo) Create(ctx context.Context, tx *gorm.DB, u *model.Usuario) error {
	return conn(ctx, r.db, tx).Create(u).Error
}

func (r *usuarioRepo) FindByLogin(ctx context.Context, login string) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).
		Where("(username = ? OR LOWER(email) = ?) AND activo = ?", login, strings.ToLower(login), true).
		First(&u).Error
	return &u, err
}

func (r *usuarioRepo) FindActivoByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).Where("id = ? AND activo = ?", id, true).First(&u).Error
	return &u, err
}

func (r *usuarioRepo) FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).Where("id = ? AND negocio_id = ?", id, negocioID).First(&u).Error
	return &u, err
}

func (r *usuarioRepo) List(ctx context.Context, negocioID uuid.UUID, incluirInactivos bool) ([]model.Usuario, error) {
	var users []model.Usuario
	q := r.db.WithContext(ctx).Where("negocio_id = ?", negocioID)
	if !incluirInactivos {
		q = q.Where("activo = ?", true)
	}
	err := q.Order("nombre ASC").Find(&users).Error
	return users, err
}

func (r *usuarioRepo) Update(ctx context.Context, u *model.Usuario) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *usuarioRepo) SetActivo(ctx context.Context, negocioID, id uuid.UUID, activo bool) error {
	res := r.db.WithContext(ctx).Model(&model.Usuario{}).
		Where("id = ? AND negocio_id = ?", id, negocioID).
		Update("activo", activo)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
