package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"ventify/internal/dto"
	"ventify/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStockInsuficiente is returned by DescontarStock when the guarded update
// matched no row.
var ErrStockInsuficiente = errors.New("stock insuficiente")

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation.
type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Producto, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, negocioID, id uuid.UUID) (*model.Producto, error)
	FindByBarcode(ctx context.Context, negocioID uuid.UUID, barcode string) (*model.Producto, error)
	List(ctx context.Context, negocioID uuid.UUID, filter dto.ProductoFilter) ([]model.Producto, int64, error)
	ListStockBajo(ctx context.Context, negocioID uuid.UUID) ([]model.Producto, error)
	Update(ctx context.Context, tx *gorm.DB, p *model.Producto) error
	SetActivo(ctx context.Context, negocioID, id uuid.UUID, activo bool) error
	// UpdateDescuento writes only the descuento_* columns of p.
	UpdateDescuento(ctx context.Context, tx *gorm.DB, p *model.Producto) error

	// DescontarStock subtracts qty only if enough units remain.
	DescontarStock(ctx context.Context, tx *gorm.DB, negocioID, id uuid.UUID, qty int) error
	// AjustarStock adds delta (may be negative) to stock_actual.
	AjustarStock(ctx context.Context, tx *gorm.DB, negocioID, id uuid.UUID, delta int) error

	CreateVariante(ctx context.Context, v *model.VarianteProducto) error
	FindVariante(ctx context.Context, tx *gorm.DB, negocioID, productoID, varianteID uuid.UUID) (*model.VarianteProducto, error)
	ListVariantes(ctx context.Context, negocioID, productoID uuid.UUID) ([]model.VarianteProducto, error)
	UpdateVariante(ctx context.Context, v *model.VarianteProducto) error
	DeleteVariante(ctx context.Context, negocioID, productoID, varianteID uuid.UUID) error
	// VarianteVendida reports whether any sale line references the variant.
	VarianteVendida(ctx context.Context, varianteID uuid.UUID) (bool, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) DB() *gorm.DB { return r.db }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Omit("Variantes").Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).
		Preload("Variantes", func(db *gorm.DB) *gorm.DB { return db.Order("nombre ASC") }).
		Where("id = ? AND negocio_id = ?", id, negocioID).
		First(&p).Error
	return &p, err
}

func (r *productoRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, negocioID, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := forUpdate(conn(ctx, r.db, tx)).
		Where("id = ? AND negocio_id = ?", id, negocioID).
		First(&p).Error
	return &p, err
}

func (r *productoRepo) FindByBarcode(ctx context.Context, negocioID uuid.UUID, barcode string) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).
		Where("negocio_id = ? AND codigo_barras = ? AND activo = ?", negocioID, barcode, true).
		First(&p).Error
	return &p, err
}

func (r *productoRepo) List(ctx context.Context, negocioID uuid.UUID, filter dto.ProductoFilter) ([]model.Producto, int64, error) {
	var productos []model.Producto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Producto{}).Where("negocio_id = ?", negocioID)

	// Activo filter: "false" = inactivos, "all" = todos, anything else = activos (default)
	switch filter.Activo {
	case "false":
		q = q.Where("activo = ?", false)
	case "all":
	default:
		q = q.Where("activo = ?", true)
	}

	if filter.Barcode != "" {
		q = q.Where("codigo_barras = ?", filter.Barcode)
	}
	if filter.Nombre != "" {
		q = q.Where("LOWER(nombre) LIKE ?", "%"+strings.ToLower(filter.Nombre)+"%")
	}
	if filter.Categoria != "" {
		q = q.Where("categoria = ?", filter.Categoria)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("nombre ASC").Limit(filter.Limit).Offset(offset).Find(&productos).Error
	return productos, total, err
}

func (r *productoRepo) ListStockBajo(ctx context.Context, negocioID uuid.UUID) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).
		Where("negocio_id = ? AND activo = ? AND stock_actual <= stock_minimo", negocioID, true).
		Order("stock_actual ASC, nombre ASC").
		Find(&productos).Error
	return productos, err
}

func (r *productoRepo) Update(ctx context.Context, tx *gorm.DB, p *model.Producto) error {
	return conn(ctx, r.db, tx).Omit(clause.Associations).Save(p).Error
}

func (r *productoRepo) SetActivo(ctx context.Context, negocioID, id uuid.UUID, activo bool) error {
	res := r.db.WithContext(ctx).Model(&model.Producto{}).
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

func (r *productoRepo) UpdateDescuento(ctx context.Context, tx *gorm.DB, p *model.Producto) error {
	res := conn(ctx, r.db, tx).Model(&model.Producto{}).
		Where("id = ? AND negocio_id = ?", p.ID, p.NegocioID).
		Updates(map[string]interface{}{
			"descuento_porcentaje":   p.DescuentoPorcentaje,
			"descuento_fecha_inicio": p.DescuentoFechaInicio,
			"descuento_fecha_fin":    p.DescuentoFechaFin,
			"descuento_hora_inicio":  p.DescuentoHoraInicio,
			"descuento_hora_fin":     p.DescuentoHoraFin,
			"updated_at":             time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productoRepo) DescontarStock(ctx context.Context, tx *gorm.DB, negocioID, id uuid.UUID, qty int) error {
	res := conn(ctx, r.db, tx).Model(&model.Producto{}).
		Where("id = ? AND negocio_id = ? AND stock_actual >= ?", id, negocioID, qty).
		Update("stock_actual", gorm.Expr("stock_actual - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockInsuficiente
	}
	return nil
}

func (r *productoRepo) AjustarStock(ctx context.Context, tx *gorm.DB, negocioID, id uuid.UUID, delta int) error {
	return conn(ctx, r.db, tx).Model(&model.Producto{}).
		Where("id = ? AND negocio_id = ?", id, negocioID).
		Update("stock_actual", gorm.Expr("stock_actual + ?", delta)).Error
}

func (r *productoRepo) CreateVariante(ctx context.Context, v *model.VarianteProducto) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *productoRepo) FindVariante(ctx context.Context, tx *gorm.DB, negocioID, productoID, varianteID uuid.UUID) (*model.VarianteProducto, error) {
	var v model.VarianteProducto
	err := conn(ctx, r.db, tx).
		Where("id = ? AND producto_id = ? AND negocio_id = ?", varianteID, productoID, negocioID).
		First(&v).Error
	return &v, err
}

func (r *productoRepo) ListVariantes(ctx context.Context, negocioID, productoID uuid.UUID) ([]model.VarianteProducto, error) {
	var vs []model.VarianteProducto
	err := r.db.WithContext(ctx).
		Where("producto_id = ? AND negocio_id = ?", productoID, negocioID).
		Order("nombre ASC").
		Find(&vs).Error
	return vs, err
}

func (r *productoRepo) UpdateVariante(ctx context.Context, v *model.VarianteProducto) error {
	res := r.db.WithContext(ctx).Model(&model.VarianteProducto{}).
		Where("id = ? AND producto_id = ? AND negocio_id = ?", v.ID, v.ProductoID, v.NegocioID).
		Updates(map[string]interface{}{
			"nombre": v.Nombre,
			"precio": v.Precio,
			"codigo": v.Codigo,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productoRepo) DeleteVariante(ctx context.Context, negocioID, productoID, varianteID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND producto_id = ? AND negocio_id = ?", varianteID, productoID, negocioID).
		Delete(&model.VarianteProducto{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productoRepo) VarianteVendida(ctx context.Context, varianteID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.DetalleVenta{}).
		Where("variante_producto_id = ?", varianteID).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}
