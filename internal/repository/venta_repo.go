package repository

import (
	"context"
	"time"

	"ventify/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VentaRango selects sales with desde <= fecha_hora < hasta.
type VentaRango struct {
	Desde     time.Time
	Hasta     time.Time
	UsuarioID *uuid.UUID
	FormaPago string
}

// VentaTotales is the count and sum of a set of sales.
type VentaTotales struct {
	Cantidad int64
	Total    decimal.Decimal
}

// ProductoVendido is one row of the best-sellers ranking.
type ProductoVendido struct {
	ProductoID    uuid.UUID
	Nombre        string
	Cantidad      int64
	Total         decimal.Decimal
	Transacciones int64
}

type VentaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error
	CreateDetalle(ctx context.Context, tx *gorm.DB, d *model.DetalleVenta) error
	FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Venta, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, negocioID, id uuid.UUID) (*model.Venta, error)
	ListDetalles(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID) ([]model.DetalleVenta, error)
	SetTicket(ctx context.Context, negocioID, id uuid.UUID, ticket string) error
	// Delete removes the sale and its lines.
	Delete(ctx context.Context, tx *gorm.DB, negocioID, id uuid.UUID) error
	List(ctx context.Context, negocioID uuid.UUID, rango VentaRango) ([]model.Venta, error)
	Totales(ctx context.Context, tx *gorm.DB, negocioID uuid.UUID, rango VentaRango) (VentaTotales, error)
	TopProductos(ctx context.Context, negocioID uuid.UUID, rango VentaRango, limit int) ([]ProductoVendido, error)
	DB() *gorm.DB
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error {
	return conn(ctx, r.db, tx).Omit("Detalles", "Usuario").Create(v).Error
}

func (r *ventaRepo) CreateDetalle(ctx context.Context, tx *gorm.DB, d *model.DetalleVenta) error {
	return conn(ctx, r.db, tx).Omit("Producto", "VarianteProducto").Create(d).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).
		Preload("Usuario").
		Preload("Detalles.Producto").
		Preload("Detalles.VarianteProducto").
		Where("id = ? AND negocio_id = ?", id, negocioID).
		First(&v).Error
	return &v, err
}

// FindByIDForUpdate locks only the ventas row; load lines with ListDetalles.
func (r *ventaRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, negocioID, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := forUpdate(conn(ctx, r.db, tx)).
		Where("id = ? AND negocio_id = ?", id, negocioID).
		First(&v).Error
	return &v, err
}

func (r *ventaRepo) ListDetalles(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID) ([]model.DetalleVenta, error) {
	var detalles []model.DetalleVenta
	err := conn(ctx, r.db, tx).Where("venta_id = ?", ventaID).Order("producto_id ASC").Find(&detalles).Error
	return detalles, err
}

func (r *ventaRepo) SetTicket(ctx context.Context, negocioID, id uuid.UUID, ticket string) error {
	return r.db.WithContext(ctx).Model(&model.Venta{}).
		Where("id = ? AND negocio_id = ?", id, negocioID).
		Update("ticket", ticket).Error
}

func (r *ventaRepo) Delete(ctx context.Context, tx *gorm.DB, negocioID, id uuid.UUID) error {
	db := conn(ctx, r.db, tx)
	if err := db.Where("venta_id = ?", id).Delete(&model.DetalleVenta{}).Error; err != nil {
		return err
	}
	return db.Where("id = ? AND negocio_id = ?", id, negocioID).Delete(&model.Venta{}).Error
}

func (r *ventaRepo) rango(ctx context.Context, tx *gorm.DB, negocioID uuid.UUID, rango VentaRango) *gorm.DB {
	q := conn(ctx, r.db, tx).Model(&model.Venta{}).
		Where("ventas.negocio_id = ? AND ventas.fecha_hora >= ? AND ventas.fecha_hora < ?", negocioID, rango.Desde, rango.Hasta)
	if rango.UsuarioID != nil {
		q = q.Where("ventas.usuario_id = ?", *rango.UsuarioID)
	}
	if rango.FormaPago != "" {
		q = q.Where("LOWER(ventas.forma_pago) = LOWER(?)", rango.FormaPago)
	}
	return q
}

func (r *ventaRepo) List(ctx context.Context, negocioID uuid.UUID, rango VentaRango) ([]model.Venta, error) {
	var ventas []model.Venta
	err := r.rango(ctx, nil, negocioID, rango).
		Preload("Usuario").
		Preload("Detalles.Producto").
		Order("ventas.fecha_hora DESC").
		Find(&ventas).Error
	return ventas, err
}

func (r *ventaRepo) Totales(ctx context.Context, tx *gorm.DB, negocioID uuid.UUID, rango VentaRango) (VentaTotales, error) {
	var row struct {
		Cantidad int64
		Total    decimal.NullDecimal
	}
	err := r.rango(ctx, tx, negocioID, rango).
		Select("COUNT(*) AS cantidad, SUM(ventas.total_pagado) AS total").
		Scan(&row).Error
	if err != nil {
		return VentaTotales{}, err
	}
	return VentaTotales{Cantidad: row.Cantidad, Total: row.Total.Decimal}, nil
}

func (r *ventaRepo) TopProductos(ctx context.Context, negocioID uuid.UUID, rango VentaRango, limit int) ([]ProductoVendido, error) {
	var rows []ProductoVendido
	err := r.rango(ctx, nil, negocioID, rango).
		Select("detalles_venta.producto_id AS producto_id, productos.nombre AS nombre, " +
			"SUM(detalles_venta.cantidad) AS cantidad, SUM(detalles_venta.subtotal) AS total, " +
			"COUNT(DISTINCT ventas.id) AS transacciones").
		Joins("JOIN detalles_venta ON detalles_venta.venta_id = ventas.id").
		Joins("JOIN productos ON productos.id = detalles_venta.producto_id").
		Group("detalles_venta.producto_id, productos.nombre").
		Order("cantidad DESC, nombre ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
