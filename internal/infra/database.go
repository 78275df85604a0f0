package infra

import (
	"fmt"

	"ventify/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and brings the
// schema up to date. TranslateError makes unique violations surface as
// gorm.ErrDuplicatedKey.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Modelos lists every persisted model in dependency order.
func Modelos() []interface{} {
	return []interface{}{
		&model.Negocio{},
		&model.Usuario{},
		&model.Proveedor{},
		&model.Producto{},
		&model.VarianteProducto{},
		&model.Caja{},
		&model.MovimientoCaja{},
		&model.Venta{},
		&model.DetalleVenta{},
		&model.MermaEvento{},
	}
}

// RunMigrations runs AutoMigrate and then the PostgreSQL-only patches. It is
// shared by the server, the seeding tool and the tests (which run it against
// SQLite, where the patches are skipped).
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(Modelos()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate cannot
// express through struct tags. Each statement uses IF NOT EXISTS semantics so
// re-running on an already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// report and close-summary range scans
		`CREATE INDEX IF NOT EXISTS idx_ventas_negocio_fecha ON ventas (negocio_id, fecha_hora)`,
		`CREATE INDEX IF NOT EXISTS idx_movimientos_caja_caja_fecha ON movimientos_caja (caja_id, fecha_hora DESC)`,
		// case-insensitive name search in the catalog
		`CREATE INDEX IF NOT EXISTS idx_productos_negocio_nombre_lower ON productos (negocio_id, LOWER(nombre))`,
		// at most one open drawer per negocio; AutoMigrate creates it from the
		// model tag on fresh databases, this covers schemas created before it
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_cajas_negocio_abierta ON cajas (negocio_id) WHERE abierta = true`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
