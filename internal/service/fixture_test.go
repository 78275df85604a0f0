package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"ventify/internal/dto"
	"ventify/internal/infra"
	"ventify/internal/model"
	"ventify/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(n int) *int { return &n }

// fixture is one tenant on a private in-memory SQLite database with every
// ledger service wired against real repositories.
type fixture struct {
	db    *gorm.DB
	actor model.Actor

	cajaRepo     repository.CajaRepository
	ventaRepo    repository.VentaRepository
	productoRepo repository.ProductoRepository
	mermaRepo    repository.MermaRepository
	negocioRepo  repository.NegocioRepository

	caja        CajaService
	ventas      VentaService
	productos   ProductoService
	inventario  InventarioService
	reportes    ReporteService
	proveedores ProveedorService
	negocio     NegocioService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection serializes transactions the way row locks do on Postgres.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, infra.RunMigrations(db))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		db:           db,
		cajaRepo:     repository.NewCajaRepository(db),
		ventaRepo:    repository.NewVentaRepository(db),
		productoRepo: repository.NewProductoRepository(db),
		mermaRepo:    repository.NewMermaRepository(db),
		negocioRepo:  repository.NewNegocioRepository(db),
	}
	f.actor = f.nuevoNegocio(t, "Abarrotes Lupita")

	loc := time.UTC
	ticket := NewTicketService(f.ventaRepo, f.negocioRepo, loc)
	f.caja = NewCajaService(f.cajaRepo, f.ventaRepo, loc)
	f.ventas = NewVentaService(f.ventaRepo, f.cajaRepo, f.productoRepo, ticket, nil, nil, loc)
	f.productos = NewProductoService(f.productoRepo, f.mermaRepo, nil, loc)
	f.inventario = NewInventarioService(f.productoRepo, f.mermaRepo, nil, loc)
	f.reportes = NewReporteService(f.ventaRepo, f.cajaRepo, f.negocioRepo, f.productoRepo, loc)
	f.proveedores = NewProveedorService(repository.NewProveedorRepository(db))
	f.negocio = NewNegocioService(f.negocioRepo)
	return f
}

// nuevoNegocio creates a tenant with a dueno and returns the dueno as actor.
func (f *fixture) nuevoNegocio(t *testing.T, nombre string) model.Actor {
	t.Helper()
	ctx := context.Background()
	n := &model.Negocio{Nombre: nombre}
	require.NoError(t, f.negocioRepo.Create(ctx, nil, n))
	u := &model.Usuario{
		NegocioID:    &n.ID,
		Username:     "dueno-" + n.ID.String()[:8],
		Nombre:       "Dueño " + nombre,
		PasswordHash: "x",
		Rol:          model.RolDueno,
		Activo:       true,
	}
	require.NoError(t, repository.NewUsuarioRepository(f.db).Create(ctx, nil, u))
	return model.Actor{NegocioID: n.ID, UsuarioID: u.ID, Rol: u.Rol, Nombre: u.Nombre}
}

func (f *fixture) producto(t *testing.T, nombre, precio string, stock int) *model.Producto {
	t.Helper()
	return f.productoDe(t, f.actor, nombre, precio, stock)
}

func (f *fixture) productoDe(t *testing.T, actor model.Actor, nombre, precio string, stock int) *model.Producto {
	t.Helper()
	barcode := "750" + uuid.NewString()[:10]
	p := &model.Producto{
		NegocioID:       actor.NegocioID,
		Nombre:          nombre,
		CodigoBarras:    &barcode,
		UnidadMedida:    "unidad",
		PrecioCompra:    dec(precio).Div(dec("2")).Round(2),
		PrecioVenta:     dec(precio),
		CantidadInicial: stock,
		StockActual:     stock,
		Activo:          true,
	}
	require.NoError(t, f.productoRepo.Create(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := f.productoRepo.FindByID(context.Background(), f.actor.NegocioID, id)
	require.NoError(t, err)
	return p.StockActual
}

func (f *fixture) merma(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := f.productoRepo.FindByID(context.Background(), f.actor.NegocioID, id)
	require.NoError(t, err)
	return p.Merma
}

func (f *fixture) abrirCaja(t *testing.T, monto string) *dto.CajaResponse {
	t.Helper()
	c, err := f.caja.Abrir(context.Background(), f.actor, dto.AbrirCajaRequest{MontoInicial: dec(monto)})
	require.NoError(t, err)
	return c
}

func (f *fixture) saldo(t *testing.T) decimal.Decimal {
	t.Helper()
	c, err := f.caja.Actual(context.Background(), f.actor)
	require.NoError(t, err)
	return c.MontoActual
}

func (f *fixture) vender(t *testing.T, p *model.Producto, cantidad int, recibido string) *dto.VentaResponse {
	t.Helper()
	v, err := f.ventas.RegistrarVenta(context.Background(), f.actor, dto.RegistrarVentaRequest{
		Items:         []dto.ItemVentaRequest{{ProductoID: p.ID.String(), Cantidad: cantidad}},
		FormaPago:     "Efectivo",
		MontoRecibido: decPtr(recibido),
	})
	require.NoError(t, err)
	return v
}
