package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ventify/internal/infra"
	"ventify/internal/model"
	"ventify/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ticketFixture struct {
	ventas   repository.VentaRepository
	negocios repository.NegocioRepository
	venta    *model.Venta
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_%s?mode=memory&cache=shared", uuid.NewString()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true, Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, infra.RunMigrations(db))

	ctx := context.Background()
	f := &ticketFixture{ventas: repository.NewVentaRepository(db), negocios: repository.NewNegocioRepository(db)}
	n := &model.Negocio{Nombre: "Tlapalería Juárez"}
	require.NoError(t, f.negocios.Create(ctx, nil, n))
	u := &model.Usuario{NegocioID: &n.ID, Username: "caja1", Nombre: "Caja Uno", PasswordHash: "x", Rol: model.RolCajero, Activo: true}
	require.NoError(t, repository.NewUsuarioRepository(db).Create(ctx, nil, u))
	p := &model.Producto{NegocioID: n.ID, Nombre: "Clavos 1kg", PrecioCompra: decimal.NewFromInt(30), PrecioVenta: decimal.NewFromInt(55), Activo: true}
	require.NoError(t, repository.NewProductoRepository(db).Create(ctx, p))

	f.venta = &model.Venta{
		NegocioID:   n.ID,
		UsuarioID:   u.ID,
		TotalPagado: decimal.NewFromInt(110),
		FormaPago:   "Tarjeta",
		FechaHora:   time.Now().UTC(),
	}
	require.NoError(t, f.ventas.Create(ctx, nil, f.venta))
	require.NoError(t, f.ventas.CreateDetalle(ctx, nil, &model.DetalleVenta{
		VentaID: f.venta.ID, ProductoID: p.ID, Cantidad: 2,
		PrecioUnitario: decimal.NewFromInt(55), PrecioLista: decimal.NewFromInt(55), Subtotal: decimal.NewFromInt(110),
	}))
	return f
}

func ticketPayload(t *testing.T, p TicketPDFPayload) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(p)
	require.NoError(t, err)
	return b
}

func TestTicketPDFWorker_GeneraPDFYEncolaEmail(t *testing.T) {
	f := newTicketFixture(t)
	rdb := newTestRedis(t)
	ctx := context.Background()
	dir := t.TempDir()
	w := NewTicketPDFWorker(f.ventas, f.negocios, NewDispatcher(rdb), dir, time.UTC)
	email := "cliente@example.com"

	err := w.Process(ctx, ticketPayload(t, TicketPDFPayload{
		VentaID: f.venta.ID.String(), NegocioID: f.venta.NegocioID.String(), ClienteEmail: &email,
	}))
	require.NoError(t, err)

	path := filepath.Join(dir, "ticket_"+f.venta.ID.String()+".pdf")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	job := popJob(t, rdb, QueueEmail)
	var p EmailJobPayload
	require.NoError(t, json.Unmarshal(job.Payload, &p))
	assert.Equal(t, email, p.ToEmail)
	assert.Equal(t, path, p.PDFPath)
	assert.Contains(t, p.Subject, infra.TicketCorto(f.venta.ID))
	assert.Contains(t, p.Body, "Clavos 1kg")
}

func TestTicketPDFWorker_SinEmailNoEncola(t *testing.T) {
	f := newTicketFixture(t)
	rdb := newTestRedis(t)
	w := NewTicketPDFWorker(f.ventas, f.negocios, NewDispatcher(rdb), t.TempDir(), time.UTC)

	require.NoError(t, w.Process(context.Background(), ticketPayload(t, TicketPDFPayload{
		VentaID: f.venta.ID.String(), NegocioID: f.venta.NegocioID.String(),
	})))
	n, err := rdb.LLen(context.Background(), QueueEmail).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTicketPDFWorker_VentaEliminadaOPayloadInvalido(t *testing.T) {
	f := newTicketFixture(t)
	w := NewTicketPDFWorker(f.ventas, f.negocios, nil, t.TempDir(), time.UTC)
	ctx := context.Background()

	assert.NoError(t, w.Process(ctx, ticketPayload(t, TicketPDFPayload{
		VentaID: uuid.NewString(), NegocioID: f.venta.NegocioID.String(),
	})))
	// Another tenant cannot render this sale.
	assert.NoError(t, w.Process(ctx, ticketPayload(t, TicketPDFPayload{
		VentaID: f.venta.ID.String(), NegocioID: uuid.NewString(),
	})))
	assert.NoError(t, w.Process(ctx, ticketPayload(t, TicketPDFPayload{VentaID: "x", NegocioID: "y"})))
	assert.NoError(t, w.Process(ctx, json.RawMessage(`[]`)))
}
