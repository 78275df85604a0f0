package service

import (
	"context"
	"testing"

	"ventify/internal/apierror"
	"ventify/internal/dto"
	"ventify/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReabastecer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := crearProducto(t, f, 10, 1)
	id := uuid.MustParse(p.ID)

	got, err := f.inventario.Reabastecer(ctx, f.actor, id, dto.ReabastecerRequest{
		CantidadComprada:      24,
		MermaReabastecimiento: intPtr(2),
		PrecioVenta:           decPtr("28"),
	})
	require.NoError(t, err)
	assert.Equal(t, 34, got.CantidadInicial)
	assert.Equal(t, 3, got.Merma)
	assert.Equal(t, 31, got.StockActual)
	assert.Equal(t, "28.00", got.PrecioVenta.StringFixed(2))

	eventos, err := f.inventario.ListarMermas(ctx, f.actor, dto.MermaFilter{Tipo: model.EventoReabastecimiento})
	require.NoError(t, err)
	require.Len(t, eventos.Data, 1)
	e := eventos.Data[0]
	assert.Equal(t, -22, e.Cantidad)
	assert.Equal(t, 9, e.StockAntes)
	assert.Equal(t, 31, e.StockDespues)
	assert.Equal(t, "Reabastecimiento: +24 unidades compradas, -2 merma", e.Motivo)
	assert.Equal(t, "Harina 1kg", e.ProductoNombre)
}

func TestReabastecer_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := crearProducto(t, f, 10, 0)
	id := uuid.MustParse(p.ID)

	for name, req := range map[string]dto.ReabastecerRequest{
		"cantidad cero":        {CantidadComprada: 0},
		"merma mayor a compra": {CantidadComprada: 5, MermaReabastecimiento: intPtr(6)},
		"precio sin ganancia":  {CantidadComprada: 5, PrecioCompra: decPtr("30")},
	} {
		_, err := f.inventario.Reabastecer(ctx, f.actor, id, req)
		assert.True(t, apierror.Is(err, apierror.KindInvalidInput), name)
	}
	assert.Equal(t, 10, f.stock(t, id))

	_, err := f.inventario.Reabastecer(ctx, f.actor, uuid.New(), dto.ReabastecerRequest{CantidadComprada: 1})
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}

func TestAgregarMerma(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := crearProducto(t, f, 10, 0)
	id := uuid.MustParse(p.ID)

	got, err := f.inventario.AgregarMerma(ctx, f.actor, id, dto.MermaRequest{Cantidad: intPtr(3), Motivo: strPtr("Caducado")})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Merma)
	assert.Equal(t, 7, got.StockActual)

	_, err = f.inventario.AgregarMerma(ctx, f.actor, id, dto.MermaRequest{Incremento: intPtr(8)})
	assert.True(t, apierror.Is(err, apierror.KindInvalidState))
	_, err = f.inventario.AgregarMerma(ctx, f.actor, id, dto.MermaRequest{Incremento: intPtr(0)})
	assert.True(t, apierror.Is(err, apierror.KindInvalidInput))
	assert.Equal(t, 7, f.stock(t, id))
	assert.Equal(t, 3, f.merma(t, id))

	eventos, err := f.inventario.ListarMermas(ctx, f.actor, dto.MermaFilter{Tipo: model.EventoMerma})
	require.NoError(t, err)
	require.Len(t, eventos.Data, 1)
	assert.Equal(t, "Caducado", eventos.Data[0].Motivo)
	assert.Equal(t, 3, eventos.Data[0].Cantidad)
}

func TestAgregarMerma_NoExcedeCantidadInicial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := crearProducto(t, f, 10, 0)
	id := uuid.MustParse(p.ID)

	// A manual recount can leave more stock than was ever received.
	_, err := f.productos.Actualizar(ctx, f.actor, id, dto.ActualizarProductoRequest{StockActual: intPtr(20)})
	require.NoError(t, err)
	require.Equal(t, 20, f.stock(t, id))

	_, err = f.inventario.AgregarMerma(ctx, f.actor, id, dto.MermaRequest{Incremento: intPtr(15)})
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.KindInvalidState))
	assert.Equal(t, "La merma acumulada no puede exceder la cantidad inicial.", err.Error())
	assert.Equal(t, 20, f.stock(t, id))
	assert.Zero(t, f.merma(t, id))

	got, err := f.inventario.AgregarMerma(ctx, f.actor, id, dto.MermaRequest{Incremento: intPtr(10)})
	require.NoError(t, err)
	assert.Equal(t, 10, got.Merma)
	assert.Equal(t, 10, got.StockActual)
}

func TestListarMermas_AisladoPorNegocio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := crearProducto(t, f, 10, 0)
	_, err := f.inventario.AgregarMerma(ctx, f.actor, uuid.MustParse(p.ID), dto.MermaRequest{Incremento: intPtr(1)})
	require.NoError(t, err)

	otro := f.nuevoNegocio(t, "Farmacia Luz")
	eventos, err := f.inventario.ListarMermas(ctx, otro, dto.MermaFilter{})
	require.NoError(t, err)
	assert.Zero(t, eventos.Total)

	_, err = f.inventario.AgregarMerma(ctx, otro, uuid.MustParse(p.ID), dto.MermaRequest{Incremento: intPtr(1)})
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}
