package service

import (
	"context"
	"testing"

	"ventify/internal/apierror"
	"ventify/internal/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantes_ListarActualizarEliminar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.producto(t, "Refresco de cola", "25", 40)

	chica, err := f.productos.CrearVariante(ctx, f.actor, p.ID, dto.CrearVarianteRequest{Nombre: "600 ml"})
	require.NoError(t, err)
	grande, err := f.productos.CrearVariante(ctx, f.actor, p.ID, dto.CrearVarianteRequest{Nombre: "2 L", Precio: decPtr("38")})
	require.NoError(t, err)

	list, err := f.productos.ListarVariantes(ctx, f.actor, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2 L", list[0].Nombre)
	assert.Equal(t, "600 ml", list[1].Nombre)

	grandeID := uuid.MustParse(grande.ID)
	act, err := f.productos.ActualizarVariante(ctx, f.actor, p.ID, grandeID, dto.ActualizarVarianteRequest{
		Nombre: strPtr("2.5 L"),
		Precio: decPtr("42.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2.5 L", act.Nombre)
	assert.Equal(t, "42.50", act.Precio.StringFixed(2))

	act, err = f.productos.ActualizarVariante(ctx, f.actor, p.ID, grandeID, dto.ActualizarVarianteRequest{SinPrecio: true})
	require.NoError(t, err)
	assert.Nil(t, act.Precio)
	assert.Equal(t, "2.5 L", act.Nombre)

	require.NoError(t, f.productos.EliminarVariante(ctx, f.actor, p.ID, uuid.MustParse(chica.ID)))
	list, err = f.productos.ListarVariantes(ctx, f.actor, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, grande.ID, list[0].ID)
}

func TestVariantes_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.producto(t, "Jugo de naranja", "30", 10)
	v, err := f.productos.CrearVariante(ctx, f.actor, p.ID, dto.CrearVarianteRequest{Nombre: "1 L"})
	require.NoError(t, err)
	vid := uuid.MustParse(v.ID)

	for name, req := range map[string]dto.ActualizarVarianteRequest{
		"nombre vacio":    {Nombre: strPtr("  ")},
		"precio cero":     {Precio: decPtr("0")},
		"precio negativo": {Precio: decPtr("-1")},
		"milesimas":       {Precio: decPtr("12.345")},
	} {
		_, err := f.productos.ActualizarVariante(ctx, f.actor, p.ID, vid, req)
		assert.True(t, apierror.Is(err, apierror.KindInvalidInput), name)
	}

	_, err = f.productos.ActualizarVariante(ctx, f.actor, p.ID, uuid.New(), dto.ActualizarVarianteRequest{Nombre: strPtr("X")})
	assert.True(t, apierror.Is(err, apierror.KindNotFound))

	otroProducto := f.producto(t, "Agua", "12", 5)
	err = f.productos.EliminarVariante(ctx, f.actor, otroProducto.ID, vid)
	assert.True(t, apierror.Is(err, apierror.KindNotFound), "variant of another product")

	otro := f.nuevoNegocio(t, "Tienda Ajena")
	_, err = f.productos.ListarVariantes(ctx, otro, p.ID)
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
	err = f.productos.EliminarVariante(ctx, otro, p.ID, vid)
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}

func TestVariantes_NoSeEliminaConVentas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.abrirCaja(t, "0")
	p := f.producto(t, "Pan dulce", "9", 20)
	v, err := f.productos.CrearVariante(ctx, f.actor, p.ID, dto.CrearVarianteRequest{Nombre: "Concha", Precio: decPtr("11")})
	require.NoError(t, err)

	_, err = f.ventas.RegistrarVenta(ctx, f.actor, dto.RegistrarVentaRequest{
		Items:         []dto.ItemVentaRequest{{ProductoID: p.ID.String(), VarianteProductoID: &v.ID, Cantidad: 2}},
		MontoRecibido: decPtr("50"),
	})
	require.NoError(t, err)

	err = f.productos.EliminarVariante(ctx, f.actor, p.ID, uuid.MustParse(v.ID))
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.KindInvalidState))

	list, err := f.productos.ListarVariantes(ctx, f.actor, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
