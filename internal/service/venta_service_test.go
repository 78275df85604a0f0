package service

import (
	"context"
	"strings"
	"testing"

	"ventify/internal/apierror"
	"ventify/internal/dto"
	"ventify/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrarVenta_EfectivoActualizaCajaYStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.abrirCaja(t, "1000")
	p := f.producto(t, "Aceite 1L", "150", 10)

	v := f.vender(t, p, 1, "200")

	assert.Equal(t, "150.00", v.TotalPagado.StringFixed(2))
	require.NotNil(t, v.Cambio)
	assert.Equal(t, "50.00", v.Cambio.StringFixed(2))
	assert.Equal(t, "1150.00", f.saldo(t).StringFixed(2))
	assert.Equal(t, 9, f.stock(t, p.ID))
	require.Len(t, v.Items, 1)
	assert.Equal(t, "Aceite 1L", v.Items[0].Producto)

	require.NotNil(t, v.Ticket)
	assert.Contains(t, *v.Ticket, "Aceite 1L")

	movs, err := f.caja.ListarMovimientos(ctx, f.actor, dto.MovimientoCajaFilter{})
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, model.MovimientoEntrada, movs[0].Tipo)
	assert.Equal(t, categoriaVenta, movs[0].Categoria)
	require.NotNil(t, movs[0].Referencia)
	assert.Equal(t, "VENTA-"+v.ID, *movs[0].Referencia)
	assert.Equal(t, "1150.00", movs[0].SaldoDespues.StringFixed(2))
}

func TestRegistrarVenta_AgrupaLineasDelMismoProducto(t *testing.T) {
	f := newFixture(t)
	f.abrirCaja(t, "0")
	p := f.producto(t, "Chicle", "2.50", 5)

	_, err := f.ventas.RegistrarVenta(context.Background(), f.actor, dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{
			{ProductoID: p.ID.String(), Cantidad: 3},
			{ProductoID: p.ID.String(), Cantidad: 3},
		},
		MontoRecibido: decPtr("100"),
	})
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.KindInvalidState))
	assert.Equal(t, "Stock insuficiente para producto Chicle. Disponible: 5", err.Error())
	assert.Equal(t, 5, f.stock(t, p.ID))
}

func TestRegistrarVenta_TodoONada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.abrirCaja(t, "500")
	a := f.producto(t, "Leche", "28", 10)
	b := f.producto(t, "Huevo 12pz", "52", 1)

	_, err := f.ventas.RegistrarVenta(ctx, f.actor, dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{
			{ProductoID: a.ID.String(), Cantidad: 2},
			{ProductoID: b.ID.String(), Cantidad: 2},
		},
		FormaPago:     "Efectivo",
		MontoRecibido: decPtr("500"),
	})
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.KindInvalidState))
	assert.True(t, strings.HasPrefix(err.Error(), "Stock insuficiente para producto Huevo 12pz"))

	assert.Equal(t, 10, f.stock(t, a.ID))
	assert.Equal(t, 1, f.stock(t, b.ID))
	assert.Equal(t, "500.00", f.saldo(t).StringFixed(2))

	list, err := f.ventas.ListarVentas(ctx, f.actor, dto.VentaRangoFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalVentas)
}

func TestRegistrarVenta_SinCajaAbierta(t *testing.T) {
	f := newFixture(t)
	p := f.producto(t, "Sal", "15", 3)

	_, err := f.ventas.RegistrarVenta(context.Background(), f.actor, dto.RegistrarVentaRequest{
		Items:         []dto.ItemVentaRequest{{ProductoID: p.ID.String(), Cantidad: 1}},
		MontoRecibido: decPtr("20"),
	})
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.KindInvalidState))
	assert.Equal(t, msgSinCajaAbierta, err.Error())
	assert.Equal(t, 3, f.stock(t, p.ID))
}

func TestRegistrarVenta_Validaciones(t *testing.T) {
	f := newFixture(t)
	f.abrirCaja(t, "100")
	p := f.producto(t, "Jabón", "30", 3)
	ctx := context.Background()

	cases := map[string]dto.RegistrarVentaRequest{
		"sin items": {MontoRecibido: decPtr("10")},
		"efectivo sin monto": {
			Items: []dto.ItemVentaRequest{{ProductoID: p.ID.String(), Cantidad: 1}},
		},
		"cantidad cero": {
			Items:         []dto.ItemVentaRequest{{ProductoID: p.ID.String(), Cantidad: 0}},
			MontoRecibido: decPtr("100"),
		},
		"producto invalido": {
			Items:         []dto.ItemVentaRequest{{ProductoID: "no-es-uuid", Cantidad: 1}},
			MontoRecibido: decPtr("100"),
		},
		"monto recibido con fraccion de centavo": {
			Items:         []dto.ItemVentaRequest{{ProductoID: p.ID.String(), Cantidad: 1}},
			MontoRecibido: decPtr("50.005"),
		},
		"monto menor al total": {
			Items:         []dto.ItemVentaRequest{{ProductoID: p.ID.String(), Cantidad: 2}},
			MontoRecibido: decPtr("59.99"),
		},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.ventas.RegistrarVenta(ctx, f.actor, req)
			require.Error(t, err)
			assert.True(t, apierror.Is(err, apierror.KindInvalidInput), err.Error())
		})
	}
	assert.Equal(t, 3, f.stock(t, p.ID))
	assert.Equal(t, "100.00", f.saldo(t).StringFixed(2))
}

func TestRegistrarVenta_TarjetaNoRequiereMontoRecibido(t *testing.T) {
	f := newFixture(t)
	f.abrirCaja(t, "0")
	p := f.producto(t, "Café molido", "89.90", 4)

	v, err := f.ventas.RegistrarVenta(context.Background(), f.actor, dto.RegistrarVentaRequest{
		Items:     []dto.ItemVentaRequest{{ProductoID: p.ID.String(), Cantidad: 2}},
		FormaPago: "Tarjeta",
	})
	require.NoError(t, err)
	assert.Equal(t, "179.80", v.TotalPagado.StringFixed(2))
	assert.Nil(t, v.Cambio)
	assert.Equal(t, "179.80", f.saldo(t).StringFixed(2))
}

func TestRegistrarVenta_AplicaDescuento(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.abrirCaja(t, "0")
	p := f.producto(t, "Galletas", "20", 10)
	p.DescuentoPorcentaje = decPtr("15")
	require.NoError(t, f.productoRepo.Update(ctx, nil, p))

	v := f.vender(t, p, 3, "100")

	require.Len(t, v.Items, 1)
	assert.Equal(t, "20.00", v.Items[0].PrecioLista.StringFixed(2))
	assert.Equal(t, "17.00", v.Items[0].PrecioUnitario.StringFixed(2))
	assert.Equal(t, "51.00", v.TotalPagado.StringFixed(2))
	assert.Equal(t, "49.00", v.Cambio.StringFixed(2))
}

func TestRegistrarVenta_PrecioDeVariante(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.abrirCaja(t, "0")
	p := f.producto(t, "Refresco", "18", 10)
	variante := &model.VarianteProducto{ProductoID: p.ID, NegocioID: p.NegocioID, Nombre: "2 L", Precio: decPtr("35")}
	require.NoError(t, f.productoRepo.CreateVariante(ctx, variante))
	vid := variante.ID.String()

	v, err := f.ventas.RegistrarVenta(ctx, f.actor, dto.RegistrarVentaRequest{
		Items:         []dto.ItemVentaRequest{{ProductoID: p.ID.String(), VarianteProductoID: &vid, Cantidad: 2}},
		MontoRecibido: decPtr("70"),
	})
	require.NoError(t, err)
	assert.Equal(t, "70.00", v.TotalPagado.StringFixed(2))
	assert.Equal(t, 8, f.stock(t, p.ID))
}

func TestRegistrarVenta_ProductoInactivo(t *testing.T) {
	f := newFixture(t)
	f.abrirCaja(t, "0")
	p := f.producto(t, "Descontinuado", "10", 5)
	require.NoError(t, f.productoRepo.SetActivo(context.Background(), f.actor.NegocioID, p.ID, false))

	_, err := f.ventas.RegistrarVenta(context.Background(), f.actor, dto.RegistrarVentaRequest{
		Items:         []dto.ItemVentaRequest{{ProductoID: p.ID.String(), Cantidad: 1}},
		MontoRecibido: decPtr("10"),
	})
	assert.True(t, apierror.Is(err, apierror.KindInvalidState))
}

func TestRegistrarVenta_ProductoDeOtroNegocio(t *testing.T) {
	f := newFixture(t)
	f.abrirCaja(t, "0")
	otro := f.nuevoNegocio(t, "Papelería Centro")
	ajeno := f.productoDe(t, otro, "Cuaderno", "45", 10)

	_, err := f.ventas.RegistrarVenta(context.Background(), f.actor, dto.RegistrarVentaRequest{
		Items:         []dto.ItemVentaRequest{{ProductoID: ajeno.ID.String(), Cantidad: 1}},
		MontoRecibido: decPtr("50"),
	})
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.KindNotFound))

	p, err := f.productoRepo.FindByID(context.Background(), otro.NegocioID, ajeno.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, p.StockActual)
}

func TestEliminarVenta_RevierteStockYCaja(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.abrirCaja(t, "1000")
	p := f.producto(t, "Atún", "22", 10)
	v := f.vender(t, p, 4, "100")
	require.Equal(t, 6, f.stock(t, p.ID))

	require.NoError(t, f.ventas.EliminarVenta(ctx, f.actor, uuid.MustParse(v.ID)))

	assert.Equal(t, 10, f.stock(t, p.ID))
	assert.Equal(t, "1000.00", f.saldo(t).StringFixed(2))

	movs, err := f.caja.ListarMovimientos(ctx, f.actor, dto.MovimientoCajaFilter{Tipo: model.MovimientoSalida})
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, categoriaCancelacion, movs[0].Categoria)
	assert.Equal(t, "CANCEL-VENTA-"+v.ID, *movs[0].Referencia)

	_, err = f.ventas.ObtenerVenta(ctx, f.actor, uuid.MustParse(v.ID))
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}

func TestEliminarVenta_ConCajaCerradaSoloRestauraStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caja := f.abrirCaja(t, "100")
	p := f.producto(t, "Arroz 1kg", "32", 5)
	v := f.vender(t, p, 2, "64")
	_, err := f.caja.Cerrar(ctx, f.actor, uuid.MustParse(caja.ID), dto.CerrarCajaRequest{})
	require.NoError(t, err)

	require.NoError(t, f.ventas.EliminarVenta(ctx, f.actor, uuid.MustParse(v.ID)))
	assert.Equal(t, 5, f.stock(t, p.ID))

	cerrada, err := f.cajaRepo.FindByID(ctx, f.actor.NegocioID, uuid.MustParse(caja.ID))
	require.NoError(t, err)
	assert.Equal(t, "164.00", cerrada.MontoActual.StringFixed(2))
}

func TestEliminarVenta_NoEncontrada(t *testing.T) {
	f := newFixture(t)
	err := f.ventas.EliminarVenta(context.Background(), f.actor, uuid.New())
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}

func TestListarVentas_TotalesYMisVentas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.abrirCaja(t, "0")
	p := f.producto(t, "Tortillas", "24", 50)
	f.vender(t, p, 1, "24")
	f.vender(t, p, 2, "50")

	list, err := f.ventas.ListarVentas(ctx, f.actor, dto.VentaRangoFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.TotalVentas)
	assert.Equal(t, "72.00", list.TotalMonto.StringFixed(2))

	mias, err := f.ventas.MisVentas(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mias.TotalVentas)

	otro := f.actor
	otro.UsuarioID = uuid.New()
	ajenas, err := f.ventas.MisVentas(ctx, otro)
	require.NoError(t, err)
	assert.Zero(t, ajenas.TotalVentas)

	_, err = f.ventas.ListarVentas(ctx, f.actor, dto.VentaRangoFilter{Desde: "2026-02-10", Hasta: "2026-02-01"})
	assert.True(t, apierror.Is(err, apierror.KindInvalidInput))
}

func TestObtenerTicket(t *testing.T) {
	f := newFixture(t)
	f.abrirCaja(t, "0")
	p := f.producto(t, "Vela aromática", "65", 3)
	v := f.vender(t, p, 1, "100")

	texto, err := f.ventas.ObtenerTicket(context.Background(), f.actor, uuid.MustParse(v.ID))
	require.NoError(t, err)
	assert.Equal(t, *v.Ticket, texto)
	assert.Contains(t, texto, "ABARROTES LUPITA")
}
