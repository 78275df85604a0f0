package router_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ventify/internal/dto"
	"ventify/internal/infra"
	"ventify/internal/router"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newServer runs the full router on SQLite without Redis: no price cache and
// no async tickets.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true, Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, infra.RunMigrations(db))

	srv := httptest.NewServer(router.New(testConfig(t), db, nil, nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth_RedisDeshabilitado(t *testing.T) {
	srv := newServer(t)
	resp := do(t, srv, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, "disabled", body["redis"])
	assert.Equal(t, "connected", body["db"])
}

func TestFlujoDeVenta(t *testing.T) {
	srv := newServer(t)
	tok := registrar(t, srv, "Abarrotes Centro", "centro").AccessToken

	resp := do(t, srv, http.MethodPost, "/v1/caja/abrir", jsonBody(t, map[string]any{"monto_inicial": 1000}), tok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var caja dto.CajaResponse
	decodeJSON(t, resp, &caja)

	p := crearProducto(t, srv, tok, "Leche entera 1L", "7501055300075", 150, 10)

	resp = do(t, srv, http.MethodPost, "/v1/ventas", jsonBody(t, map[string]any{
		"items":          []map[string]any{{"producto_id": p.ID, "cantidad": 1}},
		"forma_pago":     "Efectivo",
		"monto_recibido": 200,
	}), tok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var venta dto.VentaResponse
	decodeJSON(t, resp, &venta)
	assert.Equal(t, "50.00", venta.Cambio.StringFixed(2))

	resp = do(t, srv, http.MethodGet, "/v1/caja/actual", nil, tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &caja)
	assert.Equal(t, "1150.00", caja.MontoActual.StringFixed(2))

	resp = do(t, srv, http.MethodGet, "/v1/precio/7501055300075", nil, tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var precio dto.ConsultaPreciosResponse
	decodeJSON(t, resp, &precio)
	assert.Equal(t, 9, precio.StockDisponible)

	resp = do(t, srv, http.MethodGet, "/v1/ventas/"+venta.ID+"/ticket", nil, tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodGet, "/v1/ventas", nil, tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.VentaListResponse
	decodeJSON(t, resp, &list)
	assert.Equal(t, int64(1), list.TotalVentas)

	resp = do(t, srv, http.MethodDelete, "/v1/ventas/"+venta.ID, nil, tok)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodPost, "/v1/caja/"+caja.ID+"/cerrar", jsonBody(t, map[string]any{}), tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &caja)
	assert.False(t, caja.Abierta)
	assert.Equal(t, "1000.00", caja.MontoActual.StringFixed(2))
}

func TestErroresDeDominioComoHTTP(t *testing.T) {
	srv := newServer(t)
	tok := registrar(t, srv, "Tienda Errores", "errores").AccessToken
	p := crearProducto(t, srv, tok, "Producto Uno", "111", 10, 1)

	// No open caja.
	resp := do(t, srv, http.MethodPost, "/v1/ventas", jsonBody(t, map[string]any{
		"items": []map[string]any{{"producto_id": p.ID, "cantidad": 1}}, "monto_recibido": 10,
	}), tok)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var apiErr map[string]any
	decodeJSON(t, resp, &apiErr)
	assert.Equal(t, "No hay una caja abierta. Abre una caja primero.", apiErr["detail"])

	resp = do(t, srv, http.MethodGet, "/v1/ventas/"+uuid.NewString(), nil, tok)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodGet, "/v1/ventas/no-es-uuid", nil, tok)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodPost, "/v1/productos", strings.NewReader(`{"nombre":"x"}`), tok)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodGet, "/v1/caja/actual", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestRolesYAislamiento(t *testing.T) {
	srv := newServer(t)
	tokA := registrar(t, srv, "Negocio A", "dueno-a").AccessToken
	tokB := registrar(t, srv, "Negocio B", "dueno-b").AccessToken
	p := crearProducto(t, srv, tokA, "Solo de A", "222", 20, 5)

	resp := do(t, srv, http.MethodGet, "/v1/productos/"+p.ID, nil, tokB)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodPost, "/v1/usuarios", jsonBody(t, map[string]any{
		"username": "cajero-a", "nombre": "Cajero A", "password": "password123", "rol": "cajero",
	}), tokA)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodPost, "/v1/auth/login", jsonBody(t, map[string]any{
		"username": "cajero-a", "password": "password123",
	}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login dto.LoginResponse
	decodeJSON(t, resp, &login)

	// A cajero sells but does not manage the catalog or read reports.
	resp = do(t, srv, http.MethodGet, "/v1/productos/"+p.ID, nil, login.AccessToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = do(t, srv, http.MethodPost, "/v1/productos", jsonBody(t, map[string]any{"nombre": "Intruso"}), login.AccessToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
	resp = do(t, srv, http.MethodGet, "/v1/reportes/ventas", nil, login.AccessToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodPost, "/v1/auth/login", jsonBody(t, map[string]any{
		"username": "cajero-a", "password": "incorrecta",
	}), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestRefreshTokenNoAbreRutas(t *testing.T) {
	srv := newServer(t)
	login := registrar(t, srv, "Negocio Tokens", "dueno-tokens")

	resp := do(t, srv, http.MethodGet, "/v1/productos", nil, login.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodPost, "/v1/auth/refresh", jsonBody(t, map[string]any{
		"refresh_token": login.AccessToken,
	}), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodPost, "/v1/auth/refresh", jsonBody(t, map[string]any{
		"refresh_token": login.RefreshToken,
	}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var nuevo dto.LoginResponse
	decodeJSON(t, resp, &nuevo)

	resp = do(t, srv, http.MethodGet, "/v1/productos", nil, nuevo.AccessToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestCerrarCajaSinCuerpo(t *testing.T) {
	srv := newServer(t)
	tok := registrar(t, srv, "Negocio Cierre", "dueno-cierre").AccessToken

	resp := do(t, srv, http.MethodPost, "/v1/caja/abrir", jsonBody(t, map[string]any{"monto_inicial": 250}), tok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var caja dto.CajaResponse
	decodeJSON(t, resp, &caja)

	resp = do(t, srv, http.MethodPost, "/v1/caja/"+caja.ID+"/cerrar", strings.NewReader(`{"monto_cierre":`), tok)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodPost, "/v1/caja/"+caja.ID+"/cerrar", nil, tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &caja)
	assert.False(t, caja.Abierta)
	assert.Equal(t, "250.00", caja.MontoActual.StringFixed(2))
}

func TestProveedores(t *testing.T) {
	srv := newServer(t)
	tokA := registrar(t, srv, "Negocio Compras", "dueno-compras").AccessToken
	tokB := registrar(t, srv, "Negocio Vecino", "dueno-vecino").AccessToken

	resp := do(t, srv, http.MethodPost, "/v1/proveedores", jsonBody(t, map[string]any{
		"nombre": "Distribuidora Occidente", "rfc": "DOC010101AB1", "correo": "pedidos@doc.mx",
	}), tokA)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var prov dto.ProveedorResponse
	decodeJSON(t, resp, &prov)

	resp = do(t, srv, http.MethodPost, "/v1/proveedores", jsonBody(t, map[string]any{
		"nombre": "Duplicado", "rfc": "DOC010101AB1",
	}), tokA)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodPost, "/v1/proveedores", jsonBody(t, map[string]any{
		"nombre": "Correo malo", "correo": "no-es-correo",
	}), tokA)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodGet, "/v1/proveedores", nil, tokA)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []dto.ProveedorResponse
	decodeJSON(t, resp, &list)
	require.Len(t, list, 1)

	resp = do(t, srv, http.MethodGet, "/v1/proveedores/"+prov.ID, nil, tokB)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodPut, "/v1/proveedores/"+prov.ID, jsonBody(t, map[string]any{
		"nombre": "Distribuidora Occidente SA", "rfc": "DOC010101AB1",
	}), tokA)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &prov)
	assert.Equal(t, "Distribuidora Occidente SA", prov.Nombre)
	assert.Nil(t, prov.Correo)

	resp = do(t, srv, http.MethodDelete, "/v1/proveedores/"+prov.ID, nil, tokA)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
	resp = do(t, srv, http.MethodGet, "/v1/proveedores/"+prov.ID, nil, tokA)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestPerfilNegocio(t *testing.T) {
	srv := newServer(t)
	tok := registrar(t, srv, "Miscelánea Rosy", "dueno-rosy").AccessToken

	resp := do(t, srv, http.MethodPut, "/v1/negocio/perfil", jsonBody(t, map[string]any{
		"nombre": "Miscelánea Rosy", "direccion": "Calle 5 de Mayo 18", "telefono": "477-555-0199",
	}), tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodPost, "/v1/usuarios", jsonBody(t, map[string]any{
		"username": "gerente-rosy", "nombre": "Gerente Rosy", "password": "password123", "rol": "gerente",
	}), tok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	resp = do(t, srv, http.MethodPost, "/v1/auth/login", jsonBody(t, map[string]any{
		"username": "gerente-rosy", "password": "password123",
	}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var gerente dto.LoginResponse
	decodeJSON(t, resp, &gerente)

	resp = do(t, srv, http.MethodPut, "/v1/negocio/perfil", jsonBody(t, map[string]any{
		"nombre": "Rosy Express",
	}), gerente.AccessToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodGet, "/v1/negocio/perfil", nil, gerente.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var perfil dto.NegocioPerfilResponse
	decodeJSON(t, resp, &perfil)
	assert.Equal(t, "Miscelánea Rosy", perfil.Nombre)
	require.NotNil(t, perfil.Direccion)

	// The perfil heads every receipt.
	resp = do(t, srv, http.MethodPost, "/v1/caja/abrir", jsonBody(t, map[string]any{"monto_inicial": 0}), tok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	p := crearProducto(t, srv, tok, "Chicles", "333", 5, 10)
	resp = do(t, srv, http.MethodPost, "/v1/ventas", jsonBody(t, map[string]any{
		"items": []map[string]any{{"producto_id": p.ID, "cantidad": 2}}, "monto_recibido": 10,
	}), tok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var venta dto.VentaResponse
	decodeJSON(t, resp, &venta)

	resp = do(t, srv, http.MethodGet, "/v1/ventas/"+venta.ID+"/ticket", nil, tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "Calle 5 de Mayo 18")
	assert.Contains(t, string(body), "Tel. 477-555-0199")
}

func TestVariantesCRUD(t *testing.T) {
	srv := newServer(t)
	tok := registrar(t, srv, "Dulcería Mimi", "dueno-mimi").AccessToken
	p := crearProducto(t, srv, tok, "Paleta", "444", 8, 30)

	resp := do(t, srv, http.MethodPost, "/v1/productos/"+p.ID+"/variantes", jsonBody(t, map[string]any{
		"nombre": "Fresa",
	}), tok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var v dto.VarianteResponse
	decodeJSON(t, resp, &v)

	resp = do(t, srv, http.MethodPut, "/v1/productos/"+p.ID+"/variantes/"+v.ID, jsonBody(t, map[string]any{
		"nombre": "Fresa con chile", "precio": 9.5,
	}), tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &v)
	assert.Equal(t, "Fresa con chile", v.Nombre)
	require.NotNil(t, v.Precio)
	assert.Equal(t, "9.50", v.Precio.StringFixed(2))

	resp = do(t, srv, http.MethodGet, "/v1/productos/"+p.ID+"/variantes", nil, tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []dto.VarianteResponse
	decodeJSON(t, resp, &list)
	require.Len(t, list, 1)

	resp = do(t, srv, http.MethodDelete, "/v1/productos/"+p.ID+"/variantes/"+v.ID, nil, tok)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodDelete, "/v1/productos/"+p.ID+"/variantes/"+v.ID, nil, tok)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
