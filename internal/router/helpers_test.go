package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ventify/internal/config"
	"ventify/internal/dto"

	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:                  "test",
		JWTSecret:            "test-secret-key",
		JWTExpirationHours:   8,
		JWTRefreshHours:      24,
		PriceCacheTTLMinutes: 5,
		WorkerPoolSize:       1,
		PDFStoragePath:       t.TempDir(),
		BusinessTimezone:     "UTC",
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body io.Reader, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// registrar creates a negocio with its dueno and returns the access token.
func registrar(t *testing.T, srv *httptest.Server, negocio, username string) dto.LoginResponse {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/v1/auth/registro", jsonBody(t, map[string]any{
		"nombre_negocio": negocio,
		"username":       username,
		"nombre":         "Dueño " + negocio,
		"password":       "password123",
	}), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var login dto.LoginResponse
	decodeJSON(t, resp, &login)
	require.NotEmpty(t, login.AccessToken)
	return login
}

func crearProducto(t *testing.T, srv *httptest.Server, token, nombre, barcode string, precio float64, stock int) dto.ProductoResponse {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/v1/productos", jsonBody(t, map[string]any{
		"nombre":           nombre,
		"codigo_barras":    barcode,
		"precio_compra":    precio / 2,
		"precio_venta":     precio,
		"cantidad_inicial": stock,
	}), token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p dto.ProductoResponse
	decodeJSON(t, resp, &p)
	return p
}
