package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ventify/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const secret = "test-secret-key-for-jwt-testing"

type usuariosStub map[uuid.UUID]*model.Usuario

func (s usuariosStub) FindActivoByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func firmar(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	if _, ok := claims["typ"]; !ok {
		claims["typ"] = model.TokenAcceso
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func newEngine(users UsuarioLookup, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWTAuth(secret), TenantResolver(users)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		actor, _ := GetActor(c)
		c.JSON(http.StatusOK, gin.H{"negocio_id": actor.NegocioID.String(), "nombre": actor.Nombre, "rol": actor.Rol})
	})
	r.GET("/", handlers...)
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTenantResolver_DesdeClaim(t *testing.T) {
	negocio := uuid.New()
	r := newEngine(usuariosStub{})
	tok := firmar(t, jwt.MapClaims{
		"user_id": uuid.NewString(), "username": "ana", "nombre": "Ana López",
		"rol": model.RolCajero, "negocio_id": negocio.String(),
	})

	w := get(r, tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), negocio.String())
	assert.Contains(t, w.Body.String(), "Ana López")
}

func TestTenantResolver_FallbackAlUsuario(t *testing.T) {
	negocio := uuid.New()
	uid := uuid.New()
	r := newEngine(usuariosStub{uid: {ID: uid, NegocioID: &negocio, Nombre: "Beto", Rol: model.RolGerente}})
	tok := firmar(t, jwt.MapClaims{"user_id": uid.String(), "username": "beto", "rol": model.RolCajero, "negocio_id": ""})

	w := get(r, tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), negocio.String())
	assert.Contains(t, w.Body.String(), model.RolGerente)
}

func TestTenantResolver_SinNegocio(t *testing.T) {
	uid := uuid.New()
	r := newEngine(usuariosStub{uid: {ID: uid, Nombre: "Huérfano"}})
	tok := firmar(t, jwt.MapClaims{"user_id": uid.String(), "rol": model.RolCajero})

	w := get(r, tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Negocio no resuelto")
}

func TestJWTAuth_TokenInvalido(t *testing.T) {
	r := newEngine(usuariosStub{})
	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "basura").Code)

	otro, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": uuid.NewString()}).
		SignedString([]byte("otra-clave"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, otro).Code)

	refresh := firmar(t, jwt.MapClaims{
		"user_id": uuid.NewString(), "rol": model.RolDueno, "negocio_id": uuid.NewString(), "typ": model.TokenRefresh,
	})
	assert.Equal(t, http.StatusUnauthorized, get(r, refresh).Code)
}

func TestRequireRole(t *testing.T) {
	negocio := uuid.New().String()
	r := newEngine(usuariosStub{}, RequireRole(model.RolDueno, model.RolGerente))

	cajero := firmar(t, jwt.MapClaims{"user_id": uuid.NewString(), "rol": model.RolCajero, "negocio_id": negocio})
	assert.Equal(t, http.StatusForbidden, get(r, cajero).Code)

	dueno := firmar(t, jwt.MapClaims{"user_id": uuid.NewString(), "rol": model.RolDueno, "negocio_id": negocio})
	assert.Equal(t, http.StatusOK, get(r, dueno).Code)
}
