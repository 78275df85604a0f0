package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginEngine(l *Limiter, final gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", l.Handler(PorIPYUsuario, "Demasiados intentos"), final)
	return r
}

func postLogin(r http.Handler, username string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"`+username+`","password":"x"}`))
	req.RemoteAddr = "10.0.0.7:5000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLimiter_PorIPYUsuario(t *testing.T) {
	r := loginEngine(NewLimiter("login", 2, time.Minute, nil), func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	})

	w := postLogin(r, "ana")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"ana"`, "body must reach the handler")
	assert.Equal(t, http.StatusOK, postLogin(r, "ANA ").Code)

	w = postLogin(r, "ana")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Another account behind the same address keeps its own budget.
	assert.Equal(t, http.StatusOK, postLogin(r, "beto").Code)
}

func TestLimiter_NoSerializaPeticionesDeUnaIP(t *testing.T) {
	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	r := loginEngine(NewLimiter("login", 10, time.Minute, nil), func(c *gin.Context) {
		entered <- struct{}{}
		<-release
		c.Status(http.StatusOK)
	})

	done := make(chan int, 2)
	for i := 0; i < 2; i++ {
		go func() { done <- postLogin(r, "caja").Code }()
	}
	for i := 0; i < 2; i++ {
		select {
		case <-entered:
		case <-time.After(2 * time.Second):
			close(release)
			t.Fatal("requests from one address were serialized")
		}
	}
	close(release)
	assert.Equal(t, http.StatusOK, <-done)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestLimiter_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", NewLimiter("api", 2, time.Minute, rdb).Handler(PorIP, "Demasiadas solicitudes"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	get := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.8:4000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, get())
	assert.Equal(t, http.StatusOK, get())
	assert.Equal(t, http.StatusTooManyRequests, get())
	assert.True(t, mr.TTL("ratelimit:api:10.0.0.8") > 0)

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, get())
}

func TestMemoriaContador_Purga(t *testing.T) {
	m := newMemoriaContador()
	_, _, err := m.hit(context.Background(), "a", time.Millisecond)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	m.purgar(time.Now())
	assert.Empty(t, m.ventanas)
}
