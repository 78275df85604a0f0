package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"ventify/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// contador counts hits per key inside fixed windows and reports the count
// including this hit plus when the window ends.
type contador interface {
	hit(ctx context.Context, key string, window time.Duration) (int64, time.Time, error)
}

// Limiter is a fixed-window rate limiter. Counters live in Redis when a
// client is configured, so every instance shares them; otherwise in memory.
type Limiter struct {
	nombre string
	limit  int64
	window time.Duration
	store  contador
}

// NewLimiter builds a limiter named after the routes it guards. rdb may be nil.
func NewLimiter(nombre string, limit int, window time.Duration, rdb *redis.Client) *Limiter {
	l := &Limiter{nombre: nombre, limit: int64(limit), window: window}
	if rdb != nil {
		l.store = &redisContador{rdb: rdb, prefix: "ratelimit:" + nombre + ":"}
	} else {
		l.store = newMemoriaContador()
	}
	return l
}

// ClaveFunc extracts the bucket key of a request.
type ClaveFunc func(c *gin.Context) string

// PorIP buckets requests by client address.
func PorIP(c *gin.Context) string { return c.ClientIP() }

// PorIPYUsuario buckets login attempts per address and account, so terminals
// behind one NAT do not lock each other out. The body is restored for the handler.
func PorIPYUsuario(c *gin.Context) string {
	ip := c.ClientIP()
	if c.Request.Body == nil {
		return ip
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 64<<10))
	if err != nil {
		return ip
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var cred struct {
		Username string `json:"username"`
	}
	if json.Unmarshal(body, &cred) != nil {
		return ip
	}
	return ip + "|" + strings.ToLower(strings.TrimSpace(cred.Username))
}

// Handler rejects requests over the limit with 429. Counter errors fail open.
func (l *Limiter) Handler(clave ClaveFunc, mensaje string) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, fin, err := l.store.hit(c.Request.Context(), clave(c), l.window)
		if err != nil {
			log.Warn().Err(err).Str("limiter", l.nombre).Msg("rate limiter unavailable, request allowed")
			c.Next()
			return
		}
		if n > l.limit {
			segundos := int(time.Until(fin).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(segundos))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(mensaje))
			return
		}
		c.Next()
	}
}

// ── Memoria ───────────────────────────────────────────────────────────────────

const purgeInterval = 5 * time.Minute

type ventana struct {
	count int64
	fin   time.Time
}

// memoriaContador keeps counters in a map. The lock is held only while a
// counter is read or bumped; expired windows are swept lazily.
type memoriaContador struct {
	mu          sync.Mutex
	ventanas    map[string]*ventana
	ultimaPurga time.Time
}

func newMemoriaContador() *memoriaContador {
	return &memoriaContador{ventanas: make(map[string]*ventana), ultimaPurga: time.Now()}
}

func (m *memoriaContador) hit(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.ultimaPurga) >= purgeInterval {
		m.purgar(now)
	}
	v, ok := m.ventanas[key]
	if !ok || now.After(v.fin) {
		v = &ventana{fin: now.Add(window)}
		m.ventanas[key] = v
	}
	v.count++
	return v.count, v.fin, nil
}

func (m *memoriaContador) purgar(now time.Time) {
	purged := 0
	for k, v := range m.ventanas {
		if now.After(v.fin) {
			delete(m.ventanas, k)
			purged++
		}
	}
	m.ultimaPurga = now
	if purged > 0 {
		log.Debug().Int("purged", purged).Int("remaining", len(m.ventanas)).Msg("rate limiter entries purged")
	}
}

// ── Redis ─────────────────────────────────────────────────────────────────────

type redisContador struct {
	rdb    *redis.Client
	prefix string
}

func (r *redisContador) hit(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	k := r.prefix + key
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}
	restante := ttl.Val()
	// First hit of a window, or a key left without expiry.
	if restante <= 0 {
		if err := r.rdb.PExpire(ctx, k, window).Err(); err != nil {
			return 0, time.Time{}, err
		}
		restante = window
	}
	return incr.Val(), time.Now().Add(restante), nil
}
