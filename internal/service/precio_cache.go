package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ventify/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// PrecioCache keeps the static catalog data behind the barcode price check.
// It never stores a computed price: the discount is evaluated after every
// read. A nil *PrecioCache is a valid, disabled cache.
type PrecioCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPrecioCache(rdb *redis.Client, ttl time.Duration) *PrecioCache {
	if rdb == nil {
		return nil
	}
	return &PrecioCache{rdb: rdb, ttl: ttl}
}

func precioCacheKey(negocioID uuid.UUID, barcode string) string {
	return "precio:" + negocioID.String() + ":" + barcode
}

func (c *PrecioCache) Get(ctx context.Context, negocioID uuid.UUID, barcode string) (*model.Producto, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, precioCacheKey(negocioID, barcode)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("lectura de cache de precios fallida")
		}
		return nil, false
	}
	var p model.Producto
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

// Set is best effort.
func (c *PrecioCache) Set(ctx context.Context, p *model.Producto) {
	if c == nil || p.CodigoBarras == nil {
		return
	}
	snapshot := *p
	snapshot.Variantes = nil
	b, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, precioCacheKey(p.NegocioID, *p.CodigoBarras), b, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("escritura de cache de precios fallida")
	}
}

// Invalidar drops p's entry. Callers invoke it after every committed change
// to price, stock, discount or activation.
func (c *PrecioCache) Invalidar(ctx context.Context, p *model.Producto) {
	if c == nil || p == nil || p.CodigoBarras == nil {
		return
	}
	if err := c.rdb.Del(ctx, precioCacheKey(p.NegocioID, *p.CodigoBarras)).Err(); err != nil {
		log.Warn().Err(err).Msg("invalidación de cache de precios fallida")
	}
}

// InvalidarBarcode drops the entry for a barcode the product no longer has.
func (c *PrecioCache) InvalidarBarcode(ctx context.Context, negocioID uuid.UUID, barcode string) {
	if c == nil || barcode == "" {
		return
	}
	if err := c.rdb.Del(ctx, precioCacheKey(negocioID, barcode)).Err(); err != nil {
		log.Warn().Err(err).Msg("invalidación de cache de precios fallida")
	}
}
