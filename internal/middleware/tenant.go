package middleware

import (
	"context"
	"net/http"

	"ventify/internal/apierror"
	"ventify/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const ActorKey = "actor"

// UsuarioLookup is the slice of the user repository the resolver needs.
type UsuarioLookup interface {
	FindActivoByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error)
}

// TenantResolver turns the validated claims into a model.Actor. The tenant
// comes from the negocio_id claim, or from the user row for tokens issued
// before the account joined a business. Must run after JWTAuth.
func TenantResolver(users UsuarioLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}
		usuarioID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
			return
		}

		nombre := claims.Nombre
		if nombre == "" {
			nombre = claims.Username
		}
		actor := model.Actor{UsuarioID: usuarioID, Rol: claims.Rol, Nombre: nombre}
		if negocioID, err := uuid.Parse(claims.NegocioID); err == nil && negocioID != uuid.Nil {
			actor.NegocioID = negocioID
		}

		if actor.NegocioID == uuid.Nil {
			u, err := users.FindActivoByID(c.Request.Context(), usuarioID)
			if err != nil {
				log.Debug().Err(err).Str("user_id", claims.UserID).Msg("tenant: usuario no resuelto")
			} else if u.NegocioID != nil {
				actor.NegocioID = *u.NegocioID
				actor.Nombre = u.Nombre
				actor.Rol = u.Rol
			}
		}
		if actor.NegocioID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Negocio no resuelto"))
			return
		}

		c.Set(ActorKey, actor)
		c.Next()
	}
}

// GetActor returns the actor resolved by TenantResolver.
func GetActor(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}
