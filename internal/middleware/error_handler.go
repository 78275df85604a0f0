package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"ventify/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const msgErrorInterno = "Error interno del servidor"

// ErrorHandler renders the last error a handler attached with c.Error.
// Domain errors keep their message and map to 400/409/404; anything else is
// logged with the request context and answered with a generic 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status := apierror.StatusOf(err)
		if status != http.StatusInternalServerError {
			c.JSON(status, apierror.New(err.Error()))
			return
		}

		ev := log.Error().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath())
		if a, ok := GetActor(c); ok {
			ev = ev.Str("negocio_id", a.NegocioID.String())
		}
		ev.Err(err).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, apierror.New(msgErrorInterno))
	}
}

// Recovery turns a panic into a 500 and logs the stack; clients never see it.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Str("path", c.Request.URL.Path).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New(msgErrorInterno))
			}
		}()
		c.Next()
	}
}

// Logger writes one line per request. 5xx log at error and 4xx at warn.
// Requests that reached a tenant carry negocio_id and usuario_id.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := zerolog.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			level = zerolog.ErrorLevel
		case status >= http.StatusBadRequest:
			level = zerolog.WarnLevel
		}
		ev := log.WithLevel(level).
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start))
		if a, ok := GetActor(c); ok {
			ev = ev.Str("negocio_id", a.NegocioID.String()).Str("usuario_id", a.UsuarioID.String())
		}
		ev.Msg("request")
	}
}
