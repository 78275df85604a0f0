package handler

import (
	"net/http"

	"ventify/internal/dto"
	"ventify/internal/service"

	"github.com/gin-gonic/gin"
)

type NegocioHandler struct{ svc service.NegocioService }

func NewNegocioHandler(svc service.NegocioService) *NegocioHandler {
	return &NegocioHandler{svc: svc}
}

// Perfil godoc
// @Summary Perfil del negocio (encabezado de tickets)
// @Tags negocio
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.NegocioPerfilResponse
// @Router /v1/negocio/perfil [get]
func (h *NegocioHandler) Perfil(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	resp, err := h.svc.Perfil(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ActualizarPerfil godoc
// @Summary Actualiza el perfil del negocio
// @Description Solo el dueño puede cambiar el nombre; el gerente edita los demás campos.
// @Tags negocio
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.NegocioPerfilRequest true "Perfil"
// @Success 200 {object} dto.NegocioPerfilResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/negocio/perfil [put]
func (h *NegocioHandler) ActualizarPerfil(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req dto.NegocioPerfilRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarPerfil(c.Request.Context(), a, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
