package handler

import (
	"net/http"

	"ventify/internal/dto"
	"ventify/internal/service"

	"github.com/gin-gonic/gin"
)

type InventarioHandler struct{ svc service.InventarioService }

func NewInventarioHandler(svc service.InventarioService) *InventarioHandler {
	return &InventarioHandler{svc: svc}
}

// Reabastecer godoc
// @Summary Registrar una compra de mercancía
// @Tags inventario
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID del producto"
// @Param body body dto.ReabastecerRequest true "Compra"
// @Success 200 {object} dto.ProductoResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/inventario/productos/{id}/reabastecer [post]
func (h *InventarioHandler) Reabastecer(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ReabastecerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Reabastecer(c.Request.Context(), a, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AgregarMerma godoc
// @Summary Reportar merma de un producto
// @Tags inventario
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID del producto"
// @Param body body dto.MermaRequest true "Merma"
// @Success 200 {object} dto.ProductoResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/inventario/productos/{id}/merma [post]
func (h *InventarioHandler) AgregarMerma(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.MermaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AgregarMerma(c.Request.Context(), a, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventarioHandler) ListarMermas(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var filter dto.MermaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarMermas(c.Request.Context(), a, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
