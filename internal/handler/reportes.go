package handler

import (
	"net/http"

	"ventify/internal/dto"
	"ventify/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportesHandler struct{ svc service.ReporteService }

func NewReportesHandler(svc service.ReporteService) *ReportesHandler {
	return &ReportesHandler{svc: svc}
}

// Ventas godoc
// @Summary      Reporte de ventas
// @Description  Con formato=excel o formato=pdf devuelve el archivo; si no, JSON. Mientras haya caja abierta el reporte cubre esa sesión.
// @Tags         reportes
// @Produce      json
// @Security     BearerAuth
// @Param        fecha_inicio query string false "YYYY-MM-DD"
// @Param        fecha_fin    query string false "YYYY-MM-DD"
// @Param        agrupacion   query string false "dia | semana | mes | anio"
// @Param        formato      query string false "json | excel | pdf"
// @Success      200 {object} dto.ReporteVentasResponse
// @Router       /v1/reportes/ventas [get]
func (h *ReportesHandler) Ventas(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var filter dto.ReporteFilter
	if !bindQuery(c, &filter) {
		return
	}
	if filter.Formato == "excel" || filter.Formato == "pdf" {
		archivo, err := h.svc.Exportar(c.Request.Context(), a, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		sendArchivo(c, archivo)
		return
	}
	resp, err := h.svc.ReporteVentas(c.Request.Context(), a, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportesHandler) InventarioPDF(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	archivo, err := h.svc.InventarioPDF(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	sendArchivo(c, archivo)
}

func sendArchivo(c *gin.Context, a *service.Archivo) {
	c.Header("Content-Disposition", `attachment; filename="`+a.Nombre+`"`)
	c.Data(http.StatusOK, a.ContentType, a.Contenido)
}
