package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"ventify/internal/apierror"
	"ventify/internal/dto"
	"ventify/internal/infra"
	"ventify/internal/model"
	"ventify/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	agrupacionDia    = "dia"
	agrupacionSemana = "semana"
	agrupacionMes    = "mes"
	agrupacionAnio   = "anio"

	topProductosLimit = 10
)

// Archivo is a rendered report ready to be streamed.
type Archivo struct {
	Nombre      string
	ContentType string
	Contenido   []byte
}

type ReporteService interface {
	ReporteVentas(ctx context.Context, actor model.Actor, filter dto.ReporteFilter) (*dto.ReporteVentasResponse, error)
	// Exportar renders the sales report as excel or pdf.
	Exportar(ctx context.Context, actor model.Actor, filter dto.ReporteFilter) (*Archivo, error)
	InventarioPDF(ctx context.Context, actor model.Actor) (*Archivo, error)
}

type reporteService struct {
	ventaRepo    repository.VentaRepository
	cajaRepo     repository.CajaRepository
	negocioRepo  repository.NegocioRepository
	productoRepo repository.ProductoRepository
	reloj        reloj
}

func NewReporteService(
	ventaRepo repository.VentaRepository,
	cajaRepo repository.CajaRepository,
	negocioRepo repository.NegocioRepository,
	productoRepo repository.ProductoRepository,
	loc *time.Location,
) ReporteService {
	return &reporteService{
		ventaRepo:    ventaRepo,
		cajaRepo:     cajaRepo,
		negocioRepo:  negocioRepo,
		productoRepo: productoRepo,
		reloj:        nuevoReloj(loc),
	}
}

// ventana resolves the reporting window. While a caja is open the report
// covers that session only; otherwise [fechaInicio 00:00, fechaFin+1d).
func (s *reporteService) ventana(ctx context.Context, actor model.Actor, filter dto.ReporteFilter) (desde, hasta time.Time, cajaAbierta bool, err error) {
	caja, err := s.cajaRepo.FindAbierta(ctx, nil, actor.NegocioID)
	if err == nil {
		return caja.FechaApertura, s.reloj.now().UTC().Add(time.Nanosecond), true, nil
	}
	if !repository.IsNotFound(err) {
		return time.Time{}, time.Time{}, false, err
	}

	desde, err = s.reloj.parseFecha("fecha_inicio", filter.FechaInicio, false)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	hasta, err = s.reloj.parseFecha("fecha_fin", filter.FechaFin, true)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if !hasta.After(desde) {
		return time.Time{}, time.Time{}, false, apierror.InvalidInput("La fecha inicial debe ser anterior a la final.")
	}
	return desde.UTC(), hasta.UTC(), false, nil
}

func (s *reporteService) ReporteVentas(ctx context.Context, actor model.Actor, filter dto.ReporteFilter) (*dto.ReporteVentasResponse, error) {
	agrupacion := filter.TipoAgrupacion
	if agrupacion == "" {
		agrupacion = agrupacionDia
	}
	desde, hasta, cajaAbierta, err := s.ventana(ctx, actor, filter)
	if err != nil {
		return nil, err
	}

	rango := repository.VentaRango{Desde: desde, Hasta: hasta, FormaPago: filter.MetodoPago}
	ventas, err := s.ventaRepo.List(ctx, actor.NegocioID, rango)
	if err != nil {
		return nil, fmt.Errorf("listar ventas: %w", err)
	}
	top, err := s.ventaRepo.TopProductos(ctx, actor.NegocioID, rango, topProductosLimit)
	if err != nil {
		return nil, fmt.Errorf("top productos: %w", err)
	}

	nombre := "VENTIFY"
	if n, err := s.negocioRepo.FindByID(ctx, actor.NegocioID); err == nil {
		nombre = n.Nombre
	}

	resp := &dto.ReporteVentasResponse{
		NombreNegocio:   nombre,
		FechaGeneracion: s.reloj.now().UTC(),
		TipoAgrupacion:  agrupacion,
		InicioReal:      desde,
		FinReal:         hasta,
		ModoCajaAbierta: cajaAbierta,
		ResumenGeneral:  agregar("General", ventas),
		PorPeriodo:      s.agruparPorPeriodo(ventas, agrupacion),
		TopProductos:    make([]dto.ProductoMasVendido, 0, len(top)),
	}
	for _, t := range top {
		resp.TopProductos = append(resp.TopProductos, dto.ProductoMasVendido{
			ProductoID:      t.ProductoID.String(),
			ProductoNombre:  t.Nombre,
			CantidadVendida: t.Cantidad,
			TotalVentas:     t.Total,
			Transacciones:   t.Transacciones,
		})
	}
	return resp, nil
}

func (s *reporteService) Exportar(ctx context.Context, actor model.Actor, filter dto.ReporteFilter) (*Archivo, error) {
	r, err := s.ReporteVentas(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	sufijo := r.FechaGeneracion.In(s.reloj.loc).Format("20060102_1504")
	switch filter.Formato {
	case "excel":
		data, err := infra.GenerateReporteExcel(r, s.reloj.loc)
		if err != nil {
			return nil, err
		}
		return &Archivo{
			Nombre:      "reporte_ventas_" + sufijo + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Contenido:   data,
		}, nil
	case "pdf":
		data, err := infra.GenerateReportePDF(r, s.reloj.loc)
		if err != nil {
			return nil, err
		}
		return &Archivo{Nombre: "reporte_ventas_" + sufijo + ".pdf", ContentType: "application/pdf", Contenido: data}, nil
	default:
		return nil, apierror.InvalidInput("Formato no soportado. Usa excel o pdf.")
	}
}

func (s *reporteService) InventarioPDF(ctx context.Context, actor model.Actor) (*Archivo, error) {
	var productos []model.Producto
	filter := dto.ProductoFilter{Page: 1, Limit: 100}
	for {
		page, total, err := s.productoRepo.List(ctx, actor.NegocioID, filter)
		if err != nil {
			return nil, err
		}
		productos = append(productos, page...)
		if len(page) == 0 || int64(len(productos)) >= total {
			break
		}
		filter.Page++
	}

	nombre := "VENTIFY"
	if n, err := s.negocioRepo.FindByID(ctx, actor.NegocioID); err == nil {
		nombre = n.Nombre
	}
	ahora := s.reloj.ahora()
	data, err := infra.GenerateInventarioPDF(nombre, productos, ahora)
	if err != nil {
		return nil, err
	}
	return &Archivo{
		Nombre:      "inventario_" + ahora.Format("20060102_1504") + ".pdf",
		ContentType: "application/pdf",
		Contenido:   data,
	}, nil
}

// clavePeriodo labels t for the given grouping in the business zone.
func (s *reporteService) clavePeriodo(t time.Time, agrupacion string) string {
	t = t.In(s.reloj.loc)
	switch agrupacion {
	case agrupacionSemana:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case agrupacionMes:
		return t.Format("2006-01")
	case agrupacionAnio:
		return t.Format("2006")
	default:
		return t.Format("2006-01-02")
	}
}

func (s *reporteService) agruparPorPeriodo(ventas []model.Venta, agrupacion string) []dto.ReporteAgregado {
	grupos := map[string][]model.Venta{}
	for _, v := range ventas {
		k := s.clavePeriodo(v.FechaHora, agrupacion)
		grupos[k] = append(grupos[k], v)
	}
	claves := make([]string, 0, len(grupos))
	for k := range grupos {
		claves = append(claves, k)
	}
	sort.Strings(claves)

	out := make([]dto.ReporteAgregado, 0, len(claves))
	for _, k := range claves {
		out = append(out, agregar(k, grupos[k]))
	}
	return out
}

func agregar(periodo string, ventas []model.Venta) dto.ReporteAgregado {
	a := dto.ReporteAgregado{
		Periodo:            periodo,
		TotalVentas:        len(ventas),
		TotalIngresos:      decimal.Zero,
		TicketPromedio:     decimal.Zero,
		VentaMaxima:        decimal.Zero,
		VentaMinima:        decimal.Zero,
		TotalEfectivo:      decimal.Zero,
		TotalTarjeta:       decimal.Zero,
		TotalTransferencia: decimal.Zero,
	}
	cajeros := map[uuid.UUID]struct{}{}
	for i, v := range ventas {
		a.TotalIngresos = a.TotalIngresos.Add(v.TotalPagado)
		if i == 0 || v.TotalPagado.GreaterThan(a.VentaMaxima) {
			a.VentaMaxima = v.TotalPagado
		}
		if i == 0 || v.TotalPagado.LessThan(a.VentaMinima) {
			a.VentaMinima = v.TotalPagado
		}
		cajeros[v.UsuarioID] = struct{}{}

		switch forma := strings.ToLower(v.FormaPago); {
		case strings.Contains(forma, "tarjeta"):
			a.TotalTarjeta = a.TotalTarjeta.Add(v.TotalPagado)
		case strings.Contains(forma, "transferencia"):
			a.TotalTransferencia = a.TotalTransferencia.Add(v.TotalPagado)
		case esEfectivo(v.FormaPago):
			a.TotalEfectivo = a.TotalEfectivo.Add(v.TotalPagado)
		}
	}
	a.CajerosActivos = len(cajeros)
	if len(ventas) > 0 {
		a.TicketPromedio = a.TotalIngresos.Div(decimal.NewFromInt(int64(len(ventas)))).Round(2)
	}
	return a
}
