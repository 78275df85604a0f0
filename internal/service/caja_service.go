package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ventify/internal/apierror"
	"ventify/internal/dto"
	"ventify/internal/model"
	"ventify/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	msgSinCajaAbierta     = "No hay una caja abierta. Abre una caja primero."
	msgCajaNoEncontrada   = "Caja no encontrada o ya cerrada."
	msgSaldoInsuficiente  = "Saldo insuficiente en caja. No se puede retirar más de lo disponible."
	metodoPagoPorDefecto  = "Efectivo"
	turnoPorDefecto       = "General"
	historialLimitDefault = 20
)

type CajaService interface {
	// Abrir returns the tenant's open session when there is one.
	Abrir(ctx context.Context, actor model.Actor, req dto.AbrirCajaRequest) (*dto.CajaResponse, error)
	Cerrar(ctx context.Context, actor model.Actor, cajaID uuid.UUID, req dto.CerrarCajaRequest) (*dto.CajaResponse, error)
	RegistrarMovimiento(ctx context.Context, actor model.Actor, req dto.MovimientoCajaRequest) (*dto.MovimientoCajaResponse, error)
	Actual(ctx context.Context, actor model.Actor) (*dto.CajaResponse, error)
	ListarMovimientos(ctx context.Context, actor model.Actor, filter dto.MovimientoCajaFilter) ([]dto.MovimientoCajaResponse, error)
	// Resumen summarizes cajaID, or the open session when cajaID is nil.
	Resumen(ctx context.Context, actor model.Actor, cajaID *uuid.UUID) (*dto.ResumenCajaResponse, error)
	Historial(ctx context.Context, actor model.Actor, page, limit int) (*dto.HistorialCajaResponse, error)
}

type cajaService struct {
	repo      repository.CajaRepository
	ventaRepo repository.VentaRepository
	reloj     reloj
}

func NewCajaService(repo repository.CajaRepository, ventaRepo repository.VentaRepository, loc *time.Location) CajaService {
	return &cajaService{repo: repo, ventaRepo: ventaRepo, reloj: nuevoReloj(loc)}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────

func (s *cajaService) Abrir(ctx context.Context, actor model.Actor, req dto.AbrirCajaRequest) (*dto.CajaResponse, error) {
	if req.MontoInicial.IsNegative() {
		return nil, apierror.InvalidInput("El monto inicial no puede ser negativo.")
	}
	if err := validarCentavos("monto_inicial", req.MontoInicial); err != nil {
		return nil, err
	}

	existente, err := s.repo.FindAbierta(ctx, nil, actor.NegocioID)
	if err == nil {
		return cajaToResponse(existente), nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("buscar caja abierta: %w", err)
	}

	turno := strings.TrimSpace(req.Turno)
	if turno == "" {
		turno = turnoPorDefecto
	}
	caja := &model.Caja{
		NegocioID:         actor.NegocioID,
		UsuarioAperturaID: actor.UsuarioID,
		AbiertaPor:        actor.Nombre,
		Turno:             turno,
		FechaApertura:     s.reloj.now().UTC(),
		MontoInicial:      req.MontoInicial,
		MontoActual:       req.MontoInicial,
		Abierta:           true,
	}
	if err := s.repo.Create(ctx, caja); err != nil {
		if !repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("abrir caja: %w", err)
		}
		// Lost the race against a concurrent open: hand back the winner.
		ganadora, ferr := s.repo.FindAbierta(ctx, nil, actor.NegocioID)
		if ferr != nil {
			return nil, fmt.Errorf("abrir caja: %w", ferr)
		}
		return cajaToResponse(ganadora), nil
	}

	log.Info().Str("negocio_id", actor.NegocioID.String()).Str("caja_id", caja.ID.String()).
		Str("monto_inicial", caja.MontoInicial.StringFixed(2)).Msg("caja abierta")
	return cajaToResponse(caja), nil
}

// ── Cerrar ────────────────────────────────────────────────────────────────────

func (s *cajaService) Cerrar(ctx context.Context, actor model.Actor, cajaID uuid.UUID, req dto.CerrarCajaRequest) (*dto.CajaResponse, error) {
	if req.MontoCierre != nil && req.MontoCierre.IsNegative() {
		return nil, apierror.InvalidInput("El monto de cierre no puede ser negativo.")
	}
	if err := validarCentavosOpcional("monto_cierre", req.MontoCierre); err != nil {
		return nil, err
	}

	var caja *model.Caja
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		caja, err = s.repo.FindAbiertaByIDForUpdate(ctx, tx, actor.NegocioID, cajaID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apierror.NotFound(msgCajaNoEncontrada)
			}
			return fmt.Errorf("buscar caja: %w", err)
		}

		ahora := s.reloj.now().UTC()
		totales, err := s.ventaRepo.Totales(ctx, tx, actor.NegocioID, repository.VentaRango{
			Desde: caja.FechaApertura,
			Hasta: ahora.Add(time.Nanosecond),
		})
		if err != nil {
			return fmt.Errorf("totalizar ventas de la caja: %w", err)
		}

		montoCierre := caja.MontoActual
		if req.MontoCierre != nil {
			montoCierre = *req.MontoCierre
		}
		resumen := resumenCierre(totales, caja.MontoInicial, montoCierre)
		if req.ResumenCierre != nil && strings.TrimSpace(*req.ResumenCierre) != "" {
			resumen = strings.TrimSpace(*req.ResumenCierre) + " | " + resumen
		}

		usuarioCierre := actor.UsuarioID
		caja.Abierta = false
		caja.FechaCierre = &ahora
		caja.UsuarioCierreID = &usuarioCierre
		caja.MontoCierre = &montoCierre
		caja.ResumenCierre = &resumen
		caja.MontoActual = montoCierre
		return s.repo.Cerrar(ctx, tx, caja)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("negocio_id", actor.NegocioID.String()).Str("caja_id", caja.ID.String()).
		Str("monto_cierre", caja.MontoCierre.StringFixed(2)).Msg("caja cerrada")
	return cajaToResponse(caja), nil
}

func resumenCierre(t repository.VentaTotales, inicial, cierre decimal.Decimal) string {
	return fmt.Sprintf("Ventas: %d | Total: $%s | Esperado: $%s | Real: $%s",
		t.Cantidad, t.Total.StringFixed(2), inicial.Add(t.Total).StringFixed(2), cierre.StringFixed(2))
}

// ── RegistrarMovimiento ───────────────────────────────────────────────────────
// Movements are immutable: no Update/Delete.

func (s *cajaService) RegistrarMovimiento(ctx context.Context, actor model.Actor, req dto.MovimientoCajaRequest) (*dto.MovimientoCajaResponse, error) {
	if !req.Monto.IsPositive() {
		return nil, apierror.InvalidInput("El monto debe ser mayor a 0.")
	}
	if err := validarCentavos("monto", req.Monto); err != nil {
		return nil, err
	}
	if req.Tipo != model.MovimientoEntrada && req.Tipo != model.MovimientoSalida {
		return nil, apierror.InvalidInput("El tipo debe ser 'entrada' o 'salida'.")
	}
	categoria := strings.TrimSpace(req.Categoria)
	if categoria == "" {
		return nil, apierror.InvalidInput("La categoría es requerida.")
	}
	metodo := metodoPagoPorDefecto
	if req.MetodoPago != nil && strings.TrimSpace(*req.MetodoPago) != "" {
		metodo = strings.TrimSpace(*req.MetodoPago)
	}

	var mov *model.MovimientoCaja
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		caja, err := s.repo.FindAbiertaForUpdate(ctx, tx, actor.NegocioID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apierror.InvalidState(msgSinCajaAbierta)
			}
			return fmt.Errorf("buscar caja abierta: %w", err)
		}
		if req.Tipo == model.MovimientoSalida && caja.MontoActual.Sub(req.Monto).IsNegative() {
			return apierror.InvalidState(msgSaldoInsuficiente)
		}
		mov = &model.MovimientoCaja{
			UsuarioID:   actor.UsuarioID,
			Tipo:        req.Tipo,
			Monto:       req.Monto,
			Categoria:   categoria,
			Descripcion: req.Descripcion,
			MetodoPago:  metodo,
			Referencia:  req.Referencia,
			FechaHora:   s.reloj.now().UTC(),
		}
		return aplicarMovimiento(ctx, tx, s.repo, caja, mov)
	})
	if err != nil {
		return nil, err
	}

	resp := movimientoToResponse(mov)
	resp.UsuarioNombre = actor.Nombre
	return &resp, nil
}

// aplicarMovimiento appends mov to the locked, open caja and moves its
// balance. It does not check the balance; callers decide whether an
// outflow may overdraw.
func aplicarMovimiento(ctx context.Context, tx *gorm.DB, repo repository.CajaRepository, caja *model.Caja, mov *model.MovimientoCaja) error {
	saldo := caja.MontoActual.Add(mov.Monto)
	if mov.Tipo == model.MovimientoSalida {
		saldo = caja.MontoActual.Sub(mov.Monto)
	}
	mov.CajaID = caja.ID
	mov.NegocioID = caja.NegocioID
	mov.SaldoDespues = saldo
	if err := repo.CreateMovimiento(ctx, tx, mov); err != nil {
		return fmt.Errorf("registrar movimiento de caja: %w", err)
	}
	if err := repo.UpdateSaldo(ctx, tx, caja.NegocioID, caja.ID, saldo); err != nil {
		return fmt.Errorf("actualizar saldo de caja: %w", err)
	}
	caja.MontoActual = saldo
	return nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *cajaService) Actual(ctx context.Context, actor model.Actor) (*dto.CajaResponse, error) {
	caja, err := s.repo.FindAbierta(ctx, nil, actor.NegocioID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound("No hay caja abierta.")
		}
		return nil, err
	}
	return cajaToResponse(caja), nil
}

func (s *cajaService) resolverCaja(ctx context.Context, actor model.Actor, cajaID *uuid.UUID) (*model.Caja, error) {
	var (
		caja *model.Caja
		err  error
	)
	if cajaID != nil {
		caja, err = s.repo.FindByID(ctx, actor.NegocioID, *cajaID)
	} else {
		caja, err = s.repo.FindAbierta(ctx, nil, actor.NegocioID)
	}
	if err != nil {
		if repository.IsNotFound(err) {
			if cajaID != nil {
				return nil, apierror.NotFound("Caja no encontrada.")
			}
			return nil, apierror.NotFound("No hay caja abierta.")
		}
		return nil, err
	}
	return caja, nil
}

func (s *cajaService) ListarMovimientos(ctx context.Context, actor model.Actor, filter dto.MovimientoCajaFilter) ([]dto.MovimientoCajaResponse, error) {
	var cajaID *uuid.UUID
	if filter.CajaID != "" {
		id, err := uuid.Parse(filter.CajaID)
		if err != nil {
			return nil, apierror.InvalidInput("caja_id inválido")
		}
		cajaID = &id
	}
	caja, err := s.resolverCaja(ctx, actor, cajaID)
	if err != nil {
		return nil, err
	}

	f := repository.MovimientoCajaFilter{CajaID: caja.ID, Tipo: filter.Tipo}
	if filter.Desde != "" {
		d, err := s.reloj.parseFecha("desde", filter.Desde, false)
		if err != nil {
			return nil, err
		}
		d = d.UTC()
		f.Desde = &d
	}
	if filter.Hasta != "" {
		h, err := s.reloj.parseFecha("hasta", filter.Hasta, true)
		if err != nil {
			return nil, err
		}
		h = h.UTC()
		f.Hasta = &h
	}

	movs, err := s.repo.ListMovimientos(ctx, actor.NegocioID, f)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.MovimientoCajaResponse, 0, len(movs))
	for i := range movs {
		resp = append(resp, movimientoToResponse(&movs[i]))
	}
	return resp, nil
}

func (s *cajaService) Resumen(ctx context.Context, actor model.Actor, cajaID *uuid.UUID) (*dto.ResumenCajaResponse, error) {
	caja, err := s.resolverCaja(ctx, actor, cajaID)
	if err != nil {
		return nil, err
	}
	grupos, err := s.repo.ResumenPorCategoria(ctx, actor.NegocioID, caja.ID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ResumenCajaResponse{
		CajaID:        caja.ID.String(),
		MontoInicial:  caja.MontoInicial,
		MontoActual:   caja.MontoActual,
		TotalEntradas: decimal.Zero,
		TotalSalidas:  decimal.Zero,
		PorCategoria:  make([]dto.CategoriaResumen, 0, len(grupos)),
	}
	for _, g := range grupos {
		switch g.Tipo {
		case model.MovimientoEntrada:
			resp.TotalEntradas = resp.TotalEntradas.Add(g.Total)
		case model.MovimientoSalida:
			resp.TotalSalidas = resp.TotalSalidas.Add(g.Total)
		}
		resp.PorCategoria = append(resp.PorCategoria, dto.CategoriaResumen{
			Categoria: g.Categoria,
			Tipo:      g.Tipo,
			Total:     g.Total,
			Cantidad:  g.Cantidad,
		})
	}
	resp.GananciaReal = resp.TotalEntradas.Sub(resp.TotalSalidas)
	return resp, nil
}

func (s *cajaService) Historial(ctx context.Context, actor model.Actor, page, limit int) (*dto.HistorialCajaResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = historialLimitDefault
	}
	cajas, total, err := s.repo.ListCerradas(ctx, actor.NegocioID, page, limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.CajaResponse, 0, len(cajas))
	for i := range cajas {
		data = append(data, *cajaToResponse(&cajas[i]))
	}
	return &dto.HistorialCajaResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func cajaToResponse(c *model.Caja) *dto.CajaResponse {
	resp := &dto.CajaResponse{
		ID:            c.ID.String(),
		Turno:         c.Turno,
		AbiertaPor:    c.AbiertaPor,
		FechaApertura: c.FechaApertura.UTC().Format(time.RFC3339),
		MontoInicial:  c.MontoInicial,
		MontoActual:   c.MontoActual,
		Abierta:       c.Abierta,
		MontoCierre:   c.MontoCierre,
		ResumenCierre: c.ResumenCierre,
	}
	if c.FechaCierre != nil {
		t := c.FechaCierre.UTC().Format(time.RFC3339)
		resp.FechaCierre = &t
	}
	if c.UsuarioCierreID != nil {
		id := c.UsuarioCierreID.String()
		resp.UsuarioCierreID = &id
	}
	return resp
}

func movimientoToResponse(m *model.MovimientoCaja) dto.MovimientoCajaResponse {
	resp := dto.MovimientoCajaResponse{
		ID:           m.ID.String(),
		CajaID:       m.CajaID.String(),
		Tipo:         m.Tipo,
		Monto:        m.Monto,
		Categoria:    m.Categoria,
		Descripcion:  m.Descripcion,
		MetodoPago:   m.MetodoPago,
		Referencia:   m.Referencia,
		SaldoDespues: m.SaldoDespues,
		FechaHora:    m.FechaHora.UTC().Format(time.RFC3339),
	}
	if m.Usuario != nil {
		resp.UsuarioNombre = m.Usuario.Nombre
	}
	return resp
}
