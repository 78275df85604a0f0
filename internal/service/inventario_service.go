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
	"gorm.io/gorm"
)

const (
	msgProductoNoEncontrado = "Producto no encontrado en tu negocio."
	msgVarianteNoEncontrada = "Variante no encontrada para el producto."
)

// InventarioService is the stock/shrinkage ledger. Every mutation runs in one
// transaction holding the product row lock and leaves a MermaEvento behind.
type InventarioService interface {
	Reabastecer(ctx context.Context, actor model.Actor, productoID uuid.UUID, req dto.ReabastecerRequest) (*dto.ProductoResponse, error)
	AgregarMerma(ctx context.Context, actor model.Actor, productoID uuid.UUID, req dto.MermaRequest) (*dto.ProductoResponse, error)
	ListarMermas(ctx context.Context, actor model.Actor, filter dto.MermaFilter) (*dto.MermaListResponse, error)
}

type inventarioService struct {
	repo      repository.ProductoRepository
	mermaRepo repository.MermaRepository
	cache     *PrecioCache
	reloj     reloj
}

func NewInventarioService(repo repository.ProductoRepository, mermaRepo repository.MermaRepository, cache *PrecioCache, loc *time.Location) InventarioService {
	return &inventarioService{repo: repo, mermaRepo: mermaRepo, cache: cache, reloj: nuevoReloj(loc)}
}

// ── Reabastecer ───────────────────────────────────────────────────────────────

func (s *inventarioService) Reabastecer(ctx context.Context, actor model.Actor, productoID uuid.UUID, req dto.ReabastecerRequest) (*dto.ProductoResponse, error) {
	mermaReab := 0
	if req.MermaReabastecimiento != nil {
		mermaReab = *req.MermaReabastecimiento
	}

	var p *model.Producto
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindByIDForUpdate(ctx, tx, actor.NegocioID, productoID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apierror.NotFound(msgProductoNoEncontrado)
			}
			return fmt.Errorf("buscar producto: %w", err)
		}
		if err := validarReabastecimiento(p, req, mermaReab); err != nil {
			return err
		}

		stockAntes, mermaAntes := p.StockActual, p.Merma
		neta := req.CantidadComprada - mermaReab
		if req.PrecioCompra != nil {
			p.PrecioCompra = *req.PrecioCompra
		}
		if req.PrecioVenta != nil {
			p.PrecioVenta = *req.PrecioVenta
		}
		if req.StockMinimo != nil {
			p.StockMinimo = *req.StockMinimo
		}
		p.StockActual += neta
		p.Merma += mermaReab
		p.CantidadInicial += req.CantidadComprada
		if err := s.repo.Update(ctx, tx, p); err != nil {
			return fmt.Errorf("reabastecer producto: %w", err)
		}

		motivo := fmt.Sprintf("Reabastecimiento: +%d unidades compradas", req.CantidadComprada)
		if mermaReab > 0 {
			motivo += fmt.Sprintf(", -%d merma", mermaReab)
		}
		registrarEvento(ctx, tx, s.mermaRepo, &model.MermaEvento{
			NegocioID:    actor.NegocioID,
			ProductoID:   p.ID,
			UsuarioID:    actor.UsuarioID,
			Tipo:         model.EventoReabastecimiento,
			Cantidad:     -neta,
			Motivo:       motivo,
			StockAntes:   stockAntes,
			StockDespues: p.StockActual,
			MermaAntes:   mermaAntes,
			MermaDespues: p.Merma,
			FechaUTC:     s.reloj.now().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidar(ctx, p)
	return productoToResponse(p, s.reloj.ahora()), nil
}

func validarReabastecimiento(p *model.Producto, req dto.ReabastecerRequest, mermaReab int) error {
	if req.CantidadComprada <= 0 {
		return apierror.InvalidInput("La cantidad debe ser mayor a 0.")
	}
	if req.PrecioCompra != nil && !req.PrecioCompra.IsPositive() {
		return apierror.InvalidInput("El precio de compra debe ser mayor a 0.")
	}
	if req.PrecioVenta != nil && !req.PrecioVenta.IsPositive() {
		return apierror.InvalidInput("El precio de venta debe ser mayor a 0.")
	}
	if err := validarCentavosOpcional("precio_compra", req.PrecioCompra); err != nil {
		return err
	}
	if err := validarCentavosOpcional("precio_venta", req.PrecioVenta); err != nil {
		return err
	}
	compra, venta := p.PrecioCompra, p.PrecioVenta
	if req.PrecioCompra != nil {
		compra = *req.PrecioCompra
	}
	if req.PrecioVenta != nil {
		venta = *req.PrecioVenta
	}
	if venta.LessThanOrEqual(compra) {
		return apierror.InvalidInput("El precio de venta debe ser mayor al precio de compra.")
	}
	if mermaReab < 0 || mermaReab > req.CantidadComprada {
		return apierror.InvalidInput("La merma no puede ser negativa ni mayor a la cantidad comprada.")
	}
	if req.StockMinimo != nil && *req.StockMinimo < 0 {
		return apierror.InvalidInput("El stock mínimo no puede ser negativo.")
	}
	return nil
}

// ── AgregarMerma ──────────────────────────────────────────────────────────────

func (s *inventarioService) AgregarMerma(ctx context.Context, actor model.Actor, productoID uuid.UUID, req dto.MermaRequest) (*dto.ProductoResponse, error) {
	unidades := req.Unidades()
	if unidades == nil || *unidades <= 0 {
		return nil, apierror.InvalidInput("El incremento de merma debe ser mayor a 0.")
	}
	incremento := *unidades
	motivo := "Sin motivo"
	if req.Motivo != nil && strings.TrimSpace(*req.Motivo) != "" {
		motivo = strings.TrimSpace(*req.Motivo)
	}

	var p *model.Producto
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindByIDForUpdate(ctx, tx, actor.NegocioID, productoID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apierror.NotFound(msgProductoNoEncontrado)
			}
			return fmt.Errorf("buscar producto: %w", err)
		}
		if incremento > p.StockActual {
			return apierror.InvalidState("La merma no puede exceder el stock actual.")
		}
		if p.Merma+incremento > p.CantidadInicial {
			return apierror.InvalidState("La merma acumulada no puede exceder la cantidad inicial.")
		}

		stockAntes, mermaAntes := p.StockActual, p.Merma
		p.Merma += incremento
		p.StockActual -= incremento
		if err := s.repo.Update(ctx, tx, p); err != nil {
			return fmt.Errorf("registrar merma: %w", err)
		}
		registrarEvento(ctx, tx, s.mermaRepo, &model.MermaEvento{
			NegocioID:    actor.NegocioID,
			ProductoID:   p.ID,
			UsuarioID:    actor.UsuarioID,
			Tipo:         model.EventoMerma,
			Cantidad:     incremento,
			Motivo:       motivo,
			StockAntes:   stockAntes,
			StockDespues: p.StockActual,
			MermaAntes:   mermaAntes,
			MermaDespues: p.Merma,
			FechaUTC:     s.reloj.now().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidar(ctx, p)
	return productoToResponse(p, s.reloj.ahora()), nil
}

// registrarEvento writes the audit row under a savepoint. A failed insert is
// rolled back to the savepoint and logged; the stock mutation stands.
func registrarEvento(ctx context.Context, tx *gorm.DB, repo repository.MermaRepository, e *model.MermaEvento) {
	const sp = "merma_evento"
	if tx != nil {
		if err := tx.SavePoint(sp).Error; err != nil {
			log.Warn().Err(err).Msg("no se pudo crear savepoint para evento de merma")
			return
		}
	}
	if err := repo.Create(ctx, tx, e); err != nil {
		if tx != nil {
			tx.RollbackTo(sp)
		}
		log.Warn().Err(err).
			Str("negocio_id", e.NegocioID.String()).
			Str("producto_id", e.ProductoID.String()).
			Str("tipo", e.Tipo).
			Msg("evento de merma no registrado")
	}
}

// ── ListarMermas ──────────────────────────────────────────────────────────────

func (s *inventarioService) ListarMermas(ctx context.Context, actor model.Actor, filter dto.MermaFilter) (*dto.MermaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	eventos, total, err := s.mermaRepo.List(ctx, actor.NegocioID, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.MermaEventoResponse, 0, len(eventos))
	for _, e := range eventos {
		nombre := ""
		if e.Producto != nil {
			nombre = e.Producto.Nombre
		}
		data = append(data, dto.MermaEventoResponse{
			ID:             e.ID.String(),
			ProductoID:     e.ProductoID.String(),
			ProductoNombre: nombre,
			UsuarioID:      e.UsuarioID.String(),
			Tipo:           e.Tipo,
			Cantidad:       e.Cantidad,
			Motivo:         e.Motivo,
			StockAntes:     e.StockAntes,
			StockDespues:   e.StockDespues,
			MermaAntes:     e.MermaAntes,
			MermaDespues:   e.MermaDespues,
			FechaUTC:       e.FechaUTC.UTC().Format(time.RFC3339),
		})
	}
	return &dto.MermaListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
