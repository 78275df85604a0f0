package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ventify/internal/apierror"
	"ventify/internal/dto"
	"ventify/internal/infra"
	"ventify/internal/model"
	"ventify/internal/repository"
	"ventify/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	categoriaVenta        = "Venta"
	categoriaCancelacion  = "Cancelación de Venta"
	msgVentaNoEncontrada  = "Venta no encontrada"
	msgMontoRecibidoMenor = "El monto recibido es menor al total de la venta."
)

type VentaService interface {
	RegistrarVenta(ctx context.Context, actor model.Actor, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	// EliminarVenta reverses the stock and cash effects of a sale and deletes it.
	EliminarVenta(ctx context.Context, actor model.Actor, ventaID uuid.UUID) error
	ObtenerVenta(ctx context.Context, actor model.Actor, ventaID uuid.UUID) (*dto.VentaResponse, error)
	ListarVentas(ctx context.Context, actor model.Actor, filter dto.VentaRangoFilter) (*dto.VentaListResponse, error)
	MisVentas(ctx context.Context, actor model.Actor) (*dto.VentaListResponse, error)
	ObtenerTicket(ctx context.Context, actor model.Actor, ventaID uuid.UUID) (string, error)
}

type ventaService struct {
	repo         repository.VentaRepository
	cajaRepo     repository.CajaRepository
	productoRepo repository.ProductoRepository
	ticket       TicketRenderer
	dispatcher   *worker.Dispatcher
	cache        *PrecioCache
	reloj        reloj
}

func NewVentaService(
	repo repository.VentaRepository,
	cajaRepo repository.CajaRepository,
	productoRepo repository.ProductoRepository,
	ticket TicketRenderer,
	dispatcher *worker.Dispatcher,
	cache *PrecioCache,
	loc *time.Location,
) VentaService {
	return &ventaService{
		repo:         repo,
		cajaRepo:     cajaRepo,
		productoRepo: productoRepo,
		ticket:       ticket,
		dispatcher:   dispatcher,
		cache:        cache,
		reloj:        nuevoReloj(loc),
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func esEfectivo(formaPago string) bool {
	return strings.EqualFold(formaPago, metodoPagoPorDefecto)
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
// One transaction, validate-all-then-commit-all:
//   1. Lock the open caja
//   2. Lock every product (ordered by id), check active + stock, price lines
//   3. Check cash tendered against the total
//   4. Insert venta, entrada movement, decrement stock, insert detalles
//   5. COMMIT
//   6. (best effort) store ticket text, enqueue ticket PDF, drop cached prices

type lineaVenta struct {
	producto    *model.Producto
	varianteID  *uuid.UUID
	cantidad    int
	precioLista decimal.Decimal
	precio      decimal.Decimal
	subtotal    decimal.Decimal
}

func (s *ventaService) RegistrarVenta(ctx context.Context, actor model.Actor, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	if len(req.Items) == 0 {
		return nil, apierror.InvalidInput("La venta debe tener al menos un producto.")
	}
	formaPago := strings.TrimSpace(req.FormaPago)
	if formaPago == "" {
		formaPago = metodoPagoPorDefecto
	}
	efectivo := esEfectivo(formaPago)
	if efectivo && (req.MontoRecibido == nil || !req.MontoRecibido.IsPositive()) {
		return nil, apierror.InvalidInput("El monto recibido es requerido para pagos en efectivo.")
	}
	if err := validarCentavosOpcional("monto_recibido", req.MontoRecibido); err != nil {
		return nil, err
	}

	type itemParsed struct {
		productoID uuid.UUID
		varianteID *uuid.UUID
		cantidad   int
	}
	items := make([]itemParsed, 0, len(req.Items))
	pedidos := map[uuid.UUID]int{}
	for _, it := range req.Items {
		pid, err := uuid.Parse(it.ProductoID)
		if err != nil {
			return nil, apierror.InvalidInput("producto_id inválido")
		}
		if it.Cantidad <= 0 {
			return nil, apierror.InvalidInput("La cantidad debe ser mayor a cero.")
		}
		var vid *uuid.UUID
		if it.VarianteProductoID != nil && *it.VarianteProductoID != "" {
			parsed, err := uuid.Parse(*it.VarianteProductoID)
			if err != nil {
				return nil, apierror.InvalidInput("variante_producto_id inválido")
			}
			vid = &parsed
		}
		items = append(items, itemParsed{productoID: pid, varianteID: vid, cantidad: it.Cantidad})
		pedidos[pid] += it.Cantidad
	}

	// Row locks are taken in id order so concurrent sales cannot deadlock.
	ids := make([]uuid.UUID, 0, len(pedidos))
	for id := range pedidos {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	ahora := s.reloj.ahora()
	var (
		venta  *model.Venta
		lineas []lineaVenta
	)
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		caja, err := s.cajaRepo.FindAbiertaForUpdate(ctx, tx, actor.NegocioID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apierror.InvalidState(msgSinCajaAbierta)
			}
			return fmt.Errorf("buscar caja abierta: %w", err)
		}

		productos := make(map[uuid.UUID]*model.Producto, len(ids))
		for _, id := range ids {
			p, err := s.productoRepo.FindByIDForUpdate(ctx, tx, actor.NegocioID, id)
			if err != nil {
				if repository.IsNotFound(err) {
					return apierror.NotFound(msgProductoNoEncontrado)
				}
				return fmt.Errorf("buscar producto: %w", err)
			}
			if !p.Activo {
				return apierror.InvalidStatef("El producto %s está inactivo y no puede venderse.", p.Nombre)
			}
			if pedidos[id] > p.StockActual {
				return apierror.InvalidStatef("Stock insuficiente para producto %s. Disponible: %d", p.Nombre, p.StockActual)
			}
			productos[id] = p
		}

		total := decimal.Zero
		lineas = make([]lineaVenta, 0, len(items))
		for _, it := range items {
			p := productos[it.productoID]
			lista := p.PrecioVenta
			if it.varianteID != nil {
				v, err := s.productoRepo.FindVariante(ctx, tx, actor.NegocioID, p.ID, *it.varianteID)
				if err != nil {
					if repository.IsNotFound(err) {
						return apierror.NotFound(msgVarianteNoEncontrada)
					}
					return fmt.Errorf("buscar variante: %w", err)
				}
				if v.Precio != nil {
					lista = *v.Precio
				}
			}
			precio := PrecioEfectivo(p, lista, ahora)
			subtotal := precio.Mul(decimal.NewFromInt(int64(it.cantidad))).Round(2)
			total = total.Add(subtotal)
			lineas = append(lineas, lineaVenta{
				producto:    p,
				varianteID:  it.varianteID,
				cantidad:    it.cantidad,
				precioLista: lista,
				precio:      precio,
				subtotal:    subtotal,
			})
		}

		venta = &model.Venta{
			NegocioID:   actor.NegocioID,
			UsuarioID:   actor.UsuarioID,
			TotalPagado: total,
			FormaPago:   formaPago,
			FechaHora:   ahora.UTC(),
		}
		if efectivo {
			if req.MontoRecibido.LessThan(total) {
				return apierror.InvalidInput(msgMontoRecibidoMenor)
			}
			recibido := *req.MontoRecibido
			cambio := recibido.Sub(total)
			venta.MontoRecibido = &recibido
			venta.Cambio = &cambio
		}
		if err := s.repo.Create(ctx, tx, venta); err != nil {
			return fmt.Errorf("registrar venta: %w", err)
		}

		descripcion := "Venta #" + infra.TicketCorto(venta.ID)
		referencia := "VENTA-" + venta.ID.String()
		mov := &model.MovimientoCaja{
			UsuarioID:   actor.UsuarioID,
			Tipo:        model.MovimientoEntrada,
			Monto:       total,
			Categoria:   categoriaVenta,
			Descripcion: &descripcion,
			MetodoPago:  formaPago,
			Referencia:  &referencia,
			FechaHora:   venta.FechaHora,
		}
		if err := aplicarMovimiento(ctx, tx, s.cajaRepo, caja, mov); err != nil {
			return err
		}

		for _, l := range lineas {
			if err := s.productoRepo.DescontarStock(ctx, tx, actor.NegocioID, l.producto.ID, l.cantidad); err != nil {
				if errors.Is(err, repository.ErrStockInsuficiente) {
					return apierror.InvalidStatef("Stock insuficiente para producto %s. Disponible: %d", l.producto.Nombre, l.producto.StockActual)
				}
				return fmt.Errorf("descontar stock de %s: %w", l.producto.Nombre, err)
			}
			detalle := &model.DetalleVenta{
				VentaID:            venta.ID,
				ProductoID:         l.producto.ID,
				VarianteProductoID: l.varianteID,
				Cantidad:           l.cantidad,
				PrecioUnitario:     l.precio,
				PrecioLista:        l.precioLista,
				Subtotal:           l.subtotal,
			}
			if err := s.repo.CreateDetalle(ctx, tx, detalle); err != nil {
				return fmt.Errorf("registrar detalle de venta: %w", err)
			}
			venta.Detalles = append(venta.Detalles, *detalle)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("negocio_id", actor.NegocioID.String()).Str("venta_id", venta.ID.String()).
		Str("total", venta.TotalPagado.StringFixed(2)).Str("forma_pago", formaPago).Msg("venta registrada")

	s.postVenta(ctx, actor, venta, lineas, req.ClienteEmail)

	resp := ventaToResponse(venta)
	resp.Cajero = actor.Nombre
	for i, l := range lineas {
		resp.Items[i].Producto = l.producto.Nombre
	}
	return resp, nil
}

// postVenta runs the side effects that must not undo a committed sale.
func (s *ventaService) postVenta(ctx context.Context, actor model.Actor, venta *model.Venta, lineas []lineaVenta, clienteEmail *string) {
	if s.ticket != nil {
		texto, err := s.ticket.RenderTicketText(ctx, venta.ID, actor.NegocioID)
		if err == nil {
			err = s.repo.SetTicket(ctx, actor.NegocioID, venta.ID, texto)
		}
		if err != nil {
			log.Warn().Err(err).Str("venta_id", venta.ID.String()).Msg("no se pudo generar el ticket")
		} else {
			venta.Ticket = &texto
		}
	}

	if s.dispatcher != nil {
		payload := worker.TicketPDFPayload{
			VentaID:   venta.ID.String(),
			NegocioID: actor.NegocioID.String(),
		}
		if clienteEmail != nil && *clienteEmail != "" {
			payload.ClienteEmail = clienteEmail
		}
		if err := s.dispatcher.EnqueueTicketPDF(ctx, payload); err != nil {
			log.Warn().Err(err).Str("venta_id", venta.ID.String()).Msg("no se pudo encolar el ticket PDF")
		}
	}

	for _, l := range lineas {
		s.cache.Invalidar(ctx, l.producto)
	}
}

// ── EliminarVenta ─────────────────────────────────────────────────────────────

func (s *ventaService) EliminarVenta(ctx context.Context, actor model.Actor, ventaID uuid.UUID) error {
	var productos []*model.Producto
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		venta, err := s.repo.FindByIDForUpdate(ctx, tx, actor.NegocioID, ventaID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apierror.NotFound(msgVentaNoEncontrada)
			}
			return fmt.Errorf("buscar venta: %w", err)
		}

		caja, err := s.cajaRepo.FindAbiertaForUpdate(ctx, tx, actor.NegocioID)
		if err != nil && !repository.IsNotFound(err) {
			return fmt.Errorf("buscar caja abierta: %w", err)
		}
		if err != nil {
			caja = nil
		}

		detalles, err := s.repo.ListDetalles(ctx, tx, venta.ID)
		if err != nil {
			return fmt.Errorf("listar detalles: %w", err)
		}
		for _, d := range detalles {
			if err := s.productoRepo.AjustarStock(ctx, tx, actor.NegocioID, d.ProductoID, d.Cantidad); err != nil {
				return fmt.Errorf("restaurar stock: %w", err)
			}
			if p, err := s.productoRepo.FindByIDForUpdate(ctx, tx, actor.NegocioID, d.ProductoID); err == nil {
				productos = append(productos, p)
			}
		}

		// A sale cancelled after its caja closed only restores stock.
		if caja != nil {
			descripcion := "Cancelación venta #" + infra.TicketCorto(venta.ID)
			referencia := "CANCEL-VENTA-" + venta.ID.String()
			mov := &model.MovimientoCaja{
				UsuarioID:   actor.UsuarioID,
				Tipo:        model.MovimientoSalida,
				Monto:       venta.TotalPagado,
				Categoria:   categoriaCancelacion,
				Descripcion: &descripcion,
				MetodoPago:  venta.FormaPago,
				Referencia:  &referencia,
				FechaHora:   s.reloj.now().UTC(),
			}
			if err := aplicarMovimiento(ctx, tx, s.cajaRepo, caja, mov); err != nil {
				return err
			}
		}

		return s.repo.Delete(ctx, tx, actor.NegocioID, venta.ID)
	})
	if err != nil {
		return err
	}

	for _, p := range productos {
		s.cache.Invalidar(ctx, p)
	}
	log.Info().Str("negocio_id", actor.NegocioID.String()).Str("venta_id", ventaID.String()).Msg("venta eliminada")
	return nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *ventaService) ObtenerVenta(ctx context.Context, actor model.Actor, ventaID uuid.UUID) (*dto.VentaResponse, error) {
	v, err := s.repo.FindByID(ctx, actor.NegocioID, ventaID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound(msgVentaNoEncontrada)
		}
		return nil, err
	}
	return ventaToResponse(v), nil
}

func (s *ventaService) ListarVentas(ctx context.Context, actor model.Actor, filter dto.VentaRangoFilter) (*dto.VentaListResponse, error) {
	hoy := s.reloj.inicioDelDia(s.reloj.ahora())
	rango := repository.VentaRango{Desde: hoy, Hasta: hoy.AddDate(0, 0, 1)}
	if filter.Desde != "" {
		d, err := s.reloj.parseFecha("desde", filter.Desde, false)
		if err != nil {
			return nil, err
		}
		rango.Desde = d
	}
	if filter.Hasta != "" {
		h, err := s.reloj.parseFecha("hasta", filter.Hasta, true)
		if err != nil {
			return nil, err
		}
		rango.Hasta = h
	}
	if !rango.Hasta.After(rango.Desde) {
		return nil, apierror.InvalidInput("La fecha inicial debe ser anterior a la final.")
	}
	return s.listar(ctx, actor, rango)
}

// MisVentas lists the acting user's sales of the current business day.
func (s *ventaService) MisVentas(ctx context.Context, actor model.Actor) (*dto.VentaListResponse, error) {
	hoy := s.reloj.inicioDelDia(s.reloj.ahora())
	usuarioID := actor.UsuarioID
	return s.listar(ctx, actor, repository.VentaRango{
		Desde:     hoy,
		Hasta:     hoy.AddDate(0, 0, 1),
		UsuarioID: &usuarioID,
	})
}

func (s *ventaService) listar(ctx context.Context, actor model.Actor, rango repository.VentaRango) (*dto.VentaListResponse, error) {
	rango.Desde = rango.Desde.UTC()
	rango.Hasta = rango.Hasta.UTC()
	ventas, err := s.repo.List(ctx, actor.NegocioID, rango)
	if err != nil {
		return nil, err
	}
	resp := &dto.VentaListResponse{
		Data:       make([]dto.VentaResponse, 0, len(ventas)),
		TotalMonto: decimal.Zero,
	}
	for i := range ventas {
		resp.Data = append(resp.Data, *ventaToResponse(&ventas[i]))
		resp.TotalMonto = resp.TotalMonto.Add(ventas[i].TotalPagado)
	}
	resp.TotalVentas = int64(len(ventas))
	return resp, nil
}

// ObtenerTicket returns the stored ticket text, rendering it when the sale
// has none yet.
func (s *ventaService) ObtenerTicket(ctx context.Context, actor model.Actor, ventaID uuid.UUID) (string, error) {
	v, err := s.repo.FindByID(ctx, actor.NegocioID, ventaID)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", apierror.NotFound(msgVentaNoEncontrada)
		}
		return "", err
	}
	if v.Ticket != nil && *v.Ticket != "" {
		return *v.Ticket, nil
	}
	if s.ticket == nil {
		return "", apierror.NotFound("La venta no tiene ticket.")
	}
	texto, err := s.ticket.RenderTicketText(ctx, v.ID, actor.NegocioID)
	if err != nil {
		return "", err
	}
	if err := s.repo.SetTicket(ctx, actor.NegocioID, v.ID, texto); err != nil {
		log.Warn().Err(err).Str("venta_id", v.ID.String()).Msg("no se pudo guardar el ticket")
	}
	return texto, nil
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	items := make([]dto.ItemVentaResponse, 0, len(v.Detalles))
	for _, d := range v.Detalles {
		item := dto.ItemVentaResponse{
			ProductoID:     d.ProductoID.String(),
			Cantidad:       d.Cantidad,
			PrecioLista:    d.PrecioLista,
			PrecioUnitario: d.PrecioUnitario,
			Subtotal:       d.Subtotal,
		}
		if d.Producto != nil {
			item.Producto = d.Producto.Nombre
		}
		if d.VarianteProductoID != nil {
			vid := d.VarianteProductoID.String()
			item.VarianteProductoID = &vid
		}
		items = append(items, item)
	}
	cajero := ""
	if v.Usuario != nil {
		cajero = v.Usuario.Nombre
	}
	return &dto.VentaResponse{
		ID:            v.ID.String(),
		UsuarioID:     v.UsuarioID.String(),
		Cajero:        cajero,
		TotalPagado:   v.TotalPagado,
		FormaPago:     v.FormaPago,
		MontoRecibido: v.MontoRecibido,
		Cambio:        v.Cambio,
		FechaHora:     v.FechaHora.UTC().Format(time.RFC3339),
		Ticket:        v.Ticket,
		Items:         items,
	}
}
