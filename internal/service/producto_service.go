package service

import (
	"context"
	"fmt"
	"math"
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

// ProductoService defines the business logic contract for products.
type ProductoService interface {
	Crear(ctx context.Context, actor model.Actor, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	Obtener(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, actor model.Actor, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	StockBajo(ctx context.Context, actor model.Actor) ([]dto.ProductoResponse, error)
	// Actualizar applies a partial update. When merma grows and stock_actual
	// is omitted or unchanged, the merma delta is taken out of stock; an
	// explicit different stock_actual is used as-is.
	Actualizar(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Desactivar(ctx context.Context, actor model.Actor, id uuid.UUID) error
	SetActivo(ctx context.Context, actor model.Actor, id uuid.UUID, activo bool) (*dto.ProductoResponse, error)
	SetDescuento(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.DescuentoRequest) (*dto.ProductoResponse, error)
	CrearVariante(ctx context.Context, actor model.Actor, productoID uuid.UUID, req dto.CrearVarianteRequest) (*dto.VarianteResponse, error)
	ListarVariantes(ctx context.Context, actor model.Actor, productoID uuid.UUID) ([]dto.VarianteResponse, error)
	ActualizarVariante(ctx context.Context, actor model.Actor, productoID, varianteID uuid.UUID, req dto.ActualizarVarianteRequest) (*dto.VarianteResponse, error)
	// EliminarVariante refuses variants already referenced by a sale.
	EliminarVariante(ctx context.Context, actor model.Actor, productoID, varianteID uuid.UUID) error
	ConsultarPrecio(ctx context.Context, actor model.Actor, barcode string) (*dto.ConsultaPreciosResponse, error)
}

type productoService struct {
	repo      repository.ProductoRepository
	mermaRepo repository.MermaRepository
	cache     *PrecioCache
	reloj     reloj
}

func NewProductoService(repo repository.ProductoRepository, mermaRepo repository.MermaRepository, cache *PrecioCache, loc *time.Location) ProductoService {
	return &productoService{repo: repo, mermaRepo: mermaRepo, cache: cache, reloj: nuevoReloj(loc)}
}

// ── Crear ─────────────────────────────────────────────────────────────────────

func (s *productoService) Crear(ctx context.Context, actor model.Actor, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	if strings.TrimSpace(req.Nombre) == "" {
		return nil, apierror.InvalidInput("El nombre del producto es obligatorio.")
	}
	if err := validarPrecios(req.PrecioCompra, req.PrecioVenta); err != nil {
		return nil, err
	}
	if req.CantidadInicial < 0 {
		return nil, apierror.InvalidInput("La cantidad inicial no puede ser negativa.")
	}
	if err := validarMerma(req.Merma, req.CantidadInicial); err != nil {
		return nil, err
	}
	if req.StockMinimo < 0 {
		return nil, apierror.InvalidInput("El stock mínimo no puede ser negativo.")
	}

	unidad := strings.TrimSpace(req.UnidadMedida)
	if unidad == "" {
		unidad = "unidad"
	}
	p := &model.Producto{
		NegocioID:       actor.NegocioID,
		Nombre:          strings.TrimSpace(req.Nombre),
		Descripcion:     req.Descripcion,
		CodigoBarras:    normalizarBarcode(req.CodigoBarras),
		Categoria:       strings.TrimSpace(req.Categoria),
		UnidadMedida:    unidad,
		PrecioCompra:    req.PrecioCompra,
		PrecioVenta:     req.PrecioVenta,
		CantidadInicial: req.CantidadInicial,
		Merma:           req.Merma,
		StockActual:     req.CantidadInicial - req.Merma,
		StockMinimo:     req.StockMinimo,
		Activo:          true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apierror.InvalidState("Ya existe un producto con ese código de barras.")
		}
		return nil, fmt.Errorf("crear producto: %w", err)
	}
	return productoToResponse(p, s.reloj.ahora()), nil
}

func validarPrecios(compra, venta decimal.Decimal) error {
	if !venta.IsPositive() {
		return apierror.InvalidInput("El precio de venta debe ser mayor a 0.")
	}
	if compra.IsNegative() {
		return apierror.InvalidInput("El precio de compra no puede ser negativo.")
	}
	if err := validarCentavos("precio_venta", venta); err != nil {
		return err
	}
	if err := validarCentavos("precio_compra", compra); err != nil {
		return err
	}
	if compra.IsPositive() && venta.LessThanOrEqual(compra) {
		return apierror.InvalidInput("El precio de venta debe ser mayor al precio de compra para tener ganancia.")
	}
	return nil
}

func validarMerma(merma, cantidadInicial int) error {
	if merma < 0 {
		return apierror.InvalidInput("La merma no puede ser negativa.")
	}
	if merma > cantidadInicial {
		return apierror.InvalidInputf("La merma (%d) no puede ser mayor a la cantidad inicial (%d).", merma, cantidadInicial)
	}
	return nil
}

func normalizarBarcode(b *string) *string {
	if b == nil {
		return nil
	}
	v := strings.TrimSpace(*b)
	if v == "" {
		return nil
	}
	return &v
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *productoService) Obtener(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, actor.NegocioID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound(msgProductoNoEncontrado)
		}
		return nil, err
	}
	return productoToResponse(p, s.reloj.ahora()), nil
}

func (s *productoService) Listar(ctx context.Context, actor model.Actor, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	productos, total, err := s.repo.List(ctx, actor.NegocioID, filter)
	if err != nil {
		return nil, err
	}
	ahora := s.reloj.ahora()
	data := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		data = append(data, *productoToResponse(&productos[i], ahora))
	}
	return &dto.ProductoListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *productoService) StockBajo(ctx context.Context, actor model.Actor) ([]dto.ProductoResponse, error) {
	productos, err := s.repo.ListStockBajo(ctx, actor.NegocioID)
	if err != nil {
		return nil, err
	}
	ahora := s.reloj.ahora()
	data := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		data = append(data, *productoToResponse(&productos[i], ahora))
	}
	return data, nil
}

// ── Actualizar ────────────────────────────────────────────────────────────────

func (s *productoService) Actualizar(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	var (
		p            *model.Producto
		barcodeViejo *string
		stockAntes   int
		mermaAntes   int
	)
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindByIDForUpdate(ctx, tx, actor.NegocioID, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return apierror.NotFound(msgProductoNoEncontrado)
			}
			return fmt.Errorf("buscar producto: %w", err)
		}
		barcodeViejo = p.CodigoBarras
		stockAntes, mermaAntes = p.StockActual, p.Merma

		if req.Nombre != nil {
			if strings.TrimSpace(*req.Nombre) == "" {
				return apierror.InvalidInput("El nombre del producto es obligatorio.")
			}
			p.Nombre = strings.TrimSpace(*req.Nombre)
		}
		if req.Descripcion != nil {
			p.Descripcion = req.Descripcion
		}
		if req.CodigoBarras != nil {
			p.CodigoBarras = normalizarBarcode(req.CodigoBarras)
		}
		if req.Categoria != nil {
			p.Categoria = strings.TrimSpace(*req.Categoria)
		}
		if req.UnidadMedida != nil && strings.TrimSpace(*req.UnidadMedida) != "" {
			p.UnidadMedida = strings.TrimSpace(*req.UnidadMedida)
		}
		if req.PrecioCompra != nil {
			p.PrecioCompra = *req.PrecioCompra
		}
		if req.PrecioVenta != nil {
			p.PrecioVenta = *req.PrecioVenta
		}
		if err := validarPrecios(p.PrecioCompra, p.PrecioVenta); err != nil {
			return err
		}
		if req.StockMinimo != nil {
			if *req.StockMinimo < 0 {
				return apierror.InvalidInput("El stock mínimo no puede ser negativo.")
			}
			p.StockMinimo = *req.StockMinimo
		}
		if req.CantidadInicial != nil {
			if *req.CantidadInicial < 0 {
				return apierror.InvalidInput("La cantidad inicial no puede ser negativa.")
			}
			p.CantidadInicial = *req.CantidadInicial
		}
		if err := reconciliarStock(p, req.Merma, req.StockActual); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, tx, p); err != nil {
			if repository.IsUniqueViolation(err) {
				return apierror.InvalidState("Ya existe un producto con ese código de barras.")
			}
			return fmt.Errorf("actualizar producto: %w", err)
		}

		if p.StockActual != stockAntes || p.Merma != mermaAntes {
			registrarEvento(ctx, tx, s.mermaRepo, &model.MermaEvento{
				NegocioID:    actor.NegocioID,
				ProductoID:   p.ID,
				UsuarioID:    actor.UsuarioID,
				Tipo:         model.EventoAjuste,
				Cantidad:     stockAntes - p.StockActual,
				Motivo:       "Ajuste manual de producto",
				StockAntes:   stockAntes,
				StockDespues: p.StockActual,
				MermaAntes:   mermaAntes,
				MermaDespues: p.Merma,
				FechaUTC:     s.reloj.now().UTC(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if barcodeViejo != nil && (p.CodigoBarras == nil || *p.CodigoBarras != *barcodeViejo) {
		s.cache.InvalidarBarcode(ctx, actor.NegocioID, *barcodeViejo)
	}
	s.cache.Invalidar(ctx, p)
	return productoToResponse(p, s.reloj.ahora()), nil
}

// reconciliarStock applies the merma/stock pair of an update to p.
func reconciliarStock(p *model.Producto, merma, stock *int) error {
	nuevaMerma := p.Merma
	if merma != nil {
		nuevaMerma = *merma
	}
	if err := validarMerma(nuevaMerma, p.CantidadInicial); err != nil {
		return err
	}

	stockExplicito := stock != nil && *stock != p.StockActual
	switch {
	case stockExplicito:
		if *stock < 0 {
			return apierror.InvalidInput("El stock actual no puede ser negativo.")
		}
		p.StockActual = *stock
	case nuevaMerma > p.Merma:
		delta := nuevaMerma - p.Merma
		if delta > p.StockActual {
			return apierror.InvalidState("El incremento de merma excede el stock actual.")
		}
		p.StockActual -= delta
	}
	p.Merma = nuevaMerma
	return nil
}

// ── Activo ────────────────────────────────────────────────────────────────────

func (s *productoService) Desactivar(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, actor.NegocioID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return apierror.NotFound(msgProductoNoEncontrado)
		}
		return err
	}
	if !p.Activo {
		return apierror.InvalidState("Producto ya inactivo.")
	}
	if err := s.repo.SetActivo(ctx, actor.NegocioID, id, false); err != nil {
		return fmt.Errorf("desactivar producto: %w", err)
	}
	s.cache.Invalidar(ctx, p)
	return nil
}

func (s *productoService) SetActivo(ctx context.Context, actor model.Actor, id uuid.UUID, activo bool) (*dto.ProductoResponse, error) {
	if err := s.repo.SetActivo(ctx, actor.NegocioID, id, activo); err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound(msgProductoNoEncontrado)
		}
		return nil, fmt.Errorf("cambiar estado de producto: %w", err)
	}
	p, err := s.repo.FindByID(ctx, actor.NegocioID, id)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidar(ctx, p)
	return productoToResponse(p, s.reloj.ahora()), nil
}

// ── Descuento ─────────────────────────────────────────────────────────────────

func (s *productoService) SetDescuento(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.DescuentoRequest) (*dto.ProductoResponse, error) {
	var inicio, fin *model.HoraDelDia
	if req.Porcentaje != nil {
		if req.Porcentaje.IsNegative() || req.Porcentaje.GreaterThan(cien) {
			return nil, apierror.InvalidInput("El porcentaje de descuento debe estar entre 0 y 100.")
		}
		if err := validarCentavos("porcentaje", *req.Porcentaje); err != nil {
			return nil, err
		}
		if req.FechaInicio != nil && req.FechaFin != nil && req.FechaInicio.After(*req.FechaFin) {
			return nil, apierror.InvalidInput("La fecha de inicio no puede ser posterior a la fecha de fin.")
		}
		var err error
		if inicio, err = parseHoraOpcional(req.HoraInicio); err != nil {
			return nil, err
		}
		if fin, err = parseHoraOpcional(req.HoraFin); err != nil {
			return nil, err
		}
	}

	p := &model.Producto{ID: id, NegocioID: actor.NegocioID}
	if req.Porcentaje != nil {
		pct := *req.Porcentaje
		p.DescuentoPorcentaje = &pct
		p.DescuentoFechaInicio = utcOpcional(req.FechaInicio)
		p.DescuentoFechaFin = utcOpcional(req.FechaFin)
		p.DescuentoHoraInicio = inicio
		p.DescuentoHoraFin = fin
	}
	// Only the descriptor columns are written so concurrent stock changes survive.
	if err := s.repo.UpdateDescuento(ctx, nil, p); err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound(msgProductoNoEncontrado)
		}
		return nil, fmt.Errorf("guardar descuento: %w", err)
	}
	p, err := s.repo.FindByID(ctx, actor.NegocioID, id)
	if err != nil {
		return nil, err
	}

	log.Info().Str("negocio_id", actor.NegocioID.String()).Str("producto_id", p.ID.String()).
		Bool("removido", req.Porcentaje == nil).Msg("descuento actualizado")
	s.cache.Invalidar(ctx, p)
	return productoToResponse(p, s.reloj.ahora()), nil
}

func parseHoraOpcional(s *string) (*model.HoraDelDia, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	h, err := model.ParseHoraDelDia(strings.TrimSpace(*s))
	if err != nil {
		return nil, apierror.InvalidInput(err.Error())
	}
	return &h, nil
}

func utcOpcional(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// ── Variantes ─────────────────────────────────────────────────────────────────

func (s *productoService) CrearVariante(ctx context.Context, actor model.Actor, productoID uuid.UUID, req dto.CrearVarianteRequest) (*dto.VarianteResponse, error) {
	if strings.TrimSpace(req.Nombre) == "" {
		return nil, apierror.InvalidInput("El nombre de la variante es obligatorio.")
	}
	if req.Precio != nil && !req.Precio.IsPositive() {
		return nil, apierror.InvalidInput("El precio de la variante debe ser mayor a 0.")
	}
	if err := validarCentavosOpcional("precio", req.Precio); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, actor.NegocioID, productoID); err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound(msgProductoNoEncontrado)
		}
		return nil, err
	}
	v := &model.VarianteProducto{
		ProductoID: productoID,
		NegocioID:  actor.NegocioID,
		Nombre:     strings.TrimSpace(req.Nombre),
		Precio:     req.Precio,
		Codigo:     req.Codigo,
	}
	if err := s.repo.CreateVariante(ctx, v); err != nil {
		return nil, fmt.Errorf("crear variante: %w", err)
	}
	resp := varianteToResponse(v)
	return &resp, nil
}

func (s *productoService) ListarVariantes(ctx context.Context, actor model.Actor, productoID uuid.UUID) ([]dto.VarianteResponse, error) {
	if _, err := s.repo.FindByID(ctx, actor.NegocioID, productoID); err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound(msgProductoNoEncontrado)
		}
		return nil, err
	}
	vs, err := s.repo.ListVariantes(ctx, actor.NegocioID, productoID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.VarianteResponse, 0, len(vs))
	for i := range vs {
		out = append(out, varianteToResponse(&vs[i]))
	}
	return out, nil
}

func (s *productoService) ActualizarVariante(ctx context.Context, actor model.Actor, productoID, varianteID uuid.UUID, req dto.ActualizarVarianteRequest) (*dto.VarianteResponse, error) {
	v, err := s.repo.FindVariante(ctx, nil, actor.NegocioID, productoID, varianteID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound(msgVarianteNoEncontrada)
		}
		return nil, err
	}
	if req.Nombre != nil {
		nombre := strings.TrimSpace(*req.Nombre)
		if nombre == "" {
			return nil, apierror.InvalidInput("El nombre de la variante es obligatorio.")
		}
		v.Nombre = nombre
	}
	switch {
	case req.SinPrecio:
		v.Precio = nil
	case req.Precio != nil:
		if !req.Precio.IsPositive() {
			return nil, apierror.InvalidInput("El precio de la variante debe ser mayor a 0.")
		}
		if err := validarCentavos("precio", *req.Precio); err != nil {
			return nil, err
		}
		v.Precio = req.Precio
	}
	if req.Codigo != nil {
		v.Codigo = textoOpcional(req.Codigo)
	}

	if err := s.repo.UpdateVariante(ctx, v); err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound(msgVarianteNoEncontrada)
		}
		return nil, fmt.Errorf("actualizar variante: %w", err)
	}
	resp := varianteToResponse(v)
	return &resp, nil
}

func (s *productoService) EliminarVariante(ctx context.Context, actor model.Actor, productoID, varianteID uuid.UUID) error {
	if _, err := s.repo.FindVariante(ctx, nil, actor.NegocioID, productoID, varianteID); err != nil {
		if repository.IsNotFound(err) {
			return apierror.NotFound(msgVarianteNoEncontrada)
		}
		return err
	}
	vendida, err := s.repo.VarianteVendida(ctx, varianteID)
	if err != nil {
		return err
	}
	if vendida {
		return apierror.InvalidState("La variante tiene ventas registradas y no puede eliminarse.")
	}
	if err := s.repo.DeleteVariante(ctx, actor.NegocioID, productoID, varianteID); err != nil {
		if repository.IsNotFound(err) {
			return apierror.NotFound(msgVarianteNoEncontrada)
		}
		return fmt.Errorf("eliminar variante: %w", err)
	}
	return nil
}

// ── ConsultarPrecio ───────────────────────────────────────────────────────────

func (s *productoService) ConsultarPrecio(ctx context.Context, actor model.Actor, barcode string) (*dto.ConsultaPreciosResponse, error) {
	barcode = strings.TrimSpace(barcode)
	p, ok := s.cache.Get(ctx, actor.NegocioID, barcode)
	if !ok {
		var err error
		p, err = s.repo.FindByBarcode(ctx, actor.NegocioID, barcode)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, apierror.NotFound("Producto no encontrado")
			}
			return nil, err
		}
		s.cache.Set(ctx, p)
	}

	ahora := s.reloj.ahora()
	return &dto.ConsultaPreciosResponse{
		ProductoID:      p.ID.String(),
		Nombre:          p.Nombre,
		PrecioVenta:     p.PrecioVenta,
		PrecioFinal:     PrecioEfectivo(p, p.PrecioVenta, ahora),
		TieneDescuento:  DescuentoActivo(p, ahora),
		StockDisponible: p.StockActual,
		Categoria:       p.Categoria,
	}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func productoToResponse(p *model.Producto, ahora time.Time) *dto.ProductoResponse {
	resp := &dto.ProductoResponse{
		ID:              p.ID.String(),
		Nombre:          p.Nombre,
		Descripcion:     p.Descripcion,
		CodigoBarras:    p.CodigoBarras,
		Categoria:       p.Categoria,
		UnidadMedida:    p.UnidadMedida,
		PrecioCompra:    p.PrecioCompra,
		PrecioVenta:     p.PrecioVenta,
		PrecioFinal:     PrecioEfectivo(p, p.PrecioVenta, ahora),
		TieneDescuento:  DescuentoActivo(p, ahora),
		Ahorro:          Ahorro(p, p.PrecioVenta, ahora),
		CantidadInicial: p.CantidadInicial,
		Merma:           p.Merma,
		StockActual:     p.StockActual,
		StockMinimo:     p.StockMinimo,
		Activo:          p.Activo,
	}
	if p.DescuentoPorcentaje != nil {
		d := &dto.DescuentoResponse{
			Porcentaje:  p.DescuentoPorcentaje,
			FechaInicio: p.DescuentoFechaInicio,
			FechaFin:    p.DescuentoFechaFin,
		}
		if p.DescuentoHoraInicio != nil {
			h := p.DescuentoHoraInicio.String()
			d.HoraInicio = &h
		}
		if p.DescuentoHoraFin != nil {
			h := p.DescuentoHoraFin.String()
			d.HoraFin = &h
		}
		resp.Descuento = d
	}
	for _, v := range p.Variantes {
		resp.Variantes = append(resp.Variantes, varianteToResponse(&v))
	}
	return resp
}

func varianteToResponse(v *model.VarianteProducto) dto.VarianteResponse {
	return dto.VarianteResponse{
		ID:     v.ID.String(),
		Nombre: v.Nombre,
		Precio: v.Precio,
		Codigo: v.Codigo,
	}
}
