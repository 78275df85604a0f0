package service

import (
	"context"
	"fmt"
	"strings"

	"ventify/internal/apierror"
	"ventify/internal/dto"
	"ventify/internal/model"
	"ventify/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	msgProveedorNoEncontrado = "Proveedor no encontrado."
	msgProveedorRFCDuplicado = "Ya existe un proveedor con ese RFC."
)

// ProveedorService manages the suppliers of the actor's negocio.
type ProveedorService interface {
	Crear(ctx context.Context, actor model.Actor, req dto.ProveedorRequest) (*dto.ProveedorResponse, error)
	Obtener(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.ProveedorResponse, error)
	Listar(ctx context.Context, actor model.Actor, nombre string) ([]dto.ProveedorResponse, error)
	Actualizar(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.ProveedorRequest) (*dto.ProveedorResponse, error)
	Eliminar(ctx context.Context, actor model.Actor, id uuid.UUID) error
}

type proveedorService struct {
	repo repository.ProveedorRepository
}

func NewProveedorService(repo repository.ProveedorRepository) ProveedorService {
	return &proveedorService{repo: repo}
}

func (s *proveedorService) Crear(ctx context.Context, actor model.Actor, req dto.ProveedorRequest) (*dto.ProveedorResponse, error) {
	p, err := proveedorDesdeRequest(req)
	if err != nil {
		return nil, err
	}
	p.NegocioID = actor.NegocioID
	if err := s.repo.Create(ctx, p); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apierror.InvalidState(msgProveedorRFCDuplicado)
		}
		return nil, fmt.Errorf("crear proveedor: %w", err)
	}
	log.Info().Str("negocio_id", actor.NegocioID.String()).Str("proveedor_id", p.ID.String()).Msg("proveedor creado")
	return proveedorToResponse(p), nil
}

func (s *proveedorService) Obtener(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.ProveedorResponse, error) {
	p, err := s.repo.FindByID(ctx, actor.NegocioID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound(msgProveedorNoEncontrado)
		}
		return nil, err
	}
	return proveedorToResponse(p), nil
}

func (s *proveedorService) Listar(ctx context.Context, actor model.Actor, nombre string) ([]dto.ProveedorResponse, error) {
	list, err := s.repo.List(ctx, actor.NegocioID, nombre)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProveedorResponse, 0, len(list))
	for i := range list {
		out = append(out, *proveedorToResponse(&list[i]))
	}
	return out, nil
}

func (s *proveedorService) Actualizar(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.ProveedorRequest) (*dto.ProveedorResponse, error) {
	p, err := proveedorDesdeRequest(req)
	if err != nil {
		return nil, err
	}
	p.ID = id
	p.NegocioID = actor.NegocioID
	if err := s.repo.Update(ctx, p); err != nil {
		switch {
		case repository.IsNotFound(err):
			return nil, apierror.NotFound(msgProveedorNoEncontrado)
		case repository.IsUniqueViolation(err):
			return nil, apierror.InvalidState(msgProveedorRFCDuplicado)
		}
		return nil, fmt.Errorf("actualizar proveedor: %w", err)
	}
	return s.Obtener(ctx, actor, id)
}

func (s *proveedorService) Eliminar(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, actor.NegocioID, id); err != nil {
		if repository.IsNotFound(err) {
			return apierror.NotFound(msgProveedorNoEncontrado)
		}
		return err
	}
	log.Info().Str("negocio_id", actor.NegocioID.String()).Str("proveedor_id", id.String()).Msg("proveedor eliminado")
	return nil
}

func proveedorDesdeRequest(req dto.ProveedorRequest) (*model.Proveedor, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		return nil, apierror.InvalidInput("El nombre del proveedor es obligatorio.")
	}
	p := &model.Proveedor{
		Nombre:    nombre,
		RFC:       textoOpcional(req.RFC),
		Correo:    textoOpcional(req.Correo),
		Telefono:  textoOpcional(req.Telefono),
		Direccion: textoOpcional(req.Direccion),
	}
	if p.RFC != nil {
		rfc := strings.ToUpper(*p.RFC)
		p.RFC = &rfc
	}
	return p, nil
}

func proveedorToResponse(p *model.Proveedor) *dto.ProveedorResponse {
	return &dto.ProveedorResponse{
		ID:        p.ID.String(),
		Nombre:    p.Nombre,
		RFC:       p.RFC,
		Correo:    p.Correo,
		Telefono:  p.Telefono,
		Direccion: p.Direccion,
	}
}
