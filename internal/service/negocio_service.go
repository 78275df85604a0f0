package service

import (
	"context"
	"fmt"
	"strings"

	"ventify/internal/apierror"
	"ventify/internal/dto"
	"ventify/internal/model"
	"ventify/internal/repository"

	"github.com/rs/zerolog/log"
)

// NegocioService reads and edits the perfil of the actor's negocio.
type NegocioService interface {
	Perfil(ctx context.Context, actor model.Actor) (*dto.NegocioPerfilResponse, error)
	// ActualizarPerfil replaces the perfil. A gerente may edit every field
	// except the business name, which stays with the dueno.
	ActualizarPerfil(ctx context.Context, actor model.Actor, req dto.NegocioPerfilRequest) (*dto.NegocioPerfilResponse, error)
}

type negocioService struct {
	repo repository.NegocioRepository
}

func NewNegocioService(repo repository.NegocioRepository) NegocioService {
	return &negocioService{repo: repo}
}

func (s *negocioService) Perfil(ctx context.Context, actor model.Actor) (*dto.NegocioPerfilResponse, error) {
	n, err := s.repo.FindByID(ctx, actor.NegocioID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound("Negocio no encontrado.")
		}
		return nil, err
	}
	return perfilToResponse(n), nil
}

func (s *negocioService) ActualizarPerfil(ctx context.Context, actor model.Actor, req dto.NegocioPerfilRequest) (*dto.NegocioPerfilResponse, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		return nil, apierror.InvalidInput("El nombre del negocio es obligatorio.")
	}
	n, err := s.repo.FindByID(ctx, actor.NegocioID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound("Negocio no encontrado.")
		}
		return nil, err
	}
	if nombre != n.Nombre && actor.Rol != model.RolDueno {
		return nil, apierror.Forbidden("Solo el dueño puede cambiar el nombre del negocio.")
	}

	n.Nombre = nombre
	n.Direccion = textoOpcional(req.Direccion)
	n.Telefono = textoOpcional(req.Telefono)
	n.Correo = textoOpcional(req.Correo)
	n.RFC = textoOpcional(req.RFC)
	if n.RFC != nil {
		rfc := strings.ToUpper(*n.RFC)
		n.RFC = &rfc
	}
	n.GiroComercial = textoOpcional(req.GiroComercial)

	if err := s.repo.UpdatePerfil(ctx, n); err != nil {
		return nil, fmt.Errorf("actualizar perfil: %w", err)
	}
	log.Info().Str("negocio_id", actor.NegocioID.String()).Str("usuario_id", actor.UsuarioID.String()).
		Msg("perfil del negocio actualizado")
	return perfilToResponse(n), nil
}

func perfilToResponse(n *model.Negocio) *dto.NegocioPerfilResponse {
	return &dto.NegocioPerfilResponse{
		ID:            n.ID.String(),
		Nombre:        n.Nombre,
		Direccion:     n.Direccion,
		Telefono:      n.Telefono,
		Correo:        n.Correo,
		RFC:           n.RFC,
		GiroComercial: n.GiroComercial,
	}
}

// textoOpcional trims s and maps blank to nil.
func textoOpcional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
