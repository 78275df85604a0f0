package service

import (
	"context"
	"time"

	"ventify/internal/apierror"
	"ventify/internal/infra"
	"ventify/internal/repository"

	"github.com/google/uuid"
)

// TicketRenderer produces the plain-text receipt of a stored sale.
type TicketRenderer interface {
	RenderTicketText(ctx context.Context, ventaID, negocioID uuid.UUID) (string, error)
}

type ticketService struct {
	ventaRepo   repository.VentaRepository
	negocioRepo repository.NegocioRepository
	loc         *time.Location
}

func NewTicketService(ventaRepo repository.VentaRepository, negocioRepo repository.NegocioRepository, loc *time.Location) TicketRenderer {
	if loc == nil {
		loc = time.Local
	}
	return &ticketService{ventaRepo: ventaRepo, negocioRepo: negocioRepo, loc: loc}
}

func (s *ticketService) RenderTicketText(ctx context.Context, ventaID, negocioID uuid.UUID) (string, error) {
	v, err := s.ventaRepo.FindByID(ctx, negocioID, ventaID)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", apierror.NotFound("Venta no encontrada")
		}
		return "", err
	}
	n, err := s.negocioRepo.FindByID(ctx, negocioID)
	if err != nil {
		n = nil
	}
	return infra.FormatTicket(n, v, s.loc), nil
}
