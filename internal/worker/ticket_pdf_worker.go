package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ventify/internal/infra"
	"ventify/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TicketPDFPayload is the job envelope sent to QueueTicketPDF.
type TicketPDFPayload struct {
	VentaID      string  `json:"venta_id"`
	NegocioID    string  `json:"negocio_id"`
	ClienteEmail *string `json:"cliente_email,omitempty"`
}

// TicketPDFWorker renders the receipt PDF of a committed sale and, when the
// customer left an address, chains an email job.
type TicketPDFWorker struct {
	ventas      repository.VentaRepository
	negocios    repository.NegocioRepository
	dispatcher  *Dispatcher
	storagePath string
	loc         *time.Location
}

func NewTicketPDFWorker(ventas repository.VentaRepository, negocios repository.NegocioRepository, dispatcher *Dispatcher, storagePath string, loc *time.Location) *TicketPDFWorker {
	return &TicketPDFWorker{ventas: ventas, negocios: negocios, dispatcher: dispatcher, storagePath: storagePath, loc: loc}
}

func (w *TicketPDFWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload TicketPDFPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("ticket_pdf_worker: invalid payload")
		return nil
	}
	ventaID, err1 := uuid.Parse(payload.VentaID)
	negocioID, err2 := uuid.Parse(payload.NegocioID)
	if err1 != nil || err2 != nil {
		log.Error().Str("venta_id", payload.VentaID).Msg("ticket_pdf_worker: malformed ids")
		return nil
	}

	venta, err := w.ventas.FindByID(ctx, negocioID, ventaID)
	if err != nil {
		if repository.IsNotFound(err) {
			// Sale deleted before the job ran.
			log.Warn().Str("venta_id", payload.VentaID).Msg("ticket_pdf_worker: venta no encontrada")
			return nil
		}
		return fmt.Errorf("ticket_pdf_worker: load venta: %w", err)
	}
	// A missing perfil only costs the receipt its header.
	negocio, err := w.negocios.FindByID(ctx, negocioID)
	if err != nil {
		negocio = nil
	}

	path, err := infra.GenerateTicketPDF(negocio, venta, w.loc, w.storagePath)
	if err != nil {
		return err
	}
	log.Info().Str("venta_id", payload.VentaID).Str("path", path).Msg("ticket_pdf_worker: PDF generado")

	if payload.ClienteEmail == nil || *payload.ClienteEmail == "" || w.dispatcher == nil {
		return nil
	}
	return w.dispatcher.EnqueueEmail(ctx, EmailJobPayload{
		ToEmail: *payload.ClienteEmail,
		Subject: fmt.Sprintf("%s - Ticket #%s", infra.NombreComercial(negocio), infra.TicketCorto(venta.ID)),
		Body:    infra.FormatTicket(negocio, venta, w.loc),
		PDFPath: path,
	})
}
