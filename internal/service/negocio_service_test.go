package service

import (
	"context"
	"testing"

	"ventify/internal/apierror"
	"ventify/internal/dto"
	"ventify/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerfil_DuenoActualiza(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	perfil, err := f.negocio.Perfil(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "Abarrotes Lupita", perfil.Nombre)
	assert.Nil(t, perfil.RFC)

	act, err := f.negocio.ActualizarPerfil(ctx, f.actor, dto.NegocioPerfilRequest{
		Nombre:        "Abarrotes Lupita Centro",
		Direccion:     strPtr("Hidalgo 12, Centro"),
		Telefono:      strPtr("33 1234 5678"),
		RFC:           strPtr("alc200101ab9"),
		GiroComercial: strPtr("Abarrotes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Abarrotes Lupita Centro", act.Nombre)
	require.NotNil(t, act.RFC)
	assert.Equal(t, "ALC200101AB9", *act.RFC)

	perfil, err = f.negocio.Perfil(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, act, perfil)
}

func TestPerfil_GerenteNoCambiaNombre(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gerente := f.actor
	gerente.Rol = model.RolGerente
	gerente.UsuarioID = uuid.New()

	_, err := f.negocio.ActualizarPerfil(ctx, gerente, dto.NegocioPerfilRequest{Nombre: "Otro Nombre"})
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.KindForbidden))

	act, err := f.negocio.ActualizarPerfil(ctx, gerente, dto.NegocioPerfilRequest{
		Nombre:    "Abarrotes Lupita",
		Direccion: strPtr("Morelos 40"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Abarrotes Lupita", act.Nombre)
	require.NotNil(t, act.Direccion)
	assert.Equal(t, "Morelos 40", *act.Direccion)
}

func TestPerfil_EncabezadoDelTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.negocio.ActualizarPerfil(ctx, f.actor, dto.NegocioPerfilRequest{
		Nombre:    "Abarrotes Lupita",
		Direccion: strPtr("Juárez 77"),
		Telefono:  strPtr("555-0101"),
	})
	require.NoError(t, err)

	f.abrirCaja(t, "0")
	p := f.producto(t, "Galletas", "18", 5)
	v := f.vender(t, p, 1, "20")

	ticket := NewTicketService(f.ventaRepo, f.negocioRepo, nil)
	txt, err := ticket.RenderTicketText(ctx, uuid.MustParse(v.ID), f.actor.NegocioID)
	require.NoError(t, err)
	assert.Contains(t, txt, "ABARROTES LUPITA")
	assert.Contains(t, txt, "Juárez 77")
	assert.Contains(t, txt, "Tel. 555-0101")
}
