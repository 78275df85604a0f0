package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	ProductoID         string  `json:"producto_id"          validate:"required,uuid"`
	VarianteProductoID *string `json:"variante_producto_id" validate:"omitempty,uuid"`
	Cantidad           int     `json:"cantidad"`
}

// RegistrarVentaRequest. Unit prices are computed server-side from the
// catalog and the active discount; the client never supplies them.
type RegistrarVentaRequest struct {
	Items         []ItemVentaRequest `json:"items"          validate:"dive"`
	FormaPago     string             `json:"forma_pago"     validate:"max=30"`
	MontoRecibido *decimal.Decimal   `json:"monto_recibido"`
	ClienteEmail  *string            `json:"cliente_email"  validate:"omitempty,email"`
}

// VentaRangoFilter is bound from the query string of GET /v1/ventas (YYYY-MM-DD).
type VentaRangoFilter struct {
	Desde string `form:"desde"`
	Hasta string `form:"hasta"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	ProductoID         string          `json:"producto_id"`
	Producto           string          `json:"producto"`
	VarianteProductoID *string         `json:"variante_producto_id"`
	Cantidad           int             `json:"cantidad"`
	PrecioLista        decimal.Decimal `json:"precio_lista"`
	PrecioUnitario     decimal.Decimal `json:"precio_unitario"`
	Subtotal           decimal.Decimal `json:"subtotal"`
}

type VentaResponse struct {
	ID            string              `json:"id"`
	UsuarioID     string              `json:"usuario_id"`
	Cajero        string              `json:"cajero"`
	TotalPagado   decimal.Decimal     `json:"total_pagado"`
	FormaPago     string              `json:"forma_pago"`
	MontoRecibido *decimal.Decimal    `json:"monto_recibido"`
	Cambio        *decimal.Decimal    `json:"cambio"`
	FechaHora     string              `json:"fecha_hora"`
	Ticket        *string             `json:"ticket"`
	Items         []ItemVentaResponse `json:"items"`
}

type VentaListResponse struct {
	Data        []VentaResponse `json:"data"`
	TotalVentas int64           `json:"total_ventas"`
	TotalMonto  decimal.Decimal `json:"total_monto"`
}
