package dto

import "github.com/shopspring/decimal"

type ReabastecerRequest struct {
	CantidadComprada      int              `json:"cantidad_comprada"`
	MermaReabastecimiento *int             `json:"merma_reabastecimiento"`
	PrecioCompra          *decimal.Decimal `json:"precio_compra"`
	PrecioVenta           *decimal.Decimal `json:"precio_venta"`
	StockMinimo           *int             `json:"stock_minimo"`
}

// MermaRequest reports shrinkage. Cantidad is accepted as an alias of Incremento.
type MermaRequest struct {
	Incremento *int    `json:"incremento"`
	Cantidad   *int    `json:"cantidad"`
	Motivo     *string `json:"motivo" validate:"omitempty,max=300"`
}

// Unidades resolves the shrinkage increment from either field.
func (r MermaRequest) Unidades() *int {
	if r.Incremento != nil {
		return r.Incremento
	}
	return r.Cantidad
}

type MermaFilter struct {
	ProductoID string `form:"producto_id" validate:"omitempty,uuid"`
	Tipo       string `form:"tipo"        validate:"omitempty,oneof=reabastecimiento merma ajuste"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=500"`
}

type MermaEventoResponse struct {
	ID             string `json:"id"`
	ProductoID     string `json:"producto_id"`
	ProductoNombre string `json:"producto_nombre"`
	UsuarioID      string `json:"usuario_id"`
	Tipo           string `json:"tipo"`
	Cantidad       int    `json:"cantidad"`
	Motivo         string `json:"motivo"`
	StockAntes     int    `json:"stock_antes"`
	StockDespues   int    `json:"stock_despues"`
	MermaAntes     int    `json:"merma_antes"`
	MermaDespues   int    `json:"merma_despues"`
	FechaUTC       string `json:"fecha_utc"`
}

type MermaListResponse struct {
	Data  []MermaEventoResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
