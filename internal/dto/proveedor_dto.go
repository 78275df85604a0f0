package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ProveedorRequest is used for both create and full update.
type ProveedorRequest struct {
	Nombre    string  `json:"nombre"    validate:"required,min=2,max=120"`
	RFC       *string `json:"rfc"       validate:"omitempty,min=12,max=13"`
	Correo    *string `json:"correo"    validate:"omitempty,email"`
	Telefono  *string `json:"telefono"  validate:"omitempty,max=30"`
	Direccion *string `json:"direccion" validate:"omitempty,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProveedorResponse struct {
	ID        string  `json:"id"`
	Nombre    string  `json:"nombre"`
	RFC       *string `json:"rfc"`
	Correo    *string `json:"correo"`
	Telefono  *string `json:"telefono"`
	Direccion *string `json:"direccion"`
}
