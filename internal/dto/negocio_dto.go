package dto

// NegocioPerfilRequest replaces the perfil. Only the dueno may change Nombre.
type NegocioPerfilRequest struct {
	Nombre        string  `json:"nombre"         validate:"required,min=2,max=120"`
	Direccion     *string `json:"direccion"      validate:"omitempty,max=200"`
	Telefono      *string `json:"telefono"       validate:"omitempty,max=30"`
	Correo        *string `json:"correo"         validate:"omitempty,email"`
	RFC           *string `json:"rfc"            validate:"omitempty,min=12,max=13"`
	GiroComercial *string `json:"giro_comercial" validate:"omitempty,max=80"`
}

type NegocioPerfilResponse struct {
	ID            string  `json:"id"`
	Nombre        string  `json:"nombre"`
	Direccion     *string `json:"direccion"`
	Telefono      *string `json:"telefono"`
	Correo        *string `json:"correo"`
	RFC           *string `json:"rfc"`
	GiroComercial *string `json:"giro_comercial"`
}
