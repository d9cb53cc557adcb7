package dto

type CrearClienteRequest struct {
	Nombre        string `json:"nombre"        validate:"required,min=2,max=150"`
	Documento     string `json:"documento"     validate:"required,min=11,max=18"`
	Tipo          string `json:"tipo"          validate:"required,oneof=PF PJ"`
	Email         string `json:"email"         validate:"omitempty,email"`
	Telefono      string `json:"telefono"      validate:"max=20"`
	Observaciones string `json:"observaciones" validate:"max=1000"`
}

type ClienteResponse struct {
	ID            string `json:"id"`
	Nombre        string `json:"nombre"`
	Documento     string `json:"documento"`
	Tipo          string `json:"tipo"`
	Email         string `json:"email"`
	Telefono      string `json:"telefono"`
	Observaciones string `json:"observaciones"`
	CreatedAt     string `json:"created_at"`
}
