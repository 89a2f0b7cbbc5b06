package dto

// ErrorResponse cuerpo de error HTTP. Details lleva los datos estructurados del error
// (códigos esperados/recibidos, stock disponible, campo inválido).
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// MessageResponse respuesta simple de confirmación.
type MessageResponse struct {
	Message string `json:"message"`
}
