package entity

import "time"

// Store representa una tienda o sucursal que mantiene stock propio (origen o destino de traslados).
type Store struct {
	Code      string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
