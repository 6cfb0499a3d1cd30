package entity

import "time"

// Branch sucursal de la cadena (punto de venta o bodega).
type Branch struct {
	ID        string
	Code      string
	Name      string
	CreatedAt time.Time
}
