package domain

import "time"

// Product is owned by the catalog subsystem; this service only reads it for
// existence checks and cart display fields.
type Product struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
}
