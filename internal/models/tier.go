package models

import (
	"time"

	"github.com/google/uuid"
)

// Tier is a price band of the template catalog. Templates refer to a tier
// by its name. Templates counts the templates in the tier and is only
// filled by listings.
type Tier struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	PriceMin  int64     `json:"price_min"`
	PriceMax  int64     `json:"price_max"`
	Features  *string   `json:"features,omitempty"`
	Color     *string   `json:"color,omitempty"`
	SortOrder int       `json:"sort_order"`
	Templates int       `json:"templates"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
