// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Template is a reusable invitation design. Content holds the serialized
// virtual file tree edited in the admin editor; HTMLContent caches the
// tree's index.html for listings and thumbnails.
type Template struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Thumbnail   *string   `json:"thumbnail,omitempty"`
	Price       *int64    `json:"price,omitempty"`
	Tier        *string   `json:"tier,omitempty"`
	Content     string    `json:"-"`
	HTMLContent string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
