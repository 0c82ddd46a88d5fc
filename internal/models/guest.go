// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Guest is a named invitee of one invoice. Slug is unique per invoice and
// is what personalised links carry in ?guest=.
type Guest struct {
	ID        uuid.UUID `json:"id"`
	InvoiceID uuid.UUID `json:"invoice_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RSVPSubmission is one response sent from a published invitation.
// A non-empty Comment doubles as a wish shown on the invitation page.
type RSVPSubmission struct {
	ID        uuid.UUID `json:"id"`
	InvoiceID uuid.UUID `json:"invoice_id"`
	GuestName string    `json:"guest_name"`
	Email     *string   `json:"email,omitempty"`
	Attending bool      `json:"attending"`
	Allergies *string   `json:"allergies,omitempty"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Wish is the public projection of a submission with a comment.
type Wish struct {
	GuestName string    `json:"guest_name"`
	Comment   string    `json:"comment"`
	Attending bool      `json:"attending"`
	CreatedAt time.Time `json:"created_at"`
}

// Wish returns the public projection of s, or false if s has no comment.
func (s *RSVPSubmission) Wish() (Wish, bool) {
	if s.Comment == nil || *s.Comment == "" {
		return Wish{}, false
	}
	return Wish{
		GuestName: s.GuestName,
		Comment:   *s.Comment,
		Attending: s.Attending,
		CreatedAt: s.CreatedAt,
	}, true
}
