// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus controls whether an invitation is publicly served.
type InvoiceStatus string

const (
	InvoiceActive   InvoiceStatus = "ACTIVE"
	InvoiceArchived InvoiceStatus = "ARCHIVED"
)

// Valid reports whether s is a known status.
func (s InvoiceStatus) Valid() bool {
	return s == InvoiceActive || s == InvoiceArchived
}

// SubdomainMode describes how an invitation is addressed. VIP invitations
// get a real subdomain; BASIC ones are only reachable under /s/.
type SubdomainMode string

const (
	ModeVIP   SubdomainMode = "VIP"
	ModeBasic SubdomainMode = "BASIC"
)

// Valid reports whether m is a known mode.
func (m SubdomainMode) Valid() bool {
	return m == ModeVIP || m == ModeBasic
}

// Invoice is a customer's copy of a template bound to a subdomain.
//
// TemplateContent is the invoice's own file tree. BaseContent is the
// owning template's tree, loaded alongside the invoice so the content
// fallback can be decided without a second query.
type Invoice struct {
	ID              uuid.UUID     `json:"id"`
	CustomerName    string        `json:"customer_name"`
	TemplateID      uuid.UUID     `json:"template_id"`
	TemplateName    string        `json:"template_name,omitempty"`
	Subdomain       string        `json:"subdomain"`
	SubdomainMode   SubdomainMode `json:"subdomain_mode"`
	AgreedPrice     int64         `json:"agreed_price"`
	AccessToken     string        `json:"access_token"`
	Status          InvoiceStatus `json:"status"`
	TemplateContent string        `json:"-"`
	HTMLContent     string        `json:"-"`
	BaseContent     string        `json:"-"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// IsArchived reports whether the invitation should no longer be served.
func (i *Invoice) IsArchived() bool {
	return i.Status == InvoiceArchived
}
