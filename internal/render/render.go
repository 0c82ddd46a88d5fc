// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render produces the HTML pages served around invitation content:
// the public page shell with its wish bubbles, the empty-template
// placeholder and the couple's RSVP confirmation list.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"undangan/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	pageInvitation    = "invitation.html"
	pageEmpty         = "empty.html"
	pageConfirmations = "confirmations.html"
)

// Invitation holds everything the page shell needs.
type Invitation struct {
	Title       string
	Description string
	// Content is the prepared index.html fragment. It is tenant-authored
	// markup and is inserted without escaping.
	Content template.HTML
	// Subdomain enables the live wish feed. Empty for previews.
	Subdomain    string
	Wishes       []models.Wish
	Preview      bool
	TemplateName string
}

// Confirmations is the data for the couple's RSVP overview.
type Confirmations struct {
	CustomerName string
	Authorized   bool
	Invalid      bool
	Submissions  []models.RSVPSubmission
	Attending    int
	NotAttending int
}

// Renderer executes the embedded page templates.
type Renderer struct {
	templates map[string]*template.Template
}

// New parses all embedded templates.
func New() (*Renderer, error) {
	funcs := template.FuncMap{
		// deref safely dereferences a string pointer for use in templates.
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"date": func(t time.Time) string {
			return t.Format("02 Jan 2006 15:04")
		},
	}

	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, name := range []string{pageInvitation, pageEmpty, pageConfirmations} {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Invitation renders the page shell around prepared content.
func (r *Renderer) Invitation(data *Invitation) ([]byte, error) {
	if data.Wishes == nil {
		data.Wishes = []models.Wish{}
	}
	return r.execute(pageInvitation, data)
}

// Empty renders the placeholder shown when a tree has no index.html.
func (r *Renderer) Empty(title string) ([]byte, error) {
	return r.execute(pageEmpty, struct{ Title string }{title})
}

// Confirmations renders the PIN form or, once authorized, the RSVP list.
func (r *Renderer) Confirmations(data *Confirmations) ([]byte, error) {
	data.Attending, data.NotAttending = 0, 0
	for _, s := range data.Submissions {
		if s.Attending {
			data.Attending++
		} else {
			data.NotAttending++
		}
	}
	return r.execute(pageConfirmations, data)
}

func (r *Renderer) execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.templates[name].Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// InvitationTitle is the document title for a couple's invitation.
func InvitationTitle(customerName string) string {
	return "The Wedding of " + customerName
}
