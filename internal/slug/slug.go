// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns guest names into URL-safe identifiers and validates
// invitation subdomains.
package slug

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// GuestFallback is used when a name has no usable characters.
const GuestFallback = "guest"

// maxAttempts bounds the numeric suffixes tried by Unique.
const maxAttempts = 1000

var (
	// nonAlphanumeric matches runs of anything that isn't a-z or 0-9.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	subdomainRe     = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// ErrExhausted is returned by Unique when every candidate is taken.
var ErrExhausted = errors.New("slug: no free suffix")

// Guest creates a slug from a guest name.
// Example: "Pak Budi & Ibu" → "pak-budi-ibu"
func Guest(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return GuestFallback
	}
	return s
}

// Unique returns base, or base with the first free numeric suffix
// ("budi-2", "budi-3", ...) according to exists.
func Unique(ctx context.Context, base string, exists func(context.Context, string) (bool, error)) (string, error) {
	candidate := base
	for n := 2; n <= maxAttempts; n++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
	return "", ErrExhausted
}

// ValidSubdomain reports whether s may be used as an invoice subdomain:
// lowercase letters, digits and hyphens only.
func ValidSubdomain(s string) bool {
	return subdomainRe.MatchString(s)
}
