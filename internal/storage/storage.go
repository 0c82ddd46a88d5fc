// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage keeps uploaded invitation media. Objects go to an
// S3-compatible bucket when one is configured and to local disk otherwise;
// either way the caller gets back a URL that a file node can point at.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Backend stores and removes media objects.
type Backend interface {
	// Name identifies the backend in media records ("s3" or "local").
	Name() string
	// Put stores body under key and returns the public URL of the object.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// NewKey names a new upload: a year/month folder and a time-ordered UUID
// with ext. The client's file name is never reused.
func NewKey(ext string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate media key: %w", err)
	}
	return keyAt(time.Now().UTC(), id, ext), nil
}

func keyAt(t time.Time, id uuid.UUID, ext string) string {
	return fmt.Sprintf("%04d/%02d/%s.%s", t.Year(), t.Month(), id, ext)
}
