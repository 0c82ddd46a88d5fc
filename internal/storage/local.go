// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// URLPrefix is the public path local uploads are served under.
const URLPrefix = "/uploads"

// Local stores media on a filesystem rooted at a directory. The filesystem
// is an afero.Fs so tests can run against memory.
type Local struct {
	fs afero.Fs
}

// NewLocal creates a local backend rooted at dir on fs, creating dir if needed.
func NewLocal(fs afero.Fs, dir string) (*Local, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{fs: afero.NewBasePathFs(fs, dir)}, nil
}

// NewLocalDisk is NewLocal on the operating system filesystem.
func NewLocalDisk(dir string) (*Local, error) {
	return NewLocal(afero.NewOsFs(), dir)
}

func (l *Local) Name() string { return "local" }

// Put writes body to key and returns its /uploads URL.
func (l *Local) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	name, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if err := l.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return "", fmt.Errorf("local upload %s: %w", key, err)
	}
	f, err := l.fs.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("local upload %s: %w", key, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		l.fs.Remove(name)
		return "", fmt.Errorf("local upload %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("local upload %s: %w", key, err)
	}
	return URLPrefix + name, nil
}

// Delete removes key. Deleting a missing object is not an error.
func (l *Local) Delete(_ context.Context, key string) error {
	name, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := l.fs.Remove(name); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("local delete %s: %w", key, err)
	}
	return nil
}

// Handler serves stored files. Mount it under URLPrefix with the prefix
// stripped. Directory listings are refused.
func (l *Local) Handler() http.Handler {
	files := http.FileServer(afero.NewHttpFs(l.fs).Dir("/"))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}

// cleanKey turns key into a rooted slash path and rejects traversal.
func cleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.Contains(key, `\`) {
		return "", fmt.Errorf("invalid media key %q", key)
	}
	return path.Clean("/" + key), nil
}
