// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package vfs

import "strings"

// contentTypes maps lower-cased file suffixes to MIME types. First match wins.
var contentTypes = []struct {
	suffix string
	mime   string
}{
	{".html", "text/html"},
	{".htm", "text/html"},
	{".css", "text/css"},
	{".js", "application/javascript"},
	{".mjs", "application/javascript"},
	{".json", "application/json"},
	{".txt", "text/plain"},
	{".png", "image/png"},
	{".jpg", "image/jpeg"},
	{".jpeg", "image/jpeg"},
	{".gif", "image/gif"},
	{".svg", "image/svg+xml"},
	{".webp", "image/webp"},
	{".avif", "image/avif"},
	{".ico", "image/x-icon"},
	{".mp4", "video/mp4"},
	{".webm", "video/webm"},
	{".woff", "font/woff"},
	{".woff2", "font/woff2"},
}

// DefaultContentType is used for files whose suffix is not recognized.
const DefaultContentType = "text/plain"

// ContentType infers a MIME type purely from the file name suffix.
func ContentType(name string) string {
	lower := strings.ToLower(name)
	for _, ct := range contentTypes {
		if strings.HasSuffix(lower, ct.suffix) {
			return ct.mime
		}
	}
	return DefaultContentType
}
