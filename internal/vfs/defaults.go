// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package vfs

import (
	_ "embed"
)

var (
	//go:embed defaults/index.html
	defaultIndexHTML string

	//go:embed defaults/style.css
	defaultStyleCSS string

	//go:embed defaults/script.js
	defaultScriptJS string
)

// Defaults returns the starter tree used whenever no valid content has been
// saved: index.html, style.css and script.js at the root. Each call builds
// new nodes, so callers may mutate the result freely.
func Defaults() Tree {
	return Tree{
		&File{Meta: Meta{ID: "root-index", Name: "index.html"}, Content: defaultIndexHTML, Language: "html"},
		&File{Meta: Meta{ID: "root-style", Name: "style.css"}, Content: defaultStyleCSS, Language: "css"},
		&File{Meta: Meta{ID: "root-script", Name: "script.js"}, Content: defaultScriptJS, Language: "javascript"},
	}
}
