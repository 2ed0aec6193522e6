// Package scorepad embeds the browser scoreboard served by cmd/server.
package scorepad

import "embed"

// WebFS holds the static files under web/.
//
//go:embed web
var WebFS embed.FS
