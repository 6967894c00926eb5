// Package views embeds the html templates of the admin pages.
package views

import "embed"

//go:embed layout.html posts/*.html
var FS embed.FS
