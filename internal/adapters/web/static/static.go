// Package static embeds the single-page map UI.
package static

import "embed"

//go:embed index.html app.js app.css
var FS embed.FS
