// Package web embeds the HTML templates and static assets of the order form.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var files embed.FS

// Templates returns the template tree rooted at templates/.
func Templates() fs.FS {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Static returns the asset tree served under /static/.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// DefaultLogo is the logo printed when no LOGO_PATH or LOGO_URL is configured.
func DefaultLogo() []byte {
	b, err := fs.ReadFile(files, "static/logo.png")
	if err != nil {
		panic(err)
	}
	return b
}
