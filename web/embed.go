// Package web embeds the static sites for single-binary distribution.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:public
var public embed.FS

//go:embed all:admin
var admin embed.FS

// Public returns the customer-facing site rooted at its index.html.
func Public() (fs.FS, error) {
	return fs.Sub(public, "public")
}

// Admin returns the operator dashboard served under /admin/.
func Admin() (fs.FS, error) {
	return fs.Sub(admin, "admin")
}
