// Package web embeds the HTML templates and static assets served by the
// item pages.
package web

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed static templates
var assets embed.FS

// StaticFS returns the stylesheet and other static files.
func StaticFS() fs.FS {
	return mustSub("static")
}

// TemplatesFS returns the page templates.
func TemplatesFS() fs.FS {
	return mustSub("templates")
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(assets, dir)
	if err != nil {
		panic(fmt.Sprintf("embedded %s directory: %v", dir, err))
	}
	return sub
}
