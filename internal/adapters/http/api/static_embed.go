package api

import (
	"embed"
	"io/fs"
)

// dashboardAssets holds the single-page roster dashboard served at /dashboard.
//
//go:embed static/dashboard.html
var dashboardAssets embed.FS

var dashboardFS = mustSub(dashboardAssets, "static")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
