package http

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFiles embed.FS

func staticFS() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// PageHandler serves a single embedded HTML page.
func PageHandler(name string) http.HandlerFunc {
	files := staticFS()
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, files, name)
	}
}

// AssetsHandler serves the embedded static directory under /static/.
func AssetsHandler() http.Handler {
	return http.StripPrefix("/static/", http.FileServerFS(staticFS()))
}
