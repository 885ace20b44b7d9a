// Package site serves the embedded landing and login pages and their assets.
package site

import (
	"context"
	"errors"
	"net/http"
)

// ErrServe is reported when an embedded page cannot be served.
var ErrServe = errors.New("site serve failed")

// Register attaches the landing page, the login page and /static/ assets to
// mux. Unknown paths below / are 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	root := NewRootHandler()
	mux.HandleFunc("/", root.HandleRoot)
	mux.HandleFunc("/login", root.HandleLogin)
	mux.HandleFunc("/favicon.ico", root.HandleFavicon)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(FS())))
}

// RootHandler serves individual embedded pages.
type RootHandler struct {
	fs http.FileSystem
}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{fs: FS()}
}

// HandleRoot handles GET / with the landing page.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.serve(w, r, "index.html", "text/html; charset=utf-8")
}

// HandleLogin handles GET /login with the password form.
func (h *RootHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "login.html", "text/html; charset=utf-8")
}

// HandleFavicon handles GET /favicon.ico.
func (h *RootHandler) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "favicon.svg", "image/svg+xml")
}

func (h *RootHandler) serve(w http.ResponseWriter, r *http.Request, name, contentType string) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	f, err := h.fs.Open(name)
	if err != nil {
		http.Error(w, errors.Join(ErrServe, err).Error(), http.StatusInternalServerError)
		return
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, errors.Join(ErrServe, err).Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, name, info.ModTime(), f)
}
