package handler

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
)

// SPAHandler serves the built frontend. Existing files are served as is;
// any other path gets index.html so client-side routing works.
type SPAHandler struct {
	root   fs.FS
	logger *slog.Logger
}

// NewSPAHandler serves dir. It returns nil when dir does not hold a built
// frontend, which is the normal case in development where the frontend dev
// server runs on its own.
func NewSPAHandler(dir string, logger *slog.Logger) *SPAHandler {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil
	}

	root := os.DirFS(dir)
	if _, err := fs.Stat(root, "index.html"); err != nil {
		return nil
	}

	return &SPAHandler{root: root, logger: logger}
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		http.NotFound(w, r)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = "index.html"
	}

	info, err := fs.Stat(h.root, name)
	if err == nil && !info.IsDir() {
		http.ServeFileFS(w, r, h.root, name)
		return
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		h.logger.Warn("Failed to stat static file", slog.String("file", name), slog.Any("err", err))
	}

	http.ServeFileFS(w, r, h.root, "index.html")
}

// FrontendMissingHandler answers when no built frontend is available.
func FrontendMissingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "frontend is not built, serve it with the frontend dev server", http.StatusNotFound)
	}
}
