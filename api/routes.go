package api

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"mm-replacer/app"
	"mm-replacer/logging"
	"mm-replacer/offline"
)

// StaticSub returns the "static" sub-tree of the embedded assets. In dev
// mode staticFS is already rooted at the assets directory; fs.Sub succeeds
// anyway, so probe index.html to detect that.
func StaticSub(staticFS fs.FS) fs.FS {
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return staticFS
	}
	if _, statErr := fs.Stat(staticSub, "index.html"); statErr != nil {
		return staticFS
	}
	return staticSub
}

// AssetHandler serves the UI files. It is the "network" side of the
// offline cache.
func AssetHandler(staticFS fs.FS) http.Handler {
	staticSub := StaticSub(staticFS)
	index := serveFile(staticSub, "index.html", "text/html; charset=utf-8")
	fileServer := http.FileServer(http.FS(staticSub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/", "/index.html":
			// http.FileServer redirects ".../index.html" to "./", so the
			// page is read from the FS directly.
			index(w, r)
		default:
			fileServer.ServeHTTP(w, r)
		}
	})
}

// RegisterRoutes builds the full HTTP surface. cache may be nil to serve
// assets straight from staticFS.
func RegisterRoutes(a *app.App, cache *offline.Cache, staticFS fs.FS, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.Middleware(logger))
	r.Use(middleware.Recoverer)

	h := &handler{app: a, logger: logger}

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.getStatus)
		r.Post("/sync", h.postSync)

		r.Post("/replace", h.postReplace)
		r.Post("/replace/download", h.downloadOutput)
		r.Post("/upload", h.uploadInput)

		r.Get("/prefs", h.getPrefs)
		r.Put("/prefs", h.putPrefs)
		r.Post("/prefs/theme/toggle", h.toggleTheme)
		r.Post("/prefs/contrast/toggle", h.toggleContrast)
		r.Post("/prefs/reset", h.resetPrefs)

		r.Get("/events", h.handleEvents)
	})

	assets := AssetHandler(staticFS)
	if cache != nil {
		assets = cache.Handler(assets)
	}
	r.Handle("/*", assets)

	return r
}

// serveFile returns a handler that reads a single file from fsys and sends it.
func serveFile(fsys fs.FS, name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(content)
	}
}

type handler struct {
	app    *app.App
	logger *zap.Logger
}
