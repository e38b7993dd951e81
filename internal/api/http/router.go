package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authmw "github.com/mind-engage/autocheck/internal/auth/middleware"
	"github.com/mind-engage/autocheck/internal/grading"
	"github.com/mind-engage/autocheck/internal/rbac"
	"github.com/mind-engage/autocheck/internal/results"
	"github.com/mind-engage/autocheck/internal/session"
	"github.com/mind-engage/autocheck/internal/storage"
)

type Deps struct {
	Store       results.Store
	Blobs       storage.BlobStore
	Checker     *grading.Checker
	Options     []session.Option
	Auth        *authmw.AuthService
	Admin       authmw.Admin
	CORSOrigins []string
	// RequestTimeout bounds every request, grading included.
	RequestTimeout time.Duration
}

// NewRouter wires the public and protected routes.
func NewRouter(d Deps) chi.Router {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 5 * time.Minute
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", authmw.LoginHandler(d.Auth, d.Admin))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))

		pr.With(rbac.Require(rbac.PermRunCreate)).
			Post("/runs", CreateRunHandler(d.Store, d.Checker, d.Options...))
		pr.With(rbac.Require(rbac.PermRunView)).
			Get("/runs", ListRunsHandler(d.Store))
		pr.With(rbac.Require(rbac.PermRunView)).
			Get("/runs/{runID}", GetRunHandler(d.Store))
		pr.With(rbac.Require(rbac.PermRunExport)).
			Get("/runs/{runID}/export", ExportRunHandler(d.Store))

		if d.Blobs != nil {
			pr.With(rbac.Require(rbac.PermRunCreate)).Route("/assets", func(ar chi.Router) {
				MountAssets(ar, d.Blobs)
			})
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
