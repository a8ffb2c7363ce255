package routes

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/lifelog-api/app"
	"github.com/upb/lifelog-api/handlers"
	"github.com/upb/lifelog-api/middleware"
	"github.com/upb/lifelog-api/utils"
)

// requestTimeout bounds every request including store round trips
const requestTimeout = 60 * time.Second

// recordHandler is the HTTP surface shared by every resource collection
type recordHandler interface {
	Collection() string
	HandleList(http.ResponseWriter, *http.Request)
	HandleGet(http.ResponseWriter, *http.Request)
	HandleCreate(http.ResponseWriter, *http.Request)
	HandlePatch(http.ResponseWriter, *http.Request)
	HandleDelete(http.ResponseWriter, *http.Request)
}

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(trailingSlashes)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: !slices.Contains(deps.Config.CORS.AllowedOrigins, "*"),
		MaxAge:           300,
	}))

	// JSON bodies for unmatched paths and methods; set before mounting so subrouters inherit them
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteMethodNotAllowed(w)
	})

	// Health check endpoints
	var keys handlers.CacheReporter
	if deps.TokenValidator != nil {
		keys = deps.TokenValidator
	}
	health := handlers.NewHealthHandler(deps.CheckStore, keys, deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	books := handlers.NewBookHandler(deps.BookService, deps.Logger)
	degrees := handlers.NewDegreeHandler(deps.DegreeService, deps.Logger)

	mountRecords(r, books, deps.AuthMiddleware)
	mountRecords(r, degrees, deps.AuthMiddleware)

	// Same collections under /data
	r.Route("/data", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, "/data/books", http.StatusFound)
		})
		mountRecords(r, books, deps.AuthMiddleware)
		mountRecords(r, degrees, deps.AuthMiddleware)
	})

	return r
}

// trailingSlashes redirects reads to the path without the trailing slash.
// Writes are routed in place so clients never replay them as GET.
func trailingSlashes(next http.Handler) http.Handler {
	redirect := chimw.RedirectSlashes(next)
	strip := chimw.StripSlashes(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			redirect.ServeHTTP(w, r)
			return
		}
		strip.ServeHTTP(w, r)
	})
}

// mountRecords registers the five collection routes. Reads are public;
// each write requires "<method>:<collection>" in the token's permissions.
func mountRecords(r chi.Router, h recordHandler, auth *middleware.AuthMiddleware) {
	collection := h.Collection()

	r.Route("/"+collection, func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.With(auth.RequirePermission("post:"+collection)).Post("/", h.HandleCreate)

		r.Get("/{id:[0-9]+}", h.HandleGet)
		r.With(auth.RequirePermission("patch:"+collection)).Patch("/{id:[0-9]+}", h.HandlePatch)
		r.With(auth.RequirePermission("delete:"+collection)).Delete("/{id:[0-9]+}", h.HandleDelete)
	})
}
