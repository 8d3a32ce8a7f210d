package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/upb/casting-agency/app"
	"github.com/upb/casting-agency/auth"
	"github.com/upb/casting-agency/handlers"
	"github.com/upb/casting-agency/middleware"
	"github.com/upb/casting-agency/utils"
)

// Route binds a method and pattern to a handler guarded by one permission
type Route struct {
	Method     string
	Pattern    string
	Permission string
	Handler    http.HandlerFunc
}

// Table lists every protected endpoint of the API
func Table(actors *handlers.ActorHandler, movies *handlers.MovieHandler) []Route {
	return []Route{
		{http.MethodGet, "/actors", auth.PermGetActors, actors.HandleList},
		{http.MethodPost, "/actors", auth.PermPostActors, actors.HandleCreate},
		{http.MethodPatch, "/actors/{id}", auth.PermPatchActors, actors.HandleUpdate},
		{http.MethodDelete, "/actors/{id}", auth.PermDeleteActors, actors.HandleDelete},

		{http.MethodGet, "/movies", auth.PermGetMovies, movies.HandleList},
		{http.MethodPost, "/movies", auth.PermPostMovies, movies.HandleCreate},
		{http.MethodPatch, "/movies/{id}", auth.PermPatchMovies, movies.HandleUpdate},
		{http.MethodDelete, "/movies/{id}", auth.PermDeleteMovies, movies.HandleDelete},
		{http.MethodPost, "/movies/{id}/actors", auth.PermPatchMovies, movies.HandleAddActor},
		{http.MethodDelete, "/movies/{id}/actors/{actor_id}", auth.PermPatchMovies, movies.HandleRemoveActor},
	}
}

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	if deps.Config.Observability.MetricsEnabled {
		r.Use(middleware.Instrument)
	}

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.Config.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	// Health check endpoints
	health := newHealthHandler(deps)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.Config.Observability.MetricsEnabled {
		r.Handle(deps.Config.Observability.MetricsPath, promhttp.Handler())
	}

	actors := handlers.NewActorHandler(deps.Casting, deps.Logger)
	movies := handlers.NewMovieHandler(deps.Casting, deps.Logger)
	for _, route := range Table(actors, movies) {
		if !auth.IsKnownPermission(route.Permission) {
			panic(fmt.Sprintf("route %s %s requires unknown permission %q", route.Method, route.Pattern, route.Permission))
		}
		r.With(deps.Gate.Require(route.Permission)).Method(route.Method, route.Pattern, route.Handler)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteMethodNotAllowed(w)
	})

	return r
}

// newHealthHandler avoids handing typed nils to the health handler
func newHealthHandler(deps *app.Dependencies) *handlers.HealthHandler {
	var db handlers.DatabaseChecker
	if deps.DB != nil {
		db = deps.DB
	}
	var keys handlers.KeyStats
	if deps.Keys != nil {
		keys = deps.Keys
	}
	return handlers.NewHealthHandler(db, keys, deps.Logger)
}
