package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"kbqa/internal/handlers"
	"kbqa/internal/rag"
	"kbqa/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine     rag.Engine
	Store      vectorstore.Store
	Collection string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Add CORS middleware
	r.Use(CORS)

	// Add request-scoped logger
	r.Use(LoggerMiddleware)

	queryHandler := handlers.NewQueryHandler(deps.Engine)
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Collection)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/query", queryHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	// Service banner at root
	r.Method(http.MethodGet, "/", handlers.NewRootHandler())

	return r
}
