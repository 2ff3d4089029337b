package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/linkbay/linkbay-ai/handlers"
	"github.com/linkbay/linkbay-ai/middleware"
)

// Config holds the routing-level configuration
type Config struct {
	// JWTSecret enables bearer-token authentication on the API routes
	// when non-empty
	JWTSecret string

	// RequestTimeout bounds each non-streaming request
	RequestTimeout time.Duration

	// AllowedOrigins configures CORS; empty means allow all
	AllowedOrigins []string
}

// New builds the HTTP route tree
func New(h *handlers.Handlers, cfg Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Auth(cfg.JWTSecret, logger))

		api.Group(func(g chi.Router) {
			g.Use(chimiddleware.Timeout(timeout))
			g.Post("/chat", h.Chat)
			g.Get("/usage", h.Usage)
			g.Get("/analytics", h.Analytics)
			g.Get("/tools", h.Tools)
		})

		// streaming responses outlive the standard request timeout
		api.Post("/chat/stream", h.ChatStream)
	})

	return r
}
