package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/doctree/internal/api/handler"
	mw "github.com/edvin/doctree/internal/api/middleware"
	"github.com/edvin/doctree/internal/billing"
	"github.com/edvin/doctree/internal/config"
	"github.com/edvin/doctree/internal/core"
)

//go:embed docs/openapi.json
var openapiJSON []byte

type Server struct {
	router         chi.Router
	logger         zerolog.Logger
	services       *core.Services
	meter          *billing.Meter
	pool           *pgxpool.Pool
	temporalClient temporalclient.Client
	cfg            *config.Config
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, temporalClient temporalclient.Client, services *core.Services, meter *billing.Meter, cfg *config.Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		logger:         logger,
		services:       services,
		meter:          meter,
		pool:           pool,
		temporalClient: temporalClient,
		cfg:            cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	// API documentation (no auth required)
	s.router.Get("/docs/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(openapiJSON)
	})
	s.router.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(scalarHTML))
	})

	// Stripe calls this; it authenticates with its signature header, not
	// an API key.
	webhookHandler := handler.NewStripeWebhook(s.services.Subscription, s.cfg.StripeWebhookSecret, s.logger)
	s.router.Post("/webhooks/stripe", webhookHandler.Handle)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.pool))

		// Trees
		tree := handler.NewTree(s.services.Tree)
		r.Get("/trees", tree.List)
		r.Post("/trees", tree.Create)
		r.Get("/trees/{id}", tree.Get)
		r.Get("/trees/{id}/nodes", tree.Nodes)
		r.Delete("/trees/{id}", tree.Delete)

		// Nodes
		node := handler.NewNode(s.services.Node)
		r.Get("/nodes/{id}", node.Get)
		r.Post("/nodes/{id}/expand", node.Expand)
		r.Post("/nodes/{id}/content", node.GenerateContent)
		r.Put("/nodes/{id}/content", node.UpdateContent)

		// Quizzes
		quiz := handler.NewQuiz(s.services.Quiz)
		r.Get("/nodes/{id}/quizzes", quiz.ListByNode)
		r.Post("/nodes/{id}/quizzes", quiz.Generate)
		r.Get("/quizzes/{id}", quiz.Get)

		// Flashcards
		flashcard := handler.NewFlashcard(s.services.Flashcard)
		r.Get("/nodes/{id}/flashcards", flashcard.ListByNode)
		r.Post("/nodes/{id}/flashcards", flashcard.Generate)
		r.Get("/flashcards/{id}", flashcard.Get)

		// Resources
		resource := handler.NewResource(s.services.Resource)
		r.Get("/nodes/{id}/resources", resource.ListByNode)
		r.Post("/nodes/{id}/resources/refresh", resource.Refresh)

		// Podcasts
		podcast := handler.NewPodcast(s.services.Podcast)
		r.Get("/nodes/{id}/podcasts", podcast.ListByNode)
		r.Post("/nodes/{id}/podcasts", podcast.Create)
		r.Get("/podcasts/{id}", podcast.Get)
		r.Delete("/podcasts/{id}", podcast.Delete)

		// Chat
		chat := handler.NewChat(s.services.Chat, s.logger)
		r.Post("/nodes/{id}/chat", chat.Ask)
		r.Get("/nodes/{id}/chat/ws", chat.Session)

		// Usage
		usage := handler.NewUsage(s.meter)
		r.Get("/usage", usage.Get)

		// API keys
		apiKey := handler.NewAPIKey(s.services.APIKey)
		r.Get("/api-keys", apiKey.List)
		r.Post("/api-keys", apiKey.Create)
		r.Delete("/api-keys/{id}", apiKey.Revoke)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	if _, err := s.temporalClient.CheckHealth(ctx, &temporalclient.CheckHealthRequest{}); err != nil {
		checks["temporal"] = err.Error()
		healthy = false
	} else {
		checks["temporal"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

const scalarHTML = `<!DOCTYPE html>
<html>
<head>
  <title>DocTree API</title>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
</head>
<body>
  <script id="api-reference" data-url="/docs/openapi.json"></script>
  <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`
