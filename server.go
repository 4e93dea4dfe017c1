package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"creekwatch/internal/agent"
	"creekwatch/internal/creek"
)

// Chatter is the slice of the conversational agent the web layer needs.
// *agent.Agent satisfies it; tests substitute a scripted implementation.
type Chatter interface {
	Chat(ctx context.Context, sessionID, message string) (agent.Reply, error)
	ClearSession(sessionID string)
}

// ServerConfig holds configuration for the web server
type ServerConfig struct {
	Port     int
	Store    creek.Store
	Agent    Chatter
	Sessions *SessionManager
}

// StartServer initializes and starts the HTTP server
func StartServer(config ServerConfig) error {
	r := NewRouter(config)

	addr := fmt.Sprintf(":%d", config.Port)
	log.Printf("Starting server on http://localhost%s", addr)
	return http.ListenAndServe(addr, r)
}

// NewRouter wires the middleware and routes. Split out of StartServer so
// tests can drive the full stack through httptest.
func NewRouter(config ServerConfig) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Static files
	fileServer := http.FileServer(http.Dir("./static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Web handlers (HTMX HTML responses)
	webHandler := NewWebHandler(config.Store, config.Agent, config.Sessions)
	r.Get("/", webHandler.Dashboard)
	r.Get("/sites/{code}", webHandler.SiteDetail)
	r.Post("/chat", webHandler.Chat)

	// API handlers (JSON responses)
	apiHandler := &APIHandler{Store: config.Store, Agent: config.Agent, Sessions: config.Sessions}
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", apiHandler.Health)
		r.Get("/sites", apiHandler.Sites)
		r.Get("/sites/{code}", apiHandler.GetSite)
		r.Get("/sites/{code}/trend", apiHandler.Trend)
		r.Get("/compare", apiHandler.Compare)
		r.Get("/compliance", apiHandler.Compliance)
		r.Get("/summary", apiHandler.Summary)
		r.Get("/explain", apiHandler.Explain)
		r.Post("/chat", apiHandler.Chat)
		r.Delete("/sessions/{id}", apiHandler.EndSession)
	})

	return r
}
