// Package web serves PodMate's pages and JSON/WebSocket endpoints.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/dmitrijs2005/podmate/internal/logging"
	"github.com/dmitrijs2005/podmate/internal/server/blobstore"
	"github.com/dmitrijs2005/podmate/internal/server/models"
	"github.com/dmitrijs2005/podmate/internal/server/services"
	"github.com/dmitrijs2005/podmate/internal/server/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

//go:embed templates/*.html
var templateFiles embed.FS

type Registrar interface {
	Register(ctx context.Context, username, password string) (*services.Account, error)
}

type Authenticator interface {
	Login(ctx context.Context, username, password string) (*session.Session, string, error)
	Resolve(ctx context.Context, token string) (*session.Session, error)
	Logout(ctx context.Context, token string)
}

type Generator interface {
	Generate(ctx context.Context, s *session.Session, filename string, r io.Reader) (models.Artifact, error)
}

type Assistant interface {
	Ask(ctx context.Context, apiKey string, history []models.Turn, query string) (models.Turn, error)
}

// Deps are the services the handlers call. Store may be nil.
type Deps struct {
	Registrar     Registrar
	Authenticator Authenticator
	Generator     Generator
	Assistant     Assistant
	Store         blobstore.Store
	Logger        logging.Logger
}

type Server struct {
	router    *chi.Mux
	templates *template.Template
	upgrader  websocket.Upgrader

	registrar Registrar
	auth      Authenticator
	generator Generator
	assistant Assistant
	store     blobstore.Store
	logger    logging.Logger
}

func NewServer(d Deps) (*Server, error) {
	templates, err := template.New("").Funcs(template.FuncMap{
		"markdown": renderMarkdown,
	}).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		router:    chi.NewRouter(),
		templates: templates,
		upgrader:  websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		registrar: d.Registrar,
		auth:      d.Authenticator,
		generator: d.Generator,
		assistant: d.Assistant,
		store:     d.Store,
		logger:    d.Logger.With("module", "web"),
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})

	s.router.Get("/login", s.handleLoginPage)
	s.router.Post("/login", s.handleLogin)
	s.router.Post("/register", s.handleRegister)
	s.router.Post("/logout", s.handleLogout)

	// pages: no session means a trip to the login page
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Use(s.requireSession(true))
		r.Get("/", s.handleIndex)
		r.Post("/settings/api-key", s.handleSetAPIKey)
		r.Post("/podcasts", s.handleCreatePodcast)
	})

	// API: no session means 401
	s.router.Group(func(r chi.Router) {
		r.Use(s.requireSession(false))
		r.With(middleware.Compress(5)).Get("/artifacts", s.handleListArtifacts)
		r.Get("/artifacts/{id}/audio", s.handleArtifactAudio)
		r.Post("/chat", s.handleChat)
		r.Get("/ws/chat", s.handleChatWS)
	})
}
