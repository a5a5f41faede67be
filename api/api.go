package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/docuwatchco/docuwatch/pkg/logger"
)

// Server is the demo backend server.
type Server struct {
	config Config
	store  *store
	log    *slog.Logger
	app    *fiber.App
}

// NewServer creates a demo server with a seeded corpus.
func NewServer(config Config, log *slog.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		store:  newStore(),
		log:    log,
		app:    app,
	}

	app.Get("/ping", s.handlePing)

	app.Get("/api/documents", s.handleListDocuments)
	app.Get("/api/documents/:id/status", s.handleDocumentStatus)
	app.Get("/api/documents/:id/stream", s.handleDocumentStream)
	app.Post("/api/documents/batch", s.handleStartBatch)

	app.Get("/api/meetings", s.handleListMeetings)
	// Literal route first so "summarize" is not captured as a meeting id.
	app.Post("/api/meetings/summarize", s.handleStartMultiMeeting)
	app.Post("/api/meetings/:id/summarize", s.handleStartMeeting)

	app.Post("/api/qa", s.handleStartQA)

	app.Get("/api/jobs/:id/status", s.handleJobStatus)
	app.Get("/api/jobs/:id/stream", s.handleJobStream)
	app.Get("/api/jobs/:id/result", s.handleJobResult)

	return s
}

// Run starts the server on the configured address.
func (s *Server) Run() error {
	s.log.Info("starting demo server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
