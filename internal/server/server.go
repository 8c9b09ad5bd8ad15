// Package server implements the dev agent backend: the HTTP surface
// the voice assistant talks to, with a websocket push channel fanning
// media list updates out to every connected viewer. It stands in for
// the production agent during development and in tests.
package server

import (
	"net"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/voicemedia/go-voicemedia/internal/log"
	"github.com/voicemedia/go-voicemedia/pkg/pushhub"
)

// Server is the dev agent server.
type Server struct {
	app  *fiber.App
	port string
	hub  *pushhub.Hub

	mu      sync.RWMutex
	catalog *Catalog
}

// NewServer creates a server on the given port. A nil catalog uses the
// built-in default inventory.
func NewServer(port string, catalog *Catalog) *Server {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	s := &Server{
		port:    port,
		hub:     pushhub.New(),
		catalog: catalog,
	}

	app := fiber.New(fiber.Config{
		AppName:               "voicemedia agent",
		DisableStartupMessage: true,
	})

	// CORS for the browser frontend during development.
	app.Use(cors.New())

	agent := app.Group("/agent")
	agent.Get("/voice_media_search", s.handleSearch)
	agent.Get("/server_ip", s.handleServerIP)
	agent.Get("/uploader_page", s.handleUploaderPage)
	agent.Get("/medias", s.handleListMedias)
	agent.Post("/medias", s.handlePushMedias)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/medias", websocket.New(s.handleMediasWS))

	s.app = app
	return s
}

// Start runs the server; blocks until shutdown.
func (s *Server) Start() error {
	go s.hub.Run()
	log.Info("agent server listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync runs the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("agent server", "error", err)
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Hub exposes the push hub, e.g. for publishing from other components.
func (s *Server) Hub() *pushhub.Hub {
	return s.hub
}

// handleMediasWS serves one viewer on the push channel.
func (s *Server) handleMediasWS(conn *websocket.Conn) {
	client := pushhub.NewClient(s.hub, conn)
	client.Run()
}

// serverIP discovers the address this host is reachable at from the
// local network, used to build shareable links.
func serverIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
