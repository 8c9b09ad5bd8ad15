package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/voicemedia/go-voicemedia/internal/log"
	"github.com/voicemedia/go-voicemedia/pkg/mediafeed"
)

// searchResponse mirrors the agent wire format the assistant expects.
type searchResponse struct {
	Status string           `json:"status"`
	Chat   string           `json:"chat"`
	Medias []mediafeed.Item `json:"medias_info,omitempty"`
}

// handleSearch answers a voice search from the catalog.
func (s *Server) handleSearch(c *fiber.Ctx) error {
	message := c.Query("message")
	if message == "" {
		return c.JSON(searchResponse{Status: "error", Chat: "请说出您的需求"})
	}

	s.mu.RLock()
	matches := s.catalog.Match(message)
	s.mu.RUnlock()

	log.Info("voice search", "message", message, "matches", len(matches))

	if len(matches) == 0 {
		return c.JSON(searchResponse{Status: "error", Chat: "未找到相关视频"})
	}
	return c.JSON(searchResponse{
		Status: "success",
		Chat:   "好的，为您找到以下内容",
		Medias: matches,
	})
}

// handleServerIP reports the host's reachable address.
func (s *Server) handleServerIP(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ip": serverIP()})
}

// handleUploaderPage serves the page linked from the QR code. The real
// uploader UI lives in the frontend; this placeholder keeps the link
// resolvable in development.
func (s *Server) handleUploaderPage(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString("<!doctype html><title>媒体上传</title><h1>媒体上传</h1><p>请在主界面操作。</p>")
}

// handleListMedias returns the current catalog as a media list.
func (s *Server) handleListMedias(c *fiber.Ctx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]mediafeed.Item, 0, len(s.catalog.Entries))
	for _, e := range s.catalog.Entries {
		items = append(items, e.Item())
	}
	return c.JSON(items)
}

// handlePushMedias accepts a media list, replaces the catalog with it,
// and broadcasts it on the push channel, fully replacing what every
// connected viewer displays. Searches answer from the new inventory
// from this point on.
func (s *Server) handlePushMedias(c *fiber.Ctx) error {
	var items []mediafeed.Item
	if err := c.BodyParser(&items); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid media list"})
	}

	entries := make([]CatalogEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, entryOf(it))
	}
	s.mu.Lock()
	s.catalog.Entries = entries
	s.mu.Unlock()

	if err := s.hub.Publish(items); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	log.Info("pushed media list", "items", len(items), "viewers", s.hub.ClientCount())
	return c.JSON(fiber.Map{"pushed": len(items)})
}
