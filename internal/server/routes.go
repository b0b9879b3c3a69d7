package server

import (
	"github.com/samber/do/v2"

	"github.com/nfrund/goby-channels/internal/handlers"
	"github.com/nfrund/goby-channels/internal/middleware"
	"github.com/nfrund/goby-channels/internal/modules/chat"
)

// RegisterRoutes sets up the admin API and the health check. The WebSocket
// endpoints are mounted by the chat module.
func (s *Server) RegisterRoutes() {
	// Activity is only available when the chat module registered it.
	activity, _ := do.Invoke[*chat.Activity](s.Injector)
	channels := handlers.NewChannelsHandler(s.Hub.Registry(), activity, s.PubSub)

	s.E.GET("/healthz", channels.Health)

	api := s.E.Group("/api", middleware.RateLimiter(s.Cfg.GetHTTPRateLimit()))
	channels.Register(api)
}
