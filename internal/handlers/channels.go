package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/goby-channels/internal/middleware"
	"github.com/nfrund/goby-channels/internal/modules/chat"
	"github.com/nfrund/goby-channels/internal/pubsub"
	"github.com/nfrund/goby-channels/internal/websocket"
)

// ChannelsHandler serves read-only snapshots of the channel registry and
// accepts announcements for a channel.
type ChannelsHandler struct {
	registry  *websocket.Registry
	activity  *chat.Activity
	publisher pubsub.Publisher
}

// NewChannelsHandler creates the handler. activity may be nil.
func NewChannelsHandler(registry *websocket.Registry, activity *chat.Activity, publisher pubsub.Publisher) *ChannelsHandler {
	return &ChannelsHandler{registry: registry, activity: activity, publisher: publisher}
}

// Register mounts the admin routes on g.
func (h *ChannelsHandler) Register(g *echo.Group) {
	g.GET("/channels", h.ListChannels)
	g.GET("/channels/:channel", h.GetChannel)
	g.GET("/channels/:channel/members", h.ListMembers)
	g.POST("/channels/:channel/announce", h.Announce)
}

// ListChannels returns every live channel sorted by name.
func (h *ChannelsHandler) ListChannels(c echo.Context) error {
	infos := h.registry.Channels()
	out := make([]ChannelResponse, 0, len(infos))
	for _, info := range infos {
		out = append(out, h.channelResponse(info))
	}
	return c.JSON(http.StatusOK, out)
}

// GetChannel returns one channel or 404.
func (h *ChannelsHandler) GetChannel(c echo.Context) error {
	info, ok := h.registry.ChannelInfo(c.Param("channel"))
	if !ok {
		return channelNotFound(c)
	}
	return c.JSON(http.StatusOK, h.channelResponse(info))
}

// ListMembers returns the usernames in a channel or 404.
func (h *ChannelsHandler) ListMembers(c echo.Context) error {
	name := c.Param("channel")
	if _, ok := h.registry.ChannelInfo(name); !ok {
		return channelNotFound(c)
	}
	return c.JSON(http.StatusOK, MembersResponse{Channel: name, Members: h.registry.Members(name)})
}

// Announce publishes an announcement that the hub broadcasts into the channel.
func (h *ChannelsHandler) Announce(c echo.Context) error {
	var req AnnounceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "validation_failed", Message: err.Error()})
	}

	name := c.Param("channel")
	if _, ok := h.registry.ChannelInfo(name); !ok {
		return channelNotFound(c)
	}

	payload, err := json.Marshal(websocket.Announcement{Channel: name, From: req.From, Content: req.Content})
	if err != nil {
		return err
	}
	if err := h.publisher.Publish(c.Request().Context(), pubsub.Message{
		Topic:    websocket.TopicChannelAnnounce.Name(),
		Payload:  payload,
		Metadata: map[string]string{"channel": name},
	}); err != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to publish announcement", "channel", name, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not publish announcement")
	}
	return c.NoContent(http.StatusAccepted)
}

// Health reports liveness with connection counts.
func (h *ChannelsHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:      "ok",
		Channels:    len(h.registry.Channels()),
		Connections: h.registry.ConnectionCount(),
	})
}

func (h *ChannelsHandler) channelResponse(info websocket.ChannelInfo) ChannelResponse {
	resp := ChannelResponse{ChannelInfo: info}
	if h.activity != nil {
		if ca, ok := h.activity.Get(info.Name); ok {
			resp.Activity = &ca
		}
	}
	return resp
}

func channelNotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, ErrorResponse{Code: "channel_not_found", Message: "channel " + c.Param("channel") + " not found"})
}
