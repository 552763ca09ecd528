package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/SAP-F-2025/school-admin-service/internal/accessors"
	"github.com/SAP-F-2025/school-admin-service/internal/live"
	"github.com/SAP-F-2025/school-admin-service/internal/preferences"
	"github.com/SAP-F-2025/school-admin-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const liveWriteTimeout = 10 * time.Second

// LiveMessage is one frame pushed on a live stream. Loading frames carry no
// data; error frames carry the last data that was seen, if any.
type LiveMessage struct {
	Stream  string      `json:"stream"`
	Loading bool        `json:"loading"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// LiveSource produces the frames of one stream until ctx is done.
type LiveSource func(ctx context.Context) (<-chan LiveMessage, error)

// ResultSource streams a collection view.
func ResultSource[T any](name string, obs live.Observable[accessors.Result[T]]) LiveSource {
	return func(ctx context.Context) (<-chan LiveMessage, error) {
		return mapUpdates(ctx, live.Updates(ctx, obs), func(r accessors.Result[T]) LiveMessage {
			msg := LiveMessage{Stream: name, Loading: r.Data == nil && r.Err == nil}
			if r.Err != nil {
				msg.Error = r.Err.Error()
			}
			if r.Data != nil {
				msg.Data = r.Data
			}
			return msg
		}), nil
	}
}

// DocumentSource streams a single document.
func DocumentSource[T any](name string, obs live.Observable[accessors.DocumentResult[T]]) LiveSource {
	return func(ctx context.Context) (<-chan LiveMessage, error) {
		return mapUpdates(ctx, live.Updates(ctx, obs), func(r accessors.DocumentResult[T]) LiveMessage {
			msg := LiveMessage{Stream: name, Loading: r.IsLoading}
			if r.Err != nil {
				msg.Error = r.Err.Error()
			}
			if r.Exists {
				msg.Data = r.Data
			}
			return msg
		}), nil
	}
}

// WidgetSource streams the dashboard widget configuration.
func WidgetSource(name string, widgets *preferences.Widgets) LiveSource {
	return func(ctx context.Context) (<-chan LiveMessage, error) {
		configs, err := widgets.Watch(ctx)
		if err != nil {
			return nil, err
		}
		return mapUpdates(ctx, configs, func(cfg preferences.WidgetConfig) LiveMessage {
			return LiveMessage{Stream: name, Data: cfg}
		}), nil
	}
}

func mapUpdates[T any](ctx context.Context, in <-chan T, fn func(T) LiveMessage) <-chan LiveMessage {
	out := make(chan LiveMessage)
	go func() {
		defer close(out)
		for state := range in {
			select {
			case out <- fn(state):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// LiveHandler pushes live views to websocket clients.
type LiveHandler struct {
	BaseHandler
	upgrader websocket.Upgrader
	sources  map[string]LiveSource
	// managed streams are only served to management roles.
	managed map[string]bool
}

func NewLiveHandler(allowedOrigins []string, logger utils.Logger) *LiveHandler {
	return &LiveHandler{
		BaseHandler: NewBaseHandler(logger),
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
		sources: make(map[string]LiveSource),
		managed: make(map[string]bool),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Add registers a stream readable by any signed-in user.
func (h *LiveHandler) Add(name string, source LiveSource) *LiveHandler {
	h.sources[name] = source
	return h
}

// AddManaged registers a stream restricted to management roles.
func (h *LiveHandler) AddManaged(name string, source LiveSource) *LiveHandler {
	h.sources[name] = source
	h.managed[name] = true
	return h
}

// Stream upgrades to a websocket and writes a frame on every change of the
// requested stream until the client goes away.
func (h *LiveHandler) Stream(c *gin.Context) {
	name := c.Param("stream")
	source, ok := h.sources[name]
	if !ok {
		h.RespondWithError(c, http.StatusNotFound, "Unknown stream", name)
		return
	}
	if h.managed[name] && !currentActor(c).CanManage() {
		h.RespondWithError(c, http.StatusForbidden, "Access denied", "management role required")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.LogError(c, err, "WebSocket upgrade failed", "stream", name)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Reads only detect the client closing the socket.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	frames, err := source(ctx)
	if err != nil {
		h.LogError(c, err, "Failed to open stream", "stream", name)
		_ = conn.WriteJSON(LiveMessage{Stream: name, Error: err.Error()})
		return
	}

	h.LogRequest(c, "Live stream opened", "stream", name)
	for frame := range frames {
		_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
		if err := conn.WriteJSON(frame); err != nil {
			h.logger.Debug("Live stream closed", "stream", name, "error", err)
			return
		}
	}
}
