package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/utafrali/configurator/internal/input"
)

// maxPointerMessage bounds a single pointer event frame.
const maxPointerMessage = 4096

// Pointer event types accepted on the rotation socket.
const (
	EventTouchStart = "touchstart"
	EventTouchMove  = "touchmove"
	EventTouchEnd   = "touchend"
	EventMouseDown  = "mousedown"
	EventMouseMove  = "mousemove"
	EventMouseUp    = "mouseup"
)

// PointerEvent is a client message on the rotation socket. Touch events use
// Points; mouse events use X and Y.
type PointerEvent struct {
	Type   string        `json:"type"`
	Points []input.Point `json:"points,omitempty"`
	X      float64       `json:"x"`
	Y      float64       `json:"y"`
}

// Rotation is sent for every move that produced a delta.
type Rotation struct {
	DeltaX float64 `json:"deltaX"`
	DeltaY float64 `json:"deltaY"`
}

type socketError struct {
	Error string `json:"error"`
}

// RotateHandler relays pointer drags from a websocket to rotation deltas.
type RotateHandler struct {
	originPatterns []string
	logger         *slog.Logger
}

// NewRotateHandler creates a rotation socket handler accepting the given CORS
// origins ("*" accepts any origin).
func NewRotateHandler(allowedOrigins []string, logger *slog.Logger) *RotateHandler {
	return &RotateHandler{
		originPatterns: originPatterns(allowedOrigins),
		logger:         logger,
	}
}

// originPatterns converts CORS origins into host patterns.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			o = u.Host
		}
		patterns = append(patterns, o)
	}
	return patterns
}

// ServeHTTP handles GET /ws/rotate
func (h *RotateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxPointerMessage)

	ctx := r.Context()
	var pending []Rotation
	relay := input.NewRelay(func(dx, dy float64) {
		pending = append(pending, Rotation{DeltaX: dx, DeltaY: dy})
	})

	for {
		var ev PointerEvent
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			h.logClose(ctx, err)
			return
		}

		if !apply(relay, ev) {
			if err := wsjson.Write(ctx, conn, socketError{Error: "unknown event type: " + ev.Type}); err != nil {
				return
			}
			continue
		}

		for _, rot := range pending {
			if err := wsjson.Write(ctx, conn, rot); err != nil {
				h.logClose(ctx, err)
				return
			}
		}
		pending = pending[:0]
	}
}

// apply feeds ev to relay and reports whether the event type is known.
func apply(relay *input.Relay, ev PointerEvent) bool {
	switch ev.Type {
	case EventTouchStart:
		relay.TouchStart(ev.Points)
	case EventTouchMove:
		relay.TouchMove(ev.Points)
	case EventTouchEnd:
		relay.TouchEnd()
	case EventMouseDown:
		relay.MouseDown(input.Point{X: ev.X, Y: ev.Y})
	case EventMouseMove:
		relay.MouseMove(input.Point{X: ev.X, Y: ev.Y})
	case EventMouseUp:
		relay.MouseUp()
	default:
		return false
	}
	return true
}

func (h *RotateHandler) logClose(ctx context.Context, err error) {
	status := websocket.CloseStatus(err)
	if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
		errors.Is(err, context.Canceled) {
		return
	}
	h.logger.DebugContext(ctx, "rotation socket closed",
		slog.String("error", err.Error()),
		slog.Int("close_status", int(status)),
	)
}
