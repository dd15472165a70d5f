package ws

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"messaging-service/internal/delivery"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/presence"
)

const wsRoutingKey = "ws_events.connections"

// Gateway accepts live connections, maintains the presence registry as they
// open and close, and relays ephemeral typing signals through the delivery
// router without persistence.
type Gateway struct {
	registry *presence.Registry
	router   *delivery.Router
}

// NewGateway constructs a Gateway.
func NewGateway(registry *presence.Registry, router *delivery.Router) *Gateway {
	return &Gateway{registry: registry, router: router}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// connState tracks the per-connection lifecycle.
type connState int

const (
	stateConnecting connState = iota
	stateAuthenticated
	stateClosed
)

// signal is the inbound frame shape accepted on a live connection.
type signal struct {
	Type     string `json:"type"`
	UserID   string `json:"user_id,omitempty"`
	Receiver string `json:"receiver,omitempty"`
}

// Handle upgrades the request and runs the connection until the transport
// closes.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messaging-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      uuid.NewString(),
		DeviceID:    observability.ClientDevice(c.Request),
		IP:          observability.ClientIP(c.Request),
		RequestID:   observability.ClientRequestID(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	publishLifecycle(ctx, "ws_connect", info, "")

	// The request context is canceled once this handler returns; the read
	// loop outlives it and still publishes disconnect events.
	go g.readLoop(context.WithoutCancel(ctx), sock, info)
}

// readLoop drives the per-connection state machine:
// Connecting -> Authenticated -> Closed. An unauthenticated connection
// accepts exactly one authenticate signal; after the transport closes no
// further signals are accepted.
func (g *Gateway) readLoop(ctx context.Context, sock *websocket.Conn, info ConnInfo) {
	sess := &session{
		registry: g.registry,
		router:   g.router,
		conn:     newConn(info.ConnID, sock),
	}

	var closeReason string
	defer func() {
		sess.close()
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		info.UserID = sess.userID
		publishLifecycle(ctx, "ws_disconnect", info, closeReason)
		sock.Close()
	}()

	for {
		var sig signal
		if err := sock.ReadJSON(&sig); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				info.UserID = sess.userID
				publishLifecycle(ctx, "ws_error", info, closeReason)
			}
			return
		}
		sess.handleSignal(sig)
	}
}

// session is the gateway-side state of one live connection.
type session struct {
	registry *presence.Registry
	router   *delivery.Router
	conn     presence.Conn
	state    connState
	userID   string
}

func (s *session) handleSignal(sig signal) {
	if s.state == stateClosed {
		return
	}

	switch sig.Type {
	case "authenticate":
		if s.state != stateConnecting || sig.UserID == "" {
			return
		}
		// The asserted id is trusted at face value: the live channel
		// carries no cross-check against the request-layer token. Any
		// connection can claim any user id.
		s.userID = sig.UserID
		s.state = stateAuthenticated
		s.registry.Register(s.userID, s.conn)
		log.Printf("ws authenticated user=%s conn=%s", s.userID, s.conn.ID())
	case models.EventTyping, models.EventStoppedTyping:
		if s.state != stateAuthenticated || sig.Receiver == "" {
			return
		}
		s.router.RouteTyping(models.TypingEvent(sig.Type, s.userID, sig.Receiver), sig.Receiver)
	}
}

// close unregisters the connection, guarding against a newer registration
// for the same user, and stops accepting signals.
func (s *session) close() {
	if s.state == stateAuthenticated {
		s.registry.Unregister(s.userID, s.conn)
	}
	s.state = stateClosed
}

func publishLifecycle(ctx context.Context, event string, info ConnInfo, reason string) {
	durationMs := int64(0)
	if event != "ws_connect" {
		durationMs = time.Since(info.ConnectedAt).Milliseconds()
	}
	_ = observability.PublishEvent(ctx, wsRoutingKey, observability.LifecycleEvent{
		Kind: "ws_events",
		Name: event,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"event":       event,
				"conn_id":     info.ConnID,
				"duration_ms": durationMs,
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id":   info.UserID,
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	}, observability.CorrelationHeaders(info.RequestID, info.TraceID))
}
