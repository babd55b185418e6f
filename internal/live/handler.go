package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/diagramdive/internal/api"
	"github.com/ziadkadry99/diagramdive/internal/deepdive"
	"github.com/ziadkadry99/diagramdive/internal/lifecycle"
	"github.com/ziadkadry99/diagramdive/internal/markdown"
	"github.com/ziadkadry99/diagramdive/internal/render"
	"github.com/ziadkadry99/diagramdive/internal/selection"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Options configures a Handler.
type Options struct {
	// SessionTTL is how long an idle session survives without a connection.
	SessionTTL time.Duration
	// RequestTimeout bounds each generate or ask request.
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// Handler serves the session websocket.
type Handler struct {
	registry *Registry
	timeout  time.Duration
	log      *zap.Logger
}

// NewHandler creates a websocket handler running sessions against svc.
func NewHandler(svc api.Service, engines *render.Loader, opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Minute
	}
	md := markdown.New()
	return &Handler{
		registry: NewRegistry(opts.SessionTTL, func(id string) *Client {
			return NewClient(id, svc, engines, md, log)
		}),
		timeout: opts.RequestTimeout,
		log:     log,
	}
}

// Registry exposes the live sessions.
func (h *Handler) Registry() *Registry { return h.registry }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	client, resumed := h.registry.Resume(r.URL.Query().Get("session"))
	h.log.Info("session connected", zap.String("session", client.ID), zap.Bool("resumed", resumed))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	out := newOutbox()
	client.attach(out)
	defer client.detach(out)

	go h.writeLoop(ctx, cancel, conn, out)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read", zap.Error(err))
			}
			return
		}
		h.registry.Touch(client)

		var req Request
		if err := json.Unmarshal(msg, &req); err != nil {
			out.Push(Message{Type: MsgInvalid, Text: "invalid message format"})
			continue
		}

		if req.Blocking() {
			// In-flight requests outlive the connection so a reconnecting
			// page still sees their outcome.
			go h.handle(context.WithoutCancel(ctx), client, out, req)
			continue
		}
		h.handle(ctx, client, out, req)
	}
}

func (h *Handler) handle(ctx context.Context, client *Client, out *outbox, req Request) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	err := client.Handle(ctx, req)
	switch {
	case err == nil:
	case errors.Is(err, selection.ErrStaleElement), errors.Is(err, ErrUnknownRequest):
		out.Push(Message{Type: MsgInvalid, Text: err.Error()})
	case reported(err):
		h.log.Debug("request finished", zap.String("type", req.Type), zap.Error(err))
	default:
		h.log.Warn("request failed", zap.String("type", req.Type), zap.Error(err))
	}
}

// reported reports whether the controllers already told the view about err,
// or deliberately stayed silent.
func reported(err error) bool {
	var f *lifecycle.Failure
	return errors.As(err, &f) ||
		errors.Is(err, lifecycle.ErrEmptyQuery) ||
		errors.Is(err, lifecycle.ErrSuperseded) ||
		errors.Is(err, deepdive.ErrNothingToAsk) ||
		errors.Is(err, deepdive.ErrStale) ||
		errors.Is(err, api.ErrServiceFailure) ||
		errors.Is(err, api.ErrTransport) ||
		errors.Is(err, api.ErrMalformedResponse)
}

func (h *Handler) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, out *outbox) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-out.Ready():
			for _, m := range out.Drain() {
				if err := conn.WriteJSON(m); err != nil {
					h.log.Warn("websocket write", zap.Error(err))
					return
				}
			}
		}
	}
}
