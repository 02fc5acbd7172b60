package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/proto"
)

const writeTimeout = 10 * time.Second

var (
	errClosedByServer = errors.New("closed by server")
	errRateLimited    = errors.New("inbound rate limit exceeded")
	errSuperseded     = errors.New("connection superseded")
)

// Realtime is the part of the router a WebSocket session drives.
type Realtime interface {
	Connect(ctx context.Context, userID int64, ch core.Channel) *core.Connection
	Disconnect(ctx context.Context, userID int64, connID uuid.UUID) bool
	Heartbeat(userID int64, connID uuid.UUID) bool
}

// WSOptions tunes WebSocket sessions.
type WSOptions struct {
	MaxMessageBytes  int64
	InboundRateLimit int
	ChannelBuffer    int
}

// WSHandler upgrades authenticated HTTP connections and bridges them to the router.
type WSHandler struct {
	rt     Realtime
	tokens TokenValidator
	opts   WSOptions
	log    *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(rt Realtime, tokens TokenValidator, opts WSOptions, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{rt: rt, tokens: tokens, opts: opts, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = bearerToken(r.Header.Get("Authorization"))
	}
	if token == "" {
		stdhttp.Error(w, "authentication required", stdhttp.StatusUnauthorized)
		return
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws token rejected")
		stdhttp.Error(w, "invalid token", stdhttp.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()
	if h.opts.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.opts.MaxMessageBytes)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch := newWSChannel(h.opts.ChannelBuffer)
	errCh := make(chan error, 2)
	go func() {
		errCh <- h.writeLoop(ctx, conn, ch)
	}()

	userID := claims.UserID
	session := h.rt.Connect(ctx, userID, ch)
	logger := h.log.With().Int64("user_id", userID).Str("conn_id", session.ID.String()).Logger()

	go func() {
		errCh <- h.readLoop(ctx, conn, session, &logger)
	}()

	err = <-errCh
	cancel()
	<-errCh

	// refuse further events so the router queues them instead
	_ = ch.Close("connection closed")
	h.rt.Disconnect(context.WithoutCancel(r.Context()), userID, session.ID)

	if errors.Is(err, errClosedByServer) {
		return
	}

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			switch {
			case errors.Is(err, errRateLimited):
				status = websocket.StatusPolicyViolation
			case errors.Is(err, errSuperseded):
				status = websocket.StatusNormalClosure
			case status == websocket.StatusNormalClosure:
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			logger.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// readLoop handles inbound frames. Heartbeats refresh liveness; every other
// frame, including malformed JSON, is ignored.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Connection, logger *zerolog.Logger) error {
	limiter := newRateLimiter(h.opts.InboundRateLimit, time.Minute)
	limiter.startReset(ctx.Done())

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if !limiter.allow() {
			return errRateLimited
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			logger.Debug().Err(err).Msg("ignoring malformed frame")
			continue
		}

		switch inbound.Type {
		case proto.InboundTypeHeartbeat:
			if !h.rt.Heartbeat(session.UserID, session.ID) {
				return errSuperseded
			}
		default:
			logger.Debug().Str("type", inbound.Type).Msg("ignoring inbound frame")
		}
	}
}

// writeLoop sends router events to the socket. When the router closes the
// channel it flushes the buffer and closes the socket with the router's reason.
func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, ch *wsChannel) error {
	for {
		select {
		case msg := <-ch.out:
			if err := h.write(ctx, conn, msg); err != nil {
				return err
			}
		case <-ch.done:
			for {
				select {
				case msg := <-ch.out:
					if err := h.write(ctx, conn, msg); err != nil {
						return err
					}
				default:
					conn.Close(websocket.StatusGoingAway, ch.closeReason())
					return errClosedByServer
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) write(ctx context.Context, conn *websocket.Conn, msg core.BroadcastMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, toOutbound(msg)); err != nil {
		h.log.Debug().Err(err).Str("type", string(msg.Type)).Msg("write ws event")
		return err
	}
	return nil
}
