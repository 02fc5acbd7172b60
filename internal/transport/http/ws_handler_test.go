package http

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/proto"
)

// readUntil skips frames until one of type want arrives.
func readUntil(ctx context.Context, t *testing.T, conn *websocket.Conn, want core.EventType) frame {
	t.Helper()
	for {
		f := readFrame(ctx, t, conn)
		if f.Type == string(want) {
			return f
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := startTestServer(t)

	status, body := s.do(t, stdhttp.MethodGet, "/health", "", nil)
	if status != stdhttp.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected health response: %d %q", status, body)
	}
}

func TestWebSocketRequiresToken(t *testing.T) {
	s := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, query := range []string{"", "?token=garbage"} {
		wsURL := strings.Replace(s.ts.URL, "http", "ws", 1) + "/ws" + query
		conn, resp, err := websocket.Dial(ctx, wsURL, nil)
		if err == nil {
			conn.Close(websocket.StatusNormalClosure, "")
			t.Fatalf("dial %q: expected failure", query)
		}
		if resp == nil || resp.StatusCode != stdhttp.StatusUnauthorized {
			t.Fatalf("dial %q: expected 401, got %+v", query, resp)
		}
	}
}

func TestWebSocketConnectAndHeartbeat(t *testing.T) {
	s := startTestServer(t)
	token, userID := s.register(t, "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := s.dial(ctx, t, token)

	connected := readFrame(ctx, t, conn)
	if connected.Type != string(core.EventConnect) {
		t.Fatalf("first frame: got %s, want connect", connected.Type)
	}
	var cp core.ConnectPayload
	decodePayload(t, connected, &cp)
	if cp.UserID != userID || cp.ConnectionID == "" || cp.Queued != 0 {
		t.Fatalf("unexpected connect payload: %+v", cp)
	}
	if connected.Timestamp == 0 {
		t.Fatal("connect frame has no timestamp")
	}

	// unknown types and malformed frames are ignored
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: "typing"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeHeartbeat}); err != nil {
		t.Fatalf("write heartbeat: %v", err)
	}

	echo := readFrame(ctx, t, conn)
	if echo.Type != string(core.EventHeartbeat) {
		t.Fatalf("got %s, want heartbeat echo", echo.Type)
	}
	var hp core.HeartbeatPayload
	decodePayload(t, echo, &hp)
	if hp.ServerTime == 0 {
		t.Fatal("heartbeat echo carries no server time")
	}
}

func TestWebSocketDeliversQueuedEventsOnConnect(t *testing.T) {
	s := startTestServer(t)
	founderToken, _ := s.register(t, "founder")
	applicantToken, _ := s.register(t, "applicant")

	var post PostResponse
	s.mustDo(t, stdhttp.MethodPost, "/api/posts", founderToken, map[string]string{"kind": "startup", "title": "Rocket"}, stdhttp.StatusCreated, &post)
	var app ApplicationResponse
	s.mustDo(t, stdhttp.MethodPost, fmt.Sprintf("/api/posts/%d/applications", post.ID), applicantToken, map[string]string{"message": "hi"}, stdhttp.StatusCreated, &app)
	s.mustDo(t, stdhttp.MethodPost, fmt.Sprintf("/api/applications/%d/accept", app.ID), founderToken, nil, stdhttp.StatusOK, nil)

	var queue QueueResponse
	s.mustDo(t, stdhttp.MethodGet, "/api/presence/queue", applicantToken, nil, stdhttp.StatusOK, &queue)
	if queue.Queued != 1 {
		t.Fatalf("queued: got %d, want 1", queue.Queued)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := s.dial(ctx, t, applicantToken)

	connected := readFrame(ctx, t, conn)
	var cp core.ConnectPayload
	decodePayload(t, connected, &cp)
	if connected.Type != string(core.EventConnect) || cp.Queued != 1 {
		t.Fatalf("unexpected first frame: %s %+v", connected.Type, cp)
	}

	created := readFrame(ctx, t, conn)
	if created.Type != string(core.EventScreeningChatCreated) {
		t.Fatalf("got %s, want screening_chat_created", created.Type)
	}
	var chat proto.ScreeningChatCreated
	decodePayload(t, created, &chat)
	if chat.ApplicationID != app.ID || chat.PostTitle != "Rocket" {
		t.Fatalf("unexpected chat payload: %+v", chat)
	}

	s.mustDo(t, stdhttp.MethodGet, "/api/presence/queue", applicantToken, nil, stdhttp.StatusOK, &queue)
	if queue.Queued != 0 {
		t.Fatalf("queue not drained: %d", queue.Queued)
	}
}

func TestWebSocketLiveScreeningMessage(t *testing.T) {
	s := startTestServer(t)
	founderToken, founderID := s.register(t, "founder")
	applicantToken, _ := s.register(t, "applicant")

	var post PostResponse
	s.mustDo(t, stdhttp.MethodPost, "/api/posts", founderToken, map[string]string{"kind": "hackathon", "title": "Hack"}, stdhttp.StatusCreated, &post)
	var app ApplicationResponse
	s.mustDo(t, stdhttp.MethodPost, fmt.Sprintf("/api/posts/%d/applications", post.ID), applicantToken, nil, stdhttp.StatusCreated, &app)
	s.mustDo(t, stdhttp.MethodPost, fmt.Sprintf("/api/applications/%d/accept", app.ID), founderToken, nil, stdhttp.StatusOK, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := s.dial(ctx, t, applicantToken)

	s.mustDo(t, stdhttp.MethodPost, fmt.Sprintf("/api/screening/%d/messages", app.ID), founderToken, map[string]string{"body": "welcome"}, stdhttp.StatusCreated, nil)

	f := readUntil(ctx, t, conn, core.EventScreeningMessage)
	var msg proto.ScreeningMessage
	decodePayload(t, f, &msg)
	if msg.SenderID != founderID || msg.Body != "welcome" || msg.SenderName != "founder" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestWebSocketSupersededConnectionIsClosed(t *testing.T) {
	s := startTestServer(t)
	token, userID := s.register(t, "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := s.dial(ctx, t, token)
	readUntil(ctx, t, first, core.EventConnect)

	second := s.dial(ctx, t, token)
	readUntil(ctx, t, second, core.EventConnect)

	bye := readUntil(ctx, t, first, core.EventDisconnect)
	var dp core.DisconnectPayload
	decodePayload(t, bye, &dp)
	if dp.Reason != core.ReasonSuperseded {
		t.Fatalf("disconnect reason: got %q", dp.Reason)
	}

	var f frame
	err := wsjson.Read(ctx, first, &f)
	if status := websocket.CloseStatus(err); status != websocket.StatusGoingAway {
		t.Fatalf("expected going away close, got %v (%v)", status, err)
	}

	if !s.router.IsUserOnline(userID) {
		t.Fatal("replacement connection should stay online")
	}

	second.Close(websocket.StatusNormalClosure, "bye")
	waitFor(t, func() bool { return !s.router.IsUserOnline(userID) })
}
