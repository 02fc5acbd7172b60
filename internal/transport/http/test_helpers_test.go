package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/access"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/auth"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/config"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/log"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/service/screening"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/service/teams"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/service/workspace"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store/sqlite"
)

type testServer struct {
	ts     *httptest.Server
	router *core.Router
}

type frame struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := log.Nop()
	router := core.NewRouter(st, core.WithLogger(logger))
	gate := access.NewGate(st, logger)

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}, nil)

	svc := Services{
		Teams:     teams.NewService(st, router, nil, logger),
		Screening: screening.NewService(st, gate, router, logger),
		Workspace: workspace.NewService(st, gate, router, logger),
	}

	cfg := config.Default()
	cfg.Addr = ":0"
	server := NewServer(router, authService, svc, cfg, logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testServer{ts: ts, router: router}
}

// register creates a user and returns its token and ID.
func (s *testServer) register(t *testing.T, username string) (string, int64) {
	t.Helper()
	var resp AuthResponse
	s.mustDo(t, stdhttp.MethodPost, "/api/register", "", auth.Credentials{Username: username, Password: "secret123"}, stdhttp.StatusCreated, &resp)
	return resp.Token, resp.User.ID
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := stdhttp.NewRequest(method, s.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

// mustDo performs the request, checks the status and decodes the body into out when set.
func (s *testServer) mustDo(t *testing.T, method, path, token string, body any, want int, out any) {
	t.Helper()
	status, data := s.do(t, method, path, token, body)
	if status != want {
		t.Fatalf("%s %s: status %d, want %d (body %s)", method, path, status, want, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
}

func (s *testServer) dial(ctx context.Context, t *testing.T, token string) *websocket.Conn {
	t.Helper()
	wsURL := strings.Replace(s.ts.URL, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func readFrame(ctx context.Context, t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	var f frame
	if err := wsjson.Read(ctx, conn, &f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func decodePayload(t *testing.T, f frame, out any) {
	t.Helper()
	if err := json.Unmarshal(f.Payload, out); err != nil {
		t.Fatalf("decode %s payload: %v", f.Type, err)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
