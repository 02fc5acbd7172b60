package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	user := flag.String("user", "smoke-tester", "username to register or log in with")
	password := flag.String("password", "smoke-secret", "password")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	token, err := session(ctx, *base, *user, *password)
	if err != nil {
		return err
	}

	wsURL := strings.Replace(*base, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeHeartbeat}); err != nil {
		return fmt.Errorf("send heartbeat: %w", err)
	}

	for {
		var frame struct {
			Type      string          `json:"type"`
			Payload   json.RawMessage `json:"payload"`
			Timestamp int64           `json:"timestamp"`
		}
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("Received: type=%s ts=%d payload=%s\n", frame.Type, frame.Timestamp, frame.Payload)

		if frame.Type == "heartbeat" {
			return nil
		}
	}
}

// session registers the user, falling back to login when the name is taken.
func session(ctx context.Context, base, user, password string) (string, error) {
	creds := map[string]string{"username": user, "password": password}
	token, status, err := postJSON(ctx, base+"/api/register", creds)
	if err != nil {
		return "", err
	}
	if status == http.StatusConflict {
		token, status, err = postJSON(ctx, base+"/api/login", creds)
		if err != nil {
			return "", err
		}
	}
	if token == "" {
		return "", fmt.Errorf("authentication failed with status %d", status)
	}
	return token, nil
}

func postJSON(ctx context.Context, url string, body any) (string, int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", 0, fmt.Errorf("marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	var out struct {
		Token string `json:"token"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return out.Token, resp.StatusCode, nil
}
