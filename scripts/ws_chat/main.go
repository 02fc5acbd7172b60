package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/proto"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	user := flag.String("user", "", "username")
	password := flag.String("password", "", "password")
	space := flag.Int64("space", 0, "Builder Space to chat in")
	heartbeat := flag.Duration("heartbeat", 20*time.Second, "heartbeat interval")
	flag.Parse()
	if *user == "" || *space <= 0 {
		return errors.New("-user and -space are required")
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	token, err := login(ctx, *base, *user, *password)
	if err != nil {
		return err
	}

	wsURL := strings.Replace(*base, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	fmt.Printf("Connected to %s as %s in space %d\n", *base, *user, *space)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()
	go heartbeatLoop(ctx, conn, *heartbeat)

	writeLoop(ctx, *base, token, *space)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				fmt.Println("server closed the connection")
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch f.Type {
		case "group_message":
			var msg proto.GroupMessage
			if err := json.Unmarshal(f.Payload, &msg); err != nil {
				log.Printf("unmarshal group_message: %v", err)
				continue
			}
			fmt.Printf("[space %d] %s: %s\n", msg.SpaceID, msg.SenderName, msg.Body)
		case "user_online", "user_offline":
			var p struct {
				UserID  int64 `json:"user_id"`
				SpaceID int64 `json:"space_id"`
			}
			if err := json.Unmarshal(f.Payload, &p); err == nil {
				fmt.Printf("[space %d] user %d is %s\n", p.SpaceID, p.UserID, strings.TrimPrefix(f.Type, "user_"))
			}
		case "heartbeat":
		default:
			fmt.Printf("event=%s payload=%s\n", f.Type, f.Payload)
		}
	}
}

func heartbeatLoop(ctx context.Context, conn *websocket.Conn, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeHeartbeat}); err != nil {
				log.Printf("heartbeat: %v", err)
				return
			}
		}
	}
}

func writeLoop(ctx context.Context, base, token string, space int64) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	url := fmt.Sprintf("%s/api/spaces/%d/messages", base, space)
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			status, _, err := post(ctx, url, token, map[string]string{"body": text})
			if err != nil {
				log.Printf("send error: %v", err)
				return
			}
			if status != http.StatusCreated {
				log.Printf("send rejected with status %d", status)
			}
		}
	}
}

func login(ctx context.Context, base, user, password string) (string, error) {
	status, body, err := post(ctx, base+"/api/login", "", map[string]string{"username": user, "password": password})
	if err != nil {
		return "", err
	}
	var out struct {
		Token string `json:"token"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Token == "" {
		return "", fmt.Errorf("login failed with status %d: %s", status, out.Error)
	}
	return out.Token, nil
}

func post(ctx context.Context, url, token string, body any) (int, []byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, buf.Bytes(), nil
}
