package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"ekehi_engine/internal/logger"
	"ekehi_engine/internal/service"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

// Smoke test against a running server: opens the event stream, watches an ad
// over the API and prints every event that arrives.
func main() {
	_ = godotenv.Load()
	logger.Init("info", false)
	defer logger.Sync()

	userID := flag.Int64("id", 3001, "user id")
	wait := flag.Duration("wait", 3*time.Second, "how long to read events")
	flag.Parse()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET not set")
	}
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	service.InitJWT(jwtSecret)
	token, err := service.GenerateJWT(*userID, "smoke", time.Hour)
	if err != nil {
		logger.Fatal("gen token", "error", err)
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := "127.0.0.1:" + port
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws?token=%s", base, token), nil)
	if err != nil {
		logger.Fatal("dial ws", "error", err)
	}
	defer conn.Close()

	events := make(chan map[string]any, 16)
	go func() {
		defer close(events)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var obj map[string]any
			if json.Unmarshal(msg, &obj) == nil {
				events <- obj
			}
		}
	}()

	client := &http.Client{Timeout: 5 * time.Second}
	call := func(method, path string) {
		req, _ := http.NewRequest(method, "http://"+base+path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		res, err := client.Do(req)
		if err != nil {
			logger.Fatal("api call failed", "path", path, "error", err)
		}
		defer res.Body.Close()
		body, _ := io.ReadAll(res.Body)
		logger.Info("api", "method", method, "path", path, "status", res.StatusCode, "body", string(body))
	}

	call(http.MethodGet, "/api/v1/me")
	call(http.MethodPost, "/api/v1/ads/watched")
	call(http.MethodPost, "/api/v1/mining/session/start")

	timeout := time.After(*wait)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				logger.Warn("ws closed")
				return
			}
			logger.Info("event", "type", ev["type"], "payload", ev["payload"])
		case <-timeout:
			logger.Info("smoke test finished")
			return
		}
	}
}
