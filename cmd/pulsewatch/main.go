// pulsewatch connects to a running marketpulse stream and prints each snapshot to console.
// Usage: go run ./cmd/pulsewatch --url ws://localhost:3000/api/stream
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/marketpulse/internal/model"
	"github.com/rickgao/marketpulse/internal/server"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
)

func main() {
	url := flag.String("url", "ws://localhost:3000/api/stream", "snapshot stream URL")
	verbose := flag.Bool("verbose", false, "print full snapshot JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	delay := reconnectBaseDelay
	for ctx.Err() == nil {
		err := watch(ctx, *url, *verbose, logger)
		if ctx.Err() != nil {
			break
		}
		logger.Warn("stream disconnected", "err", err, "retry_in", delay)

		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
		delay = min(delay*2, reconnectMaxDelay)
	}

	logger.Info("shutdown complete")
}

// watch reads snapshots until the connection fails or ctx ends.
func watch(ctx context.Context, url string, verbose bool, logger *slog.Logger) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Info("connected", "url", url)

	// Unblock ReadMessage on shutdown
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-done:
			return
		case <-ctx.Done():
		}
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg server.StreamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("undecodable message", "err", err)
			continue
		}
		if msg.Type != server.MessageTypeSnapshot {
			continue
		}

		if verbose {
			out, _ := json.MarshalIndent(msg.Data, "", "  ")
			fmt.Printf("[SNAPSHOT] %s\n", out)
			continue
		}
		printSnapshot(msg.Data)
	}
}

func printSnapshot(s model.Snapshot) {
	updated := "never"
	if s.LastUpdated != nil {
		updated = s.LastUpdated.Local().Format(time.DateTime)
	}
	fmt.Printf("[SNAPSHOT] updated=%s news=%d assets=%d alerts=%d refreshing=%t\n",
		updated, len(s.News), len(s.Assets), len(s.Alerts), s.IsRefreshing)

	for _, a := range s.Alerts {
		fmt.Printf("[ALERT] severity=%s confidence=%.2f horizon=%s title=%q assets=%v\n",
			a.Severity, a.Confidence, a.Horizon, a.Title, a.AssetRefs)
	}
}
