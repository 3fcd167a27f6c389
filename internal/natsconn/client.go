// Package natsconn owns the core NATS connection. Wire framing,
// reconnection and authentication live here; the JetStream engine only
// issues requests on the connection it is handed.
package natsconn

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/shubhamrasal/jsq/internal/config"
)

// Client wraps the NATS connection.
type Client struct {
	conn *nats.Conn
}

// NewClient connects to the server described by the context.
func NewClient(ctx *config.Context) (*Client, error) {
	opts := []nats.Option{
		nats.Timeout(10 * time.Second),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("NATS reconnected", "server", nc.ConnectedUrl())
		}),
	}

	if ctx.Token != "" {
		opts = append(opts, nats.Token(ctx.Token))
	}
	if ctx.Creds != "" {
		opts = append(opts, nats.UserCredentials(ctx.Creds))
	}

	nc, err := nats.Connect(ctx.Server, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Client{conn: nc}, nil
}

// Conn exposes the underlying connection for the JetStream engine.
func (c *Client) Conn() *nats.Conn {
	return c.conn
}

// Close closes the NATS connection.
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// IsConnected returns true if the client is connected to NATS.
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Ping checks if the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}

	done := make(chan error, 1)
	go func() {
		done <- c.conn.FlushTimeout(2 * time.Second)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
