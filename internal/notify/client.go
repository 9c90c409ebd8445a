package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

const (
	streamName = "BOOKBUILDER_RUNS"
	kvBucket   = "bookbuilder-last-run"
)

// Publisher sends run events somewhere.
type Publisher interface {
	PublishRun(ctx context.Context, e RunEvent) error
}

// NATSClient publishes run events to a JetStream stream and keeps the last
// run per work and format in a key-value bucket.
type NATSClient struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	kv      jetstream.KeyValue
	subject string
}

// NewNATSClient connects and makes sure the stream and bucket exist.
func NewNATSClient(ctx context.Context, cfg config.NotifyConfig) (*NATSClient, error) {
	if cfg.NATSURL == "" {
		return nil, errors.New("notify.nats_url is not configured")
	}
	conn, err := nats.Connect(cfg.NATSURL, nats.Name("bookbuilder"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	c := &NATSClient{conn: conn, js: js, subject: cfg.Subject}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        streamName,
		Description: "bookbuilder run results",
		Subjects:    []string{cfg.Subject + ".>"},
		MaxAge:      30 * 24 * time.Hour,
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", streamName, err)
	}
	if err := c.initKVBucket(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("NATS client initialized for run notifications",
		slog.String("url", cfg.NATSURL),
		slog.String("subject", cfg.Subject))
	return c, nil
}

func (c *NATSClient) initKVBucket(ctx context.Context) error {
	kv, err := c.js.KeyValue(ctx, kvBucket)
	if err == nil {
		c.kv = kv
		return nil
	}
	kv, err = c.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      kvBucket,
		Description: "Last bookbuilder run per work and format",
		History:     5,
	})
	if err != nil {
		return fmt.Errorf("failed to create KV bucket: %w", err)
	}
	c.kv = kv
	slog.Info("Created KV bucket for last runs", slog.String("bucket", kvBucket))
	return nil
}

// PublishRun publishes e and records it as the last run for its key.
func (c *NATSClient) PublishRun(ctx context.Context, e RunEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := c.js.Publish(ctx, e.Subject(c.subject), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if e.Work != "" && e.Format != "" {
		if _, err := c.kv.Put(ctx, e.Key(), data); err != nil {
			return fmt.Errorf("failed to record last run: %w", err)
		}
	}
	slog.Debug("Published run event", logfields.RunID(e.RunID), slog.String("outcome", e.Outcome))
	return nil
}

// Close closes the NATS connection.
func (c *NATSClient) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}
