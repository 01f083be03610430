// Package natspub mirrors stream fragments onto NATS subjects so
// consumers that do not hold the HTTP connection (bots, session
// recorders) can follow a conversational search.
package natspub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/questera/webintel/internal/core/domain"
)

type Publisher struct {
	conn          *nats.Conn
	subjectPrefix string
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
}

func New(url, subjectPrefix string) (*Publisher, error) {
	return NewWithOptions(url, subjectPrefix, Options{})
}

func NewWithOptions(url, subjectPrefix string, options Options) (*Publisher, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	if subjectPrefix == "" {
		subjectPrefix = "webintel.stream"
	}

	conn, err := nats.Connect(
		url,
		nats.Name("webintel"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Publisher{
		conn:          conn,
		subjectPrefix: subjectPrefix,
	}, nil
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

func (p *Publisher) PublishFragment(_ context.Context, streamID string, fragment domain.StreamFragment) error {
	payload, err := json.Marshal(fragment)
	if err != nil {
		return fmt.Errorf("marshal fragment: %w", err)
	}
	if err := p.conn.Publish(p.subjectPrefix+"."+streamID, payload); err != nil {
		return fmt.Errorf("nats publish fragment: %w", err)
	}
	return nil
}
