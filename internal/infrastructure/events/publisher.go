package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"applytrack/internal/bootstrap/logging"
	"applytrack/internal/domain/tracker"
	"applytrack/internal/errs"
	"applytrack/internal/ports"
)

// NATSPublisher publishes StatusChanged as JSON on one subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

var _ ports.StatusPublisher = (*NATSPublisher)(nil)

func NewNATSPublisher(ctx context.Context, url, subject string) (*NATSPublisher, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("nats url is required")
	}
	if strings.TrimSpace(subject) == "" {
		return nil, errors.New("nats subject is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "infrastructure.events"))
	conn, err := nats.Connect(
		url,
		nats.Name("applytrack"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logging.Warn(logCtx, "nats disconnected", slog.Any("err", errs.Loggable(err)))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logging.Info(logCtx, "nats reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, errs.Wrapf(err, "connect nats %s", url)
	}

	logging.Info(logCtx, "nats publisher connected", slog.String("subject", subject))
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

func (p *NATSPublisher) PublishStatusChanged(ctx context.Context, event tracker.StatusChanged) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errs.Wrap(err, "encode status changed")
	}

	msg := nats.NewMsg(p.subject)
	msg.Data = data
	msg.Header.Set("Application-Id", event.ApplicationID.String())
	msg.Header.Set("Status", string(event.Status))
	if err := p.conn.PublishMsg(msg); err != nil {
		return errs.Wrapf(err, "publish to %s", p.subject)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

var _ ports.StatusPublisher = NopPublisher{}

func (NopPublisher) PublishStatusChanged(context.Context, tracker.StatusChanged) error { return nil }

func (NopPublisher) Close() error { return nil }
