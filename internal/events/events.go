// AngelaMos | 2026
// events.go

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/salexim/directory-backend/internal/config"
)

const (
	SubjectSignedUp      = "account.signed_up"
	SubjectAdded         = "account.added"
	SubjectDeleted       = "account.deleted"
	SubjectPasswordReset = "account.password_reset"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Envelope is the wire shape of every published event.
type Envelope struct {
	ID         string          `json:"id"`
	Subject    string          `json:"subject"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// AccountEvent is the payload for every account.* subject.
type AccountEvent struct {
	UserID   string `json:"userId"`
	Email    string `json:"email,omitempty"`
	UserType string `json:"userType,omitempty"`
	AddedBy  string `json:"addedBy,omitempty"`
}

type conn interface {
	Publish(subject string, data []byte) error
	IsConnected() bool
	Drain() error
}

type NATSPublisher struct {
	conn conn
	now  func() time.Time
}

func NewNATSPublisher(cfg config.NATSConfig) (*NATSPublisher, error) {
	nc, err := nats.Connect(
		cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return newNATSPublisher(nc), nil
}

func newNATSPublisher(c conn) *NATSPublisher {
	return &NATSPublisher{conn: c, now: time.Now}
}

func (p *NATSPublisher) Publish(_ context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", subject, err)
	}

	body, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Subject:    subject,
		OccurredAt: p.now().UTC(),
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", subject, err)
	}

	if err := p.conn.Publish(subject, body); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	return nil
}

// ErrDisconnected is reported by Ping while the client is reconnecting.
var ErrDisconnected = errors.New("nats connection is down")

func (p *NATSPublisher) Ping(context.Context) error {
	if !p.conn.IsConnected() {
		return ErrDisconnected
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }

// Emit publishes and logs failures. Account operations never fail
// because an event could not be delivered.
func Emit(ctx context.Context, p Publisher, subject string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, subject, payload); err != nil {
		slog.WarnContext(ctx, "event publish failed",
			"subject", subject,
			"error", err,
		)
	}
}
