// Package events публикует события леджера для внешних потребителей (аудит, аналитика).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

type Type string

const (
	TypeTransfer     Type = "transfer"
	TypeConfiscation Type = "confiscation"
	TypeReset        Type = "reset"
	TypeRateChanged  Type = "rate_changed"
	TypeUserDisabled Type = "user_disabled"
	TypeUserEnabled  Type = "user_enabled"
)

// Event - уже зафиксированное изменение леджера
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       Type      `json:"type"`
	ActorID    string    `json:"actor_id"`
	TargetID   string    `json:"target_id,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Affected   int64     `json:"affected,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New создаёт событие с новым идентификатором
func New(t Type, actorID string, at time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		ActorID:    actorID,
		OccurredAt: at.UTC(),
	}
}

// Publisher отправляет события. Ошибка публикации не отменяет уже закоммиченную операцию.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop используется, когда шина событий не настроена
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Conn - часть *nats.Conn, нужная публикатору
type Conn interface {
	PublishMsg(m *nats.Msg) error
}

// NATSPublisher публикует события в субъекты вида <prefix>.<type>
type NATSPublisher struct {
	nc     Conn
	prefix string
}

func NewNATSPublisher(nc Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: prefix}
}

// Subject возвращает субъект NATS для типа события
func (p *NATSPublisher) Subject(t Type) string {
	return p.prefix + "." + string(t)
}

func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := nats.NewMsg(p.Subject(ev.Type))
	msg.Data = data
	// id события позволяет JetStream отбрасывать дубли
	msg.Header.Set(nats.MsgIdHdr, ev.ID.String())

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	return nil
}
