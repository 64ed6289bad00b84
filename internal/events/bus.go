// Package events defines the message-bus seam. Services publish domain
// change events fire-and-forget; a publish failure is the publisher's
// caller's problem to log, never to propagate.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Event names published by the account services.
const (
	EducatorSaveEvent           = "educators.save"
	EducatorUpdateEvent         = "educators.update"
	HealthProfessionalSave      = "healthprofessionals.save"
	HealthProfessionalUpdate    = "healthprofessionals.update"
	ChildrenGroupSaveEvent      = "childrengroups.save"
	ChildrenGroupUpdateEvent    = "childrengroups.update"
	ChildrenGroupDeleteEvent    = "childrengroups.delete"
	UserDeleteEvent             = "users.delete"
	UserPasswordUpdateEventName = "users.password-update"
)

// Event is the envelope every published message travels in.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"event_name"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New builds an envelope with a fresh id and the current time.
func New(eventType string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// Bus publishes events to the platform message bus.
type Bus interface {
	Publish(ctx context.Context, event Event) error
}

// RedisBus publishes events on Redis pub/sub channels, one channel per
// event type under a common prefix.
type RedisBus struct {
	client *redis.Client
	prefix string
}

func NewRedisBus(client *redis.Client, prefix string) *RedisBus {
	if prefix == "" {
		prefix = "account"
	}
	return &RedisBus{client: client, prefix: prefix}
}

func (b *RedisBus) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.prefix+"."+event.Type, data).Err()
}

// NoopBus discards events; tests and bus-less deployments use it.
type NoopBus struct{}

func (NoopBus) Publish(ctx context.Context, event Event) error { return nil }
