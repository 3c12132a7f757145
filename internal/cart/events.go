package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tallycart/tallycart-backend/pkg/logger"
)

// Cart lifecycle event names. Adding fires before persistence, the rest
// after the write has committed.
const (
	EventItemAdding  = "cart.item.adding"
	EventItemAdded   = "cart.item.added"
	EventItemUpdated = "cart.item.updated"
	EventItemDeleted = "cart.item.deleted"
	EventCleared     = "cart.cleared"
)

// Event is one cart lifecycle notification.
type Event struct {
	Name       string    `json:"name"`
	Identity   string    `json:"identity"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Notifier fans cart events out to interested consumers. Delivery is
// fire-and-forget; implementations must never fail the triggering write.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

type eventPublisher interface {
	Publish(ctx context.Context, data []byte, attributes map[string]string) error
}

// PubSubNotifier publishes events to the cart events topic.
type PubSubNotifier struct {
	publisher eventPublisher
	logg      *logger.Logger
}

func NewPubSubNotifier(publisher eventPublisher, logg *logger.Logger) *PubSubNotifier {
	return &PubSubNotifier{publisher: publisher, logg: logg}
}

type eventEnvelope struct {
	Version    string    `json:"version"`
	EventID    string    `json:"event_id"`
	Name       string    `json:"name"`
	Identity   string    `json:"identity"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func (n *PubSubNotifier) Notify(ctx context.Context, event Event) {
	if n.publisher == nil {
		return
	}
	envelope := eventEnvelope{
		Version:    "1",
		EventID:    uuid.NewString(),
		Name:       event.Name,
		Identity:   event.Identity,
		OccurredAt: event.OccurredAt,
		Data:       event.Data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		n.logError(ctx, event.Name, err)
		return
	}
	attributes := map[string]string{
		"event":    event.Name,
		"identity": event.Identity,
	}
	if err := n.publisher.Publish(ctx, payload, attributes); err != nil {
		n.logError(ctx, event.Name, err)
	}
}

func (n *PubSubNotifier) logError(ctx context.Context, name string, err error) {
	if n.logg == nil {
		return
	}
	n.logg.Error(n.logg.WithField(ctx, "event", name), "publishing cart event failed", err)
}

// NopNotifier drops all events. Used when no events topic is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}
