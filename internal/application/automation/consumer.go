package automation

import (
	"context"
	"time"

	"github.com/google/uuid"
	syncapp "github.com/markethub/backend/internal/application/sync"
	"github.com/markethub/backend/internal/domain/sync"
	"go.uber.org/zap"
)

// consumerEventTimeout bounds one HandleEvent evaluation
const consumerEventTimeout = 30 * time.Second

// FeedSource hands out change event subscriptions. Satisfied by
// sync.RealtimeService.
type FeedSource interface {
	Subscribe() *syncapp.Subscriber
	Unsubscribe(id uuid.UUID)
}

// Consumer drains realtime change events into the engine so rules
// with an event trigger fire against the document that changed.
type Consumer struct {
	source FeedSource
	engine *Engine
	logger *zap.Logger

	sub  *syncapp.Subscriber
	done chan struct{}
}

// NewConsumer creates a stopped change feed consumer
func NewConsumer(source FeedSource, engine *Engine, logger *zap.Logger) *Consumer {
	return &Consumer{source: source, engine: engine, logger: logger}
}

// Start subscribes to the feed and begins evaluating events
func (c *Consumer) Start() {
	c.sub = c.source.Subscribe()
	c.done = make(chan struct{})
	go c.run()
	c.logger.Info("Automation change feed consumer started")
}

// Stop unsubscribes and waits for the in-flight event to finish
func (c *Consumer) Stop() {
	if c.sub == nil {
		return
	}
	c.source.Unsubscribe(c.sub.ID)
	<-c.done
	c.logger.Info("Automation change feed consumer stopped")
}

func (c *Consumer) run() {
	defer close(c.done)
	for event := range c.sub.Events {
		eventType, ok := eventTypeFor(event)
		if !ok {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), consumerEventTimeout)
		c.engine.HandleEvent(ctx, eventType, event.EntityType, event.EntityID)
		cancel()
	}
}

// eventTypeFor maps a feed entry to the event type vocabulary rules
// are configured with, e.g. "product.updated" or "order.created".
func eventTypeFor(e sync.ChangeEvent) (string, bool) {
	switch e.Op {
	case sync.OpCreate:
		return e.EntityType + ".created", true
	case sync.OpUpdate:
		return e.EntityType + ".updated", true
	case sync.OpDelete:
		return e.EntityType + ".deleted", true
	}
	return "", false
}
