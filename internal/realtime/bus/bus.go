package bus

import (
	"context"

	"github.com/yungbote/detailpage-backend/internal/platform/logger"
	"github.com/yungbote/detailpage-backend/internal/realtime"
)

// Bus relays SSE messages between API instances.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}

// Emitter publishes through the bus and falls back to the local hub when
// publishing fails, so events still reach clients on this instance.
type Emitter struct {
	bus Bus
	hub *realtime.SSEHub
	log *logger.Logger
}

func NewEmitter(b Bus, hub *realtime.SSEHub, log *logger.Logger) *Emitter {
	return &Emitter{bus: b, hub: hub, log: log.With("component", "BusEmitter")}
}

func (e *Emitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	if err := e.bus.Publish(ctx, msg); err != nil {
		e.log.Warn("SSE bus publish failed; delivering locally", "channel", msg.Channel, "event", msg.Event, "error", err)
		e.hub.Broadcast(msg)
	}
}
