package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/detailpage-backend/internal/platform/logger"
	"github.com/yungbote/detailpage-backend/internal/realtime"
)

type fakeBus struct {
	err       error
	published []realtime.SSEMessage
}

func (f *fakeBus) Publish(_ context.Context, msg realtime.SSEMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeBus) StartForwarder(context.Context, func(realtime.SSEMessage)) error { return nil }
func (f *fakeBus) Close() error { return nil }

func TestEmitterPublishesToBus(t *testing.T) {
	hub := realtime.NewSSEHub(logger.Nop())
	client := hub.NewSSEClient()
	hub.AddChannel(client, "c")

	fb := &fakeBus{}
	e := NewEmitter(fb, hub, logger.Nop())
	e.Emit(context.Background(), realtime.SSEMessage{Channel: "c", Event: realtime.SSEEventExportReady})

	if len(fb.published) != 1 {
		t.Fatalf("published: got=%d want=1", len(fb.published))
	}
	select {
	case msg := <-client.Outbound:
		t.Fatalf("local hub should only see messages via the forwarder, got %+v", msg)
	default:
	}
}

func TestEmitterFallsBackToHub(t *testing.T) {
	hub := realtime.NewSSEHub(logger.Nop())
	client := hub.NewSSEClient()
	hub.AddChannel(client, "c")

	e := NewEmitter(&fakeBus{err: errors.New("down")}, hub, logger.Nop())
	e.Emit(context.Background(), realtime.SSEMessage{Channel: "c", Event: realtime.SSEEventExportReady})

	select {
	case msg := <-client.Outbound:
		if msg.Event != realtime.SSEEventExportReady {
			t.Fatalf("event: got=%s", msg.Event)
		}
	case <-time.After(time.Second):
		t.Fatal("expected local delivery after publish failure")
	}
}

func TestNewRedisBusRequiresAddr(t *testing.T) {
	if _, err := NewRedisBus(context.Background(), logger.Nop(), RedisConfig{}); err == nil {
		t.Fatal("expected error without REDIS_ADDR")
	}
}
