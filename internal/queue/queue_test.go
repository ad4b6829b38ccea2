package queue

import (
	"context"
	"testing"
	"time"
)

func TestSerializeRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  Message
	}{
		{"plain", Message{Type: "approved", Body: []byte("gp-1")}},
		{"empty body", Message{Type: "in", Body: []byte("")}},
		{"separator inside body", Message{Type: "out", Body: []byte("gp-1|extra")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := deserialize(serialize(tt.msg))
			if err != nil {
				t.Fatalf("deserialize() error: %v", err)
			}
			if got.Type != tt.msg.Type {
				t.Errorf("Type = %q, want %q", got.Type, tt.msg.Type)
			}
			if string(got.Body) != string(tt.msg.Body) {
				t.Errorf("Body = %q, want %q", got.Body, tt.msg.Body)
			}
		})
	}
}

// A payload without the separator keeps everything in Body; a stray
// Redis entry must not crash the consumer.
func TestDeserializeWithoutSeparator(t *testing.T) {
	t.Parallel()

	got, err := deserialize("no-separator-here")
	if err != nil {
		t.Fatalf("deserialize() error: %v", err)
	}
	if got.Type != "" {
		t.Errorf("Type = %q, want empty", got.Type)
	}
	if string(got.Body) != "no-separator-here" {
		t.Errorf("Body = %q, want the raw payload", got.Body)
	}
}

func TestInMemoryPublishConsume(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	want := []Message{
		{Type: "approved", Body: []byte("gp-1")},
		{Type: "out", Body: []byte("gp-1")},
	}
	for _, m := range want {
		if err := q.Publish(ctx, m); err != nil {
			t.Fatalf("Publish() error: %v", err)
		}
	}

	ch, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume() error: %v", err)
	}
	for i, w := range want {
		select {
		case got := <-ch:
			if got.Type != w.Type || string(got.Body) != string(w.Body) {
				t.Errorf("message[%d] = %+v, want %+v", i, got, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("received message after cancel, want closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("consume channel not closed after cancel")
	}
}

func TestInMemoryPublishCanceled(t *testing.T) {
	t.Parallel()

	q := NewInMemory(1)
	ctx := context.Background()
	if err := q.Publish(ctx, Message{Type: "approved"}); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	// Queue is full; a canceled context must unblock the publisher.
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if err := q.Publish(canceled, Message{Type: "rejected"}); err == nil {
		t.Error("Publish() on full queue with canceled context returned nil, want error")
	}
}
