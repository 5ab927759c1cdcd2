package stream

import (
	"context"
	"testing"
	"time"

	"advocacia.app/internal/store"
)

func TestPublishReachesSubscribers(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := s.Subscribe(ctx)
	b := s.Subscribe(ctx)
	s.Publish(store.Activity{ID: "a1", Acao: store.AcaoAgendamento})

	for _, ch := range []<-chan store.Activity{a, b} {
		select {
		case evt := <-ch:
			if evt.ID != "a1" {
				t.Fatalf("unexpected event: %+v", evt)
			}
		case <-time.After(time.Second):
			t.Fatalf("event not delivered")
		}
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := s.Subscribe(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			s.Publish(store.Activity{ID: "x"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a full subscriber")
	}
	if got := len(ch); got != subscriberBuffer {
		t.Fatalf("expected buffer of %d, got %d", subscriberBuffer, got)
	}
}

func TestCancelClosesChannel(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel not closed after cancel")
	}
	if n := s.Subscribers(); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
}
