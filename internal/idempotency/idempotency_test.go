package idempotency

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemoryExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatalf("expected miss on empty store")
	}
	want := Response{Status: 201, Body: json.RawMessage(`{"success":true}`)}
	if err := m.Put(ctx, "k", want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := m.Get(ctx, "k")
	if err != nil || !ok || got.Status != 201 || string(got.Body) != `{"success":true}` {
		t.Fatalf("unexpected replay: %+v ok=%v err=%v", got, ok, err)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestRedisRoundTripAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	r, err := NewRedis("redis://"+mr.Addr(), time.Hour)
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer r.Close()
	ctx := context.Background()

	if err := r.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if _, ok, err := r.Get(ctx, "evt-1"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
	if err := r.Put(ctx, "evt-1", Response{Status: 200, Body: json.RawMessage(`{"cliente_id":"c1"}`)}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !mr.Exists("idem:evt-1") {
		t.Fatalf("expected prefixed key in redis")
	}
	got, ok, err := r.Get(ctx, "evt-1")
	if err != nil || !ok || got.Status != 200 {
		t.Fatalf("unexpected replay: %+v ok=%v err=%v", got, ok, err)
	}

	mr.FastForward(2 * time.Hour)
	if _, ok, _ := r.Get(ctx, "evt-1"); ok {
		t.Fatalf("expected key to expire")
	}
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	if _, err := NewRedis("not-a-url://", time.Minute); err == nil {
		t.Fatalf("expected error for invalid url")
	}
}
