package api

import (
	"testing"
	"time"
)

func TestTokenBucketRefills(t *testing.T) {
	now := time.Unix(1000, 0)
	l := NewTokenBucket(2, 2)
	l.now = func() time.Time { return now }

	if !l.allow("a") || !l.allow("a") {
		t.Fatal("expected first two requests to pass")
	}
	if l.allow("a") {
		t.Error("expected third request to be limited")
	}
	if !l.allow("b") {
		t.Error("expected other clients to be unaffected")
	}

	now = now.Add(30 * time.Second)
	if !l.allow("a") {
		t.Error("expected a token after half a minute")
	}
	if l.allow("a") {
		t.Error("expected bucket to be empty again")
	}
}

func TestTokenBucketEvictsIdleClients(t *testing.T) {
	now := time.Unix(1000, 0)
	l := NewTokenBucket(2, 2)
	l.now = func() time.Time { return now }

	l.allow("a")
	l.allow("a")
	now = now.Add(30 * time.Second)
	l.allow("b")
	if len(l.state) != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", len(l.state))
	}

	// a has been idle for a full refill window, b has not.
	now = now.Add(45 * time.Second)
	if !l.allow("c") {
		t.Fatal("expected new client to pass")
	}
	if _, ok := l.state["a"]; ok {
		t.Error("expected idle client to be evicted")
	}
	if _, ok := l.state["b"]; !ok {
		t.Error("expected recent client to be kept")
	}

	if !l.allow("a") || !l.allow("a") {
		t.Error("expected evicted client to start with a full bucket")
	}
}
