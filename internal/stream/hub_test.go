package stream

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubLocalPublish(t *testing.T) {
	hub := NewHub(nil, nil)
	sub := hub.Subscribe("rec-1")
	defer hub.Unsubscribe(sub)

	hub.Publish("rec-1", []byte("point"))

	select {
	case msg := <-sub.Send:
		if string(msg) != "point" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestUnsubscribeCloses(t *testing.T) {
	hub := NewHub(nil, nil)
	sub := hub.Subscribe("rec-2")
	hub.Unsubscribe(sub)
	if _, ok := <-sub.Send; ok {
		t.Fatalf("expected channel closed")
	}
}

func TestUnsubscribeReleasesIdleDrainer(t *testing.T) {
	hub := NewHub(nil, nil)
	sub := hub.Subscribe("rec-3")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range sub.Send {
		}
	}()

	// No publishes: the drainer must still exit once unsubscribed.
	hub.Unsubscribe(sub)

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("drainer still blocked after unsubscribe")
	}
}

func TestChannelHelpers(t *testing.T) {
	ch := channelFor("abc")
	if recordingIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected recording id")
	}
	if recordingIDFromChannel("bad") != "" {
		t.Fatalf("expected empty recording id")
	}
}

func TestHubRedisRoundTrip(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client, nil)
	sub := hub.Subscribe("rec-redis")
	defer hub.Unsubscribe(sub)

	// give forwardRedis time to establish the pattern subscription
	time.Sleep(20 * time.Millisecond)
	hub.Publish("rec-redis", []byte("ping"))

	select {
	case msg := <-sub.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for redis round trip")
	}
}

func TestHubRedisDownFallsBackLocally(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	s.Close()
	defer client.Close()

	hub := NewHub(client, nil)
	sub := hub.Subscribe("rec-down")
	defer hub.Unsubscribe(sub)

	hub.Publish("rec-down", []byte("still-here"))

	select {
	case msg := <-sub.Send:
		if string(msg) != "still-here" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("expected local fallback delivery")
	}
}
