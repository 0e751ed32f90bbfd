package stream

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Hub fans accepted track points out to websocket subscribers of a
// recording. With Redis configured, points are also published so other
// nodes' subscribers see them.
type Hub struct {
	redis       *redis.Client
	log         *logrus.Entry
	subscribers map[string]map[*Subscriber]struct{}
	mu          sync.RWMutex
}

type Subscriber struct {
	RecordingID string
	Send        chan []byte
}

func NewHub(redisClient *redis.Client, log *logrus.Entry) *Hub {
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	h := &Hub{
		redis:       redisClient,
		log:         log,
		subscribers: map[string]map[*Subscriber]struct{}{},
	}

	if redisClient != nil {
		go h.forwardRedis()
	}
	return h
}

func (h *Hub) Subscribe(recordingID string) *Subscriber {
	sub := &Subscriber{
		RecordingID: recordingID,
		Send:        make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[recordingID] == nil {
		h.subscribers[recordingID] = map[*Subscriber]struct{}{}
	}
	h.subscribers[recordingID][sub] = struct{}{}
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.subscribers[sub.RecordingID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subscribers, sub.RecordingID)
		}
	}
	close(sub.Send)
}

// Publish delivers a payload to subscribers of a recording. With Redis
// the payload goes through pub/sub and loops back to local subscribers
// via forwardRedis, so every node delivers exactly once.
func (h *Hub) Publish(recordingID string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), channelFor(recordingID), payload).Err()
		if err == nil {
			return
		}
		h.log.WithError(err).Warn("redis publish failed, delivering locally only")
	}
	h.deliverLocal(recordingID, payload)
}

func (h *Hub) deliverLocal(recordingID string, payload []byte) {
	h.mu.RLock()
	subs := h.subscribers[recordingID]
	h.mu.RUnlock()

	for sub := range subs {
		select {
		case sub.Send <- payload:
		default:
		}
	}
}

func (h *Hub) forwardRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "recording:*:points")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliverLocal(recordingIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func channelFor(recordingID string) string {
	return "recording:" + recordingID + ":points"
}

// recording:{id}:points
func recordingIDFromChannel(ch string) string {
	const prefix = "recording:"
	const suffix = ":points"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
