package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/autokat/backend/internal/geom"
	"github.com/autokat/backend/internal/tracking"
)

// DetectionSink receives raw camera sightings.
type DetectionSink interface {
	Report(color tracking.Color, sensor geom.Vec) tracking.Detection
}

// detectionEvent is what the camera process publishes, in sensor coordinates.
type detectionEvent struct {
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

func decodeDetection(payload string) (tracking.Color, geom.Vec, error) {
	var ev detectionEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return 0, geom.Vec{}, fmt.Errorf("invalid detection payload: %w", err)
	}
	color, err := tracking.ParseColor(ev.Color)
	if err != nil {
		return 0, geom.Vec{}, err
	}
	if math.IsNaN(ev.X) || math.IsNaN(ev.Y) {
		return 0, geom.Vec{}, fmt.Errorf("invalid detection position (%v, %v)", ev.X, ev.Y)
	}
	return color, geom.V(ev.X, ev.Y), nil
}

// StartDetectionSubscriber feeds camera detections from a Redis channel into
// sink until ctx is cancelled.
func StartDetectionSubscriber(ctx context.Context, rdb *redis.Client, channel string, sink DetectionSink, log *zap.SugaredLogger) {
	if rdb == nil {
		log.Info("[WS] Redis client not set; detection subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, channel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Infof("[WS] %s subscriber started", channel)
		for {
			select {
			case <-ctx.Done():
				log.Infof("[WS] %s subscriber stopped", channel)
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				color, pos, err := decodeDetection(msg.Payload)
				if err != nil {
					log.Debugf("[WS] Dropping detection %q: %v", msg.Payload, err)
					continue
				}
				sink.Report(color, pos)
			}
		}
	}()
}

// RedisPublisher mirrors snapshots onto a Redis channel for out-of-process
// displays. Frames queue in a bounded buffer; when it is full new frames are
// dropped.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	queue   chan []byte
	log     *zap.SugaredLogger
}

func NewRedisPublisher(rdb *redis.Client, channel string, size int, log *zap.SugaredLogger) *RedisPublisher {
	if size <= 0 {
		size = 8
	}
	return &RedisPublisher{rdb: rdb, channel: channel, queue: make(chan []byte, size), log: log}
}

func (p *RedisPublisher) Broadcast(payload []byte) {
	select {
	case p.queue <- payload:
	default:
		p.log.Debugf("[WS] %s publish queue full, dropping frame", p.channel)
	}
}

// Run publishes queued frames until ctx is cancelled.
func (p *RedisPublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case payload := <-p.queue:
			if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil && ctx.Err() == nil {
				p.log.Warnf("[WS] Publish to %s failed: %v", p.channel, err)
			}
		}
	}
}
