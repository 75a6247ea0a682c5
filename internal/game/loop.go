package game

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const DefaultTickInterval = 30 * time.Millisecond

// Broadcaster receives every encoded snapshot. Broadcast must not block.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// Loop runs the game on a fixed cadence from a single goroutine.
type Loop struct {
	game         *Game
	interval     time.Duration
	broadcasters []Broadcaster
	metrics      *LoopMetrics
	log          *zap.SugaredLogger
	now          func() time.Time

	stateName atomic.Value // string
}

func NewLoop(g *Game, interval time.Duration, metrics *LoopMetrics, log *zap.SugaredLogger, broadcasters ...Broadcaster) *Loop {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if metrics == nil {
		metrics = &LoopMetrics{}
	}
	l := &Loop{
		game:         g,
		interval:     interval,
		broadcasters: broadcasters,
		metrics:      metrics,
		log:          log,
		now:          time.Now,
	}
	l.stateName.Store(g.State().Name())
	return l
}

func (l *Loop) Metrics() *LoopMetrics {
	return l.metrics
}

// StateName is the name of the active state, safe to call from any goroutine.
func (l *Loop) StateName() string {
	return l.stateName.Load().(string)
}

// Run ticks until ctx is cancelled. A tick in progress always completes.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	start := l.now()
	last := start
	l.log.Infof("[GAME] Tick loop started (interval=%s)", l.interval)

	for {
		select {
		case <-ctx.Done():
			l.log.Info("[GAME] Tick loop stopped")
			return nil
		case <-ticker.C:
			now := l.now()
			l.step(now.Sub(start), now.Sub(last))
			last = now
		}
	}
}

// step runs one tick and fans the snapshot out.
func (l *Loop) step(total, dt time.Duration) {
	began := time.Now()
	prev := l.game.State().Name()

	snap := l.game.Tick(total, dt)

	if name := snap.State.Name(); name != prev {
		l.metrics.IncTransition()
		if name == StateGameOver {
			l.metrics.IncScoreRecorded()
		}
		l.stateName.Store(name)
		l.log.Infof("[GAME] %s -> %s", prev, name)
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		l.metrics.IncEncodeFailure()
		l.log.Errorf("[GAME] Failed to encode snapshot: %v", err)
	} else {
		for _, b := range l.broadcasters {
			b.Broadcast(payload)
		}
		l.metrics.AddBroadcast(len(payload))
	}

	l.metrics.AddTick(time.Since(began).Nanoseconds())
}
