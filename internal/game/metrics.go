package game

import "sync/atomic"

// LoopMetrics counts what the tick loop did, for the metrics endpoint.
type LoopMetrics struct {
	TickCount      int64
	TotalTickNs    int64
	MaxTickNs      int64
	EncodeFailures int64
	Transitions    int64
	ScoresRecorded int64
	BytesBroadcast int64
}

func (m *LoopMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
	for {
		cur := atomic.LoadInt64(&m.MaxTickNs)
		if ns <= cur || atomic.CompareAndSwapInt64(&m.MaxTickNs, cur, ns) {
			return
		}
	}
}

func (m *LoopMetrics) IncEncodeFailure()  { atomic.AddInt64(&m.EncodeFailures, 1) }
func (m *LoopMetrics) IncTransition()     { atomic.AddInt64(&m.Transitions, 1) }
func (m *LoopMetrics) IncScoreRecorded()  { atomic.AddInt64(&m.ScoresRecorded, 1) }
func (m *LoopMetrics) AddBroadcast(n int) { atomic.AddInt64(&m.BytesBroadcast, int64(n)) }

// Snapshot returns a read-only copy for HTTP output.
func (m *LoopMetrics) Snapshot() map[string]any {
	ticks := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if ticks > 0 {
		avgMs = float64(total) / float64(ticks) / 1e6
	}
	return map[string]any{
		"tick_count":      ticks,
		"avg_tick_ms":     avgMs,
		"max_tick_ms":     float64(atomic.LoadInt64(&m.MaxTickNs)) / 1e6,
		"encode_failures": atomic.LoadInt64(&m.EncodeFailures),
		"transitions":     atomic.LoadInt64(&m.Transitions),
		"scores_recorded": atomic.LoadInt64(&m.ScoresRecorded),
		"bytes_broadcast": atomic.LoadInt64(&m.BytesBroadcast),
	}
}
