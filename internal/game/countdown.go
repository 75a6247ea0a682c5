package game

import (
	"encoding/json"
	"time"
)

// Countdown lets the players steer their lights before the ball appears.
type Countdown struct {
	StartAt time.Duration
	Playing *Playing
}

func newCountdown(startAt time.Duration, p *Playing) *Countdown {
	return &Countdown{StartAt: startAt, Playing: p}
}

func (*Countdown) sealed() {}

func (*Countdown) Name() string { return StateCountdown }

func (c *Countdown) Tick(in TickInput) State {
	c.Playing.followPointers(in.Pointers, in.DT)
	if in.Total > c.StartAt {
		c.Playing.spawnBall()
		return c.Playing
	}
	return c
}

// Remaining is the time left before the ball spawns at the given total time.
func (c *Countdown) Remaining(total time.Duration) time.Duration {
	if total >= c.StartAt {
		return 0
	}
	return c.StartAt - total
}

func (c *Countdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name         string   `json:"name"`
		StartAt      float64  `json:"start_at"`
		PlayingState *Playing `json:"playing_state"`
	}{
		Name:         StateCountdown,
		StartAt:      c.StartAt.Seconds(),
		PlayingState: c.Playing,
	})
}
