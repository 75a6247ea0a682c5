package game

import (
	"time"

	"github.com/autokat/backend/internal/geom"
	"github.com/autokat/backend/internal/tracking"
)

// PointerSource is the tracker as seen by the game.
type PointerSource interface {
	LatestDetections() tracking.Pointers
	SinceLastDetection() time.Duration
	Calibration() tracking.Calibration
}

// Game drives the session state machine. It has no timer of its own; the
// caller supplies the clock on every Tick.
type Game struct {
	env     *Env
	tracker PointerSource
	state   State
}

func NewGame(env *Env, tracker PointerSource) *Game {
	return &Game{env: env, tracker: tracker, state: newIntro(env)}
}

func (g *Game) State() State {
	return g.state
}

func (g *Game) Size() geom.Vec {
	return g.env.Size()
}

// Snapshot is one broadcast frame. It references the live state, so it must
// be encoded before the next Tick.
type Snapshot struct {
	Type        string               `json:"type"`
	State       State                `json:"state"`
	Calibration tracking.Calibration `json:"calibration"`
	Debug       Debug                `json:"debug"`
	Time        float64              `json:"time"`
}

type Debug struct {
	RedPosition        geom.Vec `json:"red_position"`
	GreenPosition      geom.Vec `json:"green_position"`
	SinceLastDetection float64  `json:"since_last_detection"`
}

// Tick advances the active state by dt at total time since start.
func (g *Game) Tick(total, dt time.Duration) Snapshot {
	pointers := g.tracker.LatestDetections()
	since := g.tracker.SinceLastDetection()

	g.state = g.state.Tick(TickInput{
		Pointers:           pointers,
		Total:              total,
		DT:                 dt,
		SinceLastDetection: since,
	})

	return Snapshot{
		Type:        "state",
		State:       g.state,
		Calibration: g.tracker.Calibration(),
		Debug: Debug{
			RedPosition:        pointers.Get(tracking.Red).ScreenPosition,
			GreenPosition:      pointers.Get(tracking.Green).ScreenPosition,
			SinceLastDetection: since.Seconds(),
		},
		Time: total.Seconds(),
	}
}
