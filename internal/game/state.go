package game

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/autokat/backend/internal/geom"
	"github.com/autokat/backend/internal/highscores"
	"github.com/autokat/backend/internal/tracking"
)

// State names as they appear in snapshots.
const (
	StateIntro     = "intro"
	StateCountdown = "countdown"
	StatePlaying   = "playing"
	StateGameOver  = "game_over"
)

// State is one phase of the session. Tick advances it and returns the state
// for the next tick, which may be the receiver itself.
//
// Implementations are Intro, Countdown, Playing and GameOver.
type State interface {
	json.Marshaler
	Name() string
	Tick(in TickInput) State
	sealed()
}

// TickInput is what a state sees each tick.
type TickInput struct {
	Pointers           tracking.Pointers
	Total              time.Duration // since the loop started
	DT                 time.Duration // since the previous tick
	SinceLastDetection time.Duration
}

// Leaderboard records final scores.
type Leaderboard interface {
	Add(ctx context.Context, team string, score int) (highscores.Entry, int, error)
	Top(n int) []highscores.Entry
}

// Env is shared by every state of a session.
type Env struct {
	Tuning Tuning
	Board  Leaderboard
	Rand   *rand.Rand
	Log    *zap.SugaredLogger

	field field
}

// NewEnv builds the environment for a field of the given size. A nil board
// keeps scores in memory only.
func NewEnv(size geom.Vec, tuning Tuning, board Leaderboard, r *rand.Rand, log *zap.SugaredLogger) *Env {
	if board == nil {
		board = highscores.NewBoard(context.Background(), nil, log)
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Env{Tuning: tuning, Board: board, Rand: r, Log: log, field: field{size: size}}
}

func (e *Env) Size() geom.Vec {
	return e.field.size
}

func (e *Env) pillar() Pillar {
	return Pillar{
		Position:        e.field.center(),
		Radius:          e.Tuning.PillarRadius,
		ForbiddenRadius: e.Tuning.ForbiddenRadius,
	}
}

// startLights are the light positions of a fresh session.
func (e *Env) startLights() (red, green geom.Vec) {
	c := e.field.center()
	off := geom.V(e.Tuning.LightOffset, 0)
	return c.Sub(off), c.Add(off)
}

func (e *Env) teamName() string {
	return TeamName(e.Rand)
}
