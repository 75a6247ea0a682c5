package game

import (
	"encoding/json"
	"math"
	"time"

	"github.com/autokat/backend/internal/geom"
	"github.com/autokat/backend/internal/tracking"
)

const eps = 1e-9

// Playing is an active round. The ball is nil until spawned.
type Playing struct {
	env *Env

	TeamName   string
	Scores     []int // one entry per round, the last is the current round
	RedLight   geom.Vec
	GreenLight geom.Vec
	LightSpeed float64
	Pillar     Pillar
	Ball       *Ball
	RedCone    Cone
	GreenCone  Cone
	MaxLives   int
	DemoMode   bool // a demo round respawns the ball on a miss and never ends
}

func newPlaying(env *Env, team string, scores []int, red, green geom.Vec, demo bool) *Playing {
	p := &Playing{
		env:        env,
		TeamName:   team,
		Scores:     scores,
		LightSpeed: env.Tuning.LightSpeed,
		Pillar:     env.pillar(),
		MaxLives:   env.Tuning.MaxLives,
		DemoMode:   demo,
	}
	if demo {
		p.LightSpeed = env.Tuning.DemoLightSpeed
	}
	p.RedLight, p.RedCone = p.placeLight(red, red, 0)
	p.GreenLight, p.GreenCone = p.placeLight(green, green, 0)
	return p
}

func (*Playing) sealed() {}

func (*Playing) Name() string { return StatePlaying }

// Score is the current round's score.
func (p *Playing) Score() int {
	return p.Scores[len(p.Scores)-1]
}

func (p *Playing) Tick(in TickInput) State {
	p.followPointers(in.Pointers, in.DT)
	if p.Ball == nil {
		return p
	}
	return p.advanceBall(in.Total, in.DT)
}

func (p *Playing) followPointers(pointers tracking.Pointers, dt time.Duration) {
	p.RedLight, p.RedCone = p.placeLight(p.RedLight, pointers.Get(tracking.Red).ScreenPosition, dt)
	p.GreenLight, p.GreenCone = p.placeLight(p.GreenLight, pointers.Get(tracking.Green).ScreenPosition, dt)
}

// placeLight moves light toward target by at most LightSpeed·dt, pushes it out
// of the forbidden zone and recomputes its cone. A non-finite target leaves
// the light where it is.
func (p *Playing) placeLight(light, target geom.Vec, dt time.Duration) (geom.Vec, Cone) {
	if !target.IsFinite() {
		target = light
	}
	next := light.Add(target.Sub(light).Truncate(p.LightSpeed * dt.Seconds()))

	diff := next.Sub(p.Pillar.Position)
	if diff.Magnitude() < 1 {
		diff = geom.V(1, 0)
	}
	if diff.Magnitude() < p.Pillar.ForbiddenRadius {
		next = p.pushOut(diff.Normalize())
	}
	return next, newCone(next, p.Pillar, p.env.field)
}

// pushOut places a light on the forbidden circle along dir, stepping outward
// one ulp at a time until rounding no longer leaves it inside.
func (p *Playing) pushOut(dir geom.Vec) geom.Vec {
	c := p.Pillar.Position
	next := c.Add(dir.Scale(p.Pillar.ForbiddenRadius))
	for next.DistanceTo(c) < p.Pillar.ForbiddenRadius {
		next.X = stepAway(next.X, dir.X)
		next.Y = stepAway(next.Y, dir.Y)
	}
	return next
}

func stepAway(v, dir float64) float64 {
	switch {
	case dir > 0:
		return math.Nextafter(v, math.Inf(1))
	case dir < 0:
		return math.Nextafter(v, math.Inf(-1))
	}
	return v
}

func (p *Playing) spawnBall() {
	p.Ball = &Ball{
		Position: p.env.field.center(),
		Velocity: geom.RandomUnit(p.env.Rand).Scale(p.env.Tuning.BallSpeed),
		Radius:   p.env.Tuning.BallRadius,
	}
}

// advanceBall moves the ball one step. The first wall the swept disc touches
// decides the outcome: inside a cone it bounces, otherwise the round is lost.
func (p *Playing) advanceBall(total, dt time.Duration) State {
	moved := p.Ball.moved(dt)

	for _, w := range p.env.field.walls() {
		// A ball leaving a wall cannot hit it.
		if p.Ball.Velocity.Dot(w.normal) >= 0 {
			continue
		}
		h0, h1, hit := w.CapsuleInterval(p.Ball.Position, moved.Position, p.Ball.Radius)
		if !hit {
			continue
		}
		rel, lit := p.litSpot(w.Segment, h0, h1)
		if !lit {
			return p.miss(total)
		}

		moved = moved.bounced(w.normal, 1-2*rel)
		moved.Position = p.env.field.mirrorInside(moved.Position, moved.Radius)
		moved.Velocity = moved.Velocity.Add(moved.Velocity.Normalize().Scale(p.env.Tuning.BounceBoost))
		p.Scores[len(p.Scores)-1]++
		break
	}

	p.Ball = &moved
	return p
}

// litSpot reports whether the wall stretch [h0,h1] lies wholly inside one
// cone, and where its midpoint falls across that cone's span on the wall
// (0 at the wall-parameter start of the span, 1 at the end).
func (p *Playing) litSpot(w geom.Segment, h0, h1 float64) (float64, bool) {
	for _, c := range [2]Cone{p.RedCone, p.GreenCone} {
		c0, c1, ok := c.Shape.ClipSegment(w)
		if !ok || h0 < c0-eps || h1 > c1+eps {
			continue
		}
		if c1-c0 < eps {
			return 0.5, true
		}
		return ((h0+h1)/2 - c0) / (c1 - c0), true
	}
	return 0, false
}

func (p *Playing) miss(total time.Duration) State {
	if p.DemoMode {
		p.spawnBall()
		return p
	}
	p.env.Log.Infof("[GAME] Team %q lost round %d with %d points", p.TeamName, len(p.Scores), p.Score())
	p.Ball = nil
	if len(p.Scores) >= p.MaxLives {
		return newGameOver(p.env, p.TeamName, p.Scores, total)
	}
	return newCountdown(total+p.env.Tuning.countdown(), p.nextRound())
}

// nextRound starts a fresh round for the same team, keeping the lights.
func (p *Playing) nextRound() *Playing {
	scores := make([]int, len(p.Scores), len(p.Scores)+1)
	copy(scores, p.Scores)
	return newPlaying(p.env, p.TeamName, append(scores, 0), p.RedLight, p.GreenLight, false)
}

func (p *Playing) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name       string   `json:"name"`
		TeamName   string   `json:"team_name"`
		Scores     []int    `json:"scores"`
		MaxLives   int      `json:"max_lives"`
		RedLight   geom.Vec `json:"red_light"`
		GreenLight geom.Vec `json:"green_light"`
		Pillar     Pillar   `json:"pillar"`
		Ball       *Ball    `json:"ball"`
		RedCone    Cone     `json:"red_cone"`
		GreenCone  Cone     `json:"green_cone"`
		DemoMode   bool     `json:"demo_mode"`
	}{
		Name:       StatePlaying,
		TeamName:   p.TeamName,
		Scores:     p.Scores,
		MaxLives:   p.MaxLives,
		RedLight:   p.RedLight,
		GreenLight: p.GreenLight,
		Pillar:     p.Pillar,
		Ball:       p.Ball,
		RedCone:    p.RedCone,
		GreenCone:  p.GreenCone,
		DemoMode:   p.DemoMode,
	})
}
