package game

import (
	"encoding/json"
	"time"

	"github.com/autokat/backend/internal/geom"
	"github.com/autokat/backend/internal/tracking"
)

// Intro runs a self-playing demo round and waits for both players to put
// their pointers into the start boxes.
type Intro struct {
	env *Env

	Playing       *Playing          // demo round
	Synthetic     tracking.Pointers // scripted pointers steering the demo lights
	TeamName      string
	RedStartBox   geom.Polygon
	GreenStartBox geom.Polygon
	InRedBox      bool
	InGreenBox    bool

	ticks int
}

func newIntro(env *Env) *Intro {
	size := env.field.size
	c := env.field.center()
	red, green := env.startLights()

	demo := newPlaying(env, "", []int{0}, red, green, true)
	demo.spawnBall()

	off := geom.V(env.Tuning.DemoPointerOffset, 0)
	unit := size.X / 7
	side := 2 * unit
	top := (size.Y - side) / 2

	return &Intro{
		env:           env,
		Playing:       demo,
		Synthetic:     tracking.ScreenPointers(c.Sub(off), c.Add(off), time.Time{}),
		TeamName:      env.teamName(),
		RedStartBox:   geom.Rect(unit, top, side, side),
		GreenStartBox: geom.Rect(size.X-3*unit, top, side, side),
	}
}

func (*Intro) sealed() {}

func (*Intro) Name() string { return StateIntro }

func (i *Intro) Tick(in TickInput) State {
	i.aim()
	i.Playing.Tick(TickInput{Pointers: i.Synthetic, Total: in.Total, DT: in.DT})

	i.InRedBox = i.RedStartBox.Contains(in.Pointers.Get(tracking.Red).ScreenPosition)
	i.InGreenBox = i.GreenStartBox.Contains(in.Pointers.Get(tracking.Green).ScreenPosition)
	i.ticks++

	if i.InRedBox && i.InGreenBox {
		i.env.Log.Infof("[GAME] Team %q is starting", i.TeamName)
		p := newPlaying(i.env, i.TeamName, []int{0}, i.Playing.RedLight, i.Playing.GreenLight, false)
		return newCountdown(in.Total+i.env.Tuning.countdown(), p)
	}
	if i.ticks%i.env.Tuning.TeamNameEveryTicks == 0 {
		i.TeamName = i.env.teamName()
	}
	return i
}

// aim moves the scripted pointer nearest to the ball's predicted exit so its
// light sits behind the pillar, opposite the exit, while the ball is slow.
func (i *Intro) aim() {
	ball := i.Playing.Ball
	if ball == nil || ball.Velocity.Magnitude() >= i.env.Tuning.DemoAimMaxSpeed || ball.Velocity.IsZero() {
		return
	}

	f := i.env.field
	ahead := geom.Seg(ball.Position, ball.Position.Add(ball.Velocity.Normalize().Scale(2*f.diagonal())))
	pillar := i.Playing.Pillar

	for _, w := range f.walls() {
		exit, ok := ahead.Intersect(w.Segment)
		if !ok {
			continue
		}
		away := exit.Sub(pillar.Position)
		if away.IsZero() {
			continue
		}
		target := pillar.Position.Add(away.Normalize().Scale(-1.5 * pillar.ForbiddenRadius))

		nearest := tracking.Red
		if i.Synthetic.Get(tracking.Green).ScreenPosition.DistanceTo(target) <
			i.Synthetic.Get(tracking.Red).ScreenPosition.DistanceTo(target) {
			nearest = tracking.Green
		}
		i.Synthetic.Set(nearest, tracking.Detection{
			SensorPosition: target,
			ScreenPosition: target.Add(geom.V(3, 3)),
		})
	}
}

func (i *Intro) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name          string     `json:"name"`
		TeamName      string     `json:"team_name"`
		PlayingState  *Playing   `json:"playing_state"`
		RedStartBox   []geom.Vec `json:"red_start_box"`
		GreenStartBox []geom.Vec `json:"green_start_box"`
		InRedBox      bool       `json:"in_red_start_box"`
		InGreenBox    bool       `json:"in_green_start_box"`
	}{
		Name:          StateIntro,
		TeamName:      i.TeamName,
		PlayingState:  i.Playing,
		RedStartBox:   i.RedStartBox.Ring(),
		GreenStartBox: i.GreenStartBox.Ring(),
		InRedBox:      i.InRedBox,
		InGreenBox:    i.InGreenBox,
	})
}
