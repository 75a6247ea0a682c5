package game

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autokat/backend/internal/geom"
	"github.com/autokat/backend/internal/tracking"
)

const tick = 30 * time.Millisecond

func newTestEnv(t *testing.T) *Env {
	t.Helper()
	return NewEnv(geom.V(1024, 768), DefaultTuning(), nil, rand.New(rand.NewSource(7)), zap.NewNop().Sugar())
}

// Lights left and right of the pillar light the opposite side walls.
var (
	sideRed   = geom.V(312, 384)
	sideGreen = geom.V(712, 384)
	// Lights above and below the pillar leave the side walls dark.
	darkRed   = geom.V(512, 184)
	darkGreen = geom.V(512, 584)
)

func input(red, green geom.Vec, total time.Duration) TickInput {
	return TickInput{Pointers: tracking.ScreenPointers(red, green, time.Time{}), Total: total, DT: tick}
}

func TestBallMovesFreelyWithoutWallContact(t *testing.T) {
	env := newTestEnv(t)
	p := newPlaying(env, "Testers", []int{0}, sideRed, sideGreen, false)
	p.Ball = &Ball{Position: geom.V(512, 384), Velocity: geom.V(150, -40), Radius: 30}
	want := p.Ball.Position.Add(p.Ball.Velocity.Scale(tick.Seconds()))

	next := p.Tick(input(sideRed, sideGreen, time.Second))

	require.Same(t, p, next)
	assert.Equal(t, want, p.Ball.Position)
	assert.Equal(t, geom.V(150, -40), p.Ball.Velocity)
	assert.Equal(t, 0, p.Score())
}

func TestLitWallBounces(t *testing.T) {
	env := newTestEnv(t)
	p := newPlaying(env, "Testers", []int{0}, sideRed, sideGreen, false)
	p.Ball = &Ball{Position: geom.V(990, 384), Velocity: geom.V(150, 0), Radius: 30}
	before := p.Ball.Velocity.Magnitude()

	next := p.Tick(input(sideRed, sideGreen, time.Second))

	require.Same(t, p, next)
	require.NotNil(t, p.Ball)
	assert.Equal(t, 1, p.Score())
	assert.Greater(t, p.Ball.Velocity.Magnitude(), before)
	assert.Less(t, p.Ball.Velocity.X, 0.0, "ball should head back into the field")
	assert.InDelta(t, 0, p.Ball.Velocity.Y, 1e-9, "a hit at the middle of the cone adds no spin")
	assert.LessOrEqual(t, p.Ball.Position.X, 1024-30.0)
}

func TestOffCenterHitAddsSpin(t *testing.T) {
	tests := []struct {
		name  string
		y     float64
		wantY func(float64) bool
	}{
		// The red cone spans y≈294..474 on the right wall, centered on 384.
		{"below center turns further down", 420, func(vy float64) bool { return vy > 0 }},
		{"above center turns further up", 348, func(vy float64) bool { return vy < 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			p := newPlaying(env, "Testers", []int{0}, sideRed, sideGreen, false)
			p.Ball = &Ball{Position: geom.V(990, tt.y), Velocity: geom.V(150, 0), Radius: 30}

			p.Tick(input(sideRed, sideGreen, time.Second))

			require.Equal(t, 1, p.Score())
			assert.True(t, tt.wantY(p.Ball.Velocity.Y), "velocity %v", p.Ball.Velocity)
			assert.Less(t, p.Ball.Velocity.X, 0.0)
		})
	}
}

func TestBounceTurnsByOffset(t *testing.T) {
	right := geom.V(-1, 0)

	b := Ball{Velocity: geom.V(150, 0)}.bounced(right, 0.5)
	assert.InDelta(t, -150*math.Cos(math.Pi/8), b.Velocity.X, 1e-9)
	assert.InDelta(t, 150*math.Sin(math.Pi/8), b.Velocity.Y, 1e-9)

	b = Ball{Velocity: geom.V(150, 0)}.bounced(right, -0.5)
	assert.InDelta(t, -150*math.Sin(math.Pi/8), b.Velocity.Y, 1e-9)
}

func TestBounceKeepsPlainReflectionWhenTurnPointsIntoWall(t *testing.T) {
	right := geom.V(-1, 0)

	// Turning (-150,200) by -45° gives (35.4,247.5), back into the right wall.
	b := Ball{Velocity: geom.V(150, 200)}.bounced(right, 1)

	assert.Equal(t, geom.V(-150, 200), b.Velocity)
	assert.Greater(t, b.Velocity.Dot(right), 0.0)
}

func TestDarkWallMissStartsNextRound(t *testing.T) {
	env := newTestEnv(t)
	p := newPlaying(env, "Testers", []int{4}, darkRed, darkGreen, false)
	p.Ball = &Ball{Position: geom.V(990, 384), Velocity: geom.V(150, 0), Radius: 30}

	next := p.Tick(input(darkRed, darkGreen, 10*time.Second))

	cd, ok := next.(*Countdown)
	require.True(t, ok, "expected countdown, got %s", next.Name())
	assert.Nil(t, p.Ball)
	assert.Nil(t, cd.Playing.Ball)
	assert.Equal(t, []int{4, 0}, cd.Playing.Scores)
	assert.Equal(t, []int{4}, p.Scores, "the finished round keeps its own scores")
	assert.Equal(t, 15*time.Second, cd.StartAt)
	assert.Equal(t, "Testers", cd.Playing.TeamName)
}

func TestDemoMissRespawns(t *testing.T) {
	env := newTestEnv(t)
	p := newPlaying(env, "", []int{0}, darkRed, darkGreen, true)
	p.Ball = &Ball{Position: geom.V(990, 384), Velocity: geom.V(150, 0), Radius: 30}

	next := p.Tick(input(darkRed, darkGreen, time.Second))

	require.Same(t, p, next)
	require.NotNil(t, p.Ball)
	assert.Equal(t, env.Size().Scale(0.5), p.Ball.Position)
	assert.InDelta(t, env.Tuning.BallSpeed, p.Ball.Velocity.Magnitude(), 1e-9)
	assert.Equal(t, []int{0}, p.Scores)
}

func TestCountdownSpawnsBallAfterDelay(t *testing.T) {
	env := newTestEnv(t)
	start := 42 * time.Second
	cd := newCountdown(start+5*time.Second, newPlaying(env, "Testers", []int{0}, sideRed, sideGreen, false))

	still := cd.Tick(input(sideRed, sideGreen, start+4900*time.Millisecond))
	require.Same(t, cd, still)
	assert.Nil(t, cd.Playing.Ball)

	next := cd.Tick(input(sideRed, sideGreen, start+5100*time.Millisecond))
	p, ok := next.(*Playing)
	require.True(t, ok, "expected playing, got %s", next.Name())
	require.NotNil(t, p.Ball)
	assert.Equal(t, geom.V(512, 384), p.Ball.Position)
	assert.InDelta(t, env.Tuning.BallSpeed, p.Ball.Velocity.Magnitude(), 1e-9)
}

func TestGameOverAfterMaxLives(t *testing.T) {
	env := newTestEnv(t)
	p := newPlaying(env, "Testers", []int{0}, darkRed, darkGreen, false)
	total := time.Minute

	for round := 1; round <= env.Tuning.MaxLives; round++ {
		p.Scores[len(p.Scores)-1] = round * 2
		p.Ball = &Ball{Position: geom.V(990, 384), Velocity: geom.V(150, 0), Radius: 30}
		next := p.Tick(input(darkRed, darkGreen, total))

		if round < env.Tuning.MaxLives {
			cd, ok := next.(*Countdown)
			require.True(t, ok, "round %d: expected countdown, got %s", round, next.Name())
			require.Len(t, cd.Playing.Scores, round+1)

			total = cd.StartAt + 100*time.Millisecond
			next = cd.Tick(input(darkRed, darkGreen, total))
			p, ok = next.(*Playing)
			require.True(t, ok, "round %d: expected playing, got %s", round, next.Name())
			continue
		}

		over, ok := next.(*GameOver)
		require.True(t, ok, "expected game over, got %s", next.Name())
		assert.Equal(t, []int{2, 4, 6}, over.Scores)
		assert.Equal(t, 6, over.Highscore.Score)
		assert.Equal(t, "Testers", over.Highscore.TeamName)
		assert.Equal(t, 0, over.HighscoreIndex)
		assert.Len(t, over.TopHighscores, 1)
	}
}

func TestLightsStayOutsideForbiddenZone(t *testing.T) {
	env := newTestEnv(t)
	src := &fakeTracker{cal: tracking.IdentityCalibration(env.Size())}
	g := NewGame(env, src)
	r := rand.New(rand.NewSource(99))
	pillar := env.pillar()

	for i := 1; i <= 3000; i++ {
		for _, c := range tracking.Colors {
			pos := geom.V(r.Float64()*1024, r.Float64()*768)
			if r.Intn(10) == 0 {
				pos = pillar.Position
			}
			src.pointers.Set(c, tracking.Detection{ScreenPosition: pos})
		}
		g.Tick(time.Duration(i)*tick, tick)

		p := activeRound(g.State())
		if p == nil {
			continue
		}
		for _, light := range []geom.Vec{p.RedLight, p.GreenLight} {
			require.GreaterOrEqual(t, light.DistanceTo(pillar.Position), pillar.ForbiddenRadius, "tick %d", i)
		}
		if p.Ball != nil {
			b := p.Ball
			require.True(t, b.Position.X >= b.Radius-1e-6 && b.Position.X <= 1024-b.Radius+1e-6, "tick %d: x=%f", i, b.Position.X)
			require.True(t, b.Position.Y >= b.Radius-1e-6 && b.Position.Y <= 768-b.Radius+1e-6, "tick %d: y=%f", i, b.Position.Y)
		}
	}
}

func activeRound(s State) *Playing {
	switch s := s.(type) {
	case *Playing:
		return s
	case *Countdown:
		return s.Playing
	case *Intro:
		return s.Playing
	}
	return nil
}

func TestLightIsPushedOutOfPillar(t *testing.T) {
	env := newTestEnv(t)
	p := newPlaying(env, "Testers", []int{0}, sideRed, sideGreen, false)
	center := env.pillar().Position
	p.LightSpeed = 1e6

	p.Tick(input(center, center.Add(geom.V(0, 10)), time.Second))

	assert.InDelta(t, env.Tuning.ForbiddenRadius, p.RedLight.DistanceTo(center), 1e-9)
	assert.InDelta(t, env.Tuning.ForbiddenRadius, p.GreenLight.DistanceTo(center), 1e-9)
}

func TestPushOutNeverLeavesLightInside(t *testing.T) {
	env := newTestEnv(t)
	p := newPlaying(env, "Testers", []int{0}, sideRed, sideGreen, false)
	p.LightSpeed = 1e9
	center := p.Pillar.Position
	radius := p.Pillar.ForbiddenRadius
	r := rand.New(rand.NewSource(3))

	for i := 0; i < 10000; i++ {
		target := center.Add(geom.RandomUnit(r).Scale(r.Float64() * radius))
		light, _ := p.placeLight(sideRed, target, tick)

		dist := light.DistanceTo(center)
		require.GreaterOrEqual(t, dist, radius, "target %v", target)
		require.InDelta(t, radius, dist, 1e-9, "target %v", target)
	}
}

func TestNonFinitePointerLeavesLightInPlace(t *testing.T) {
	env := newTestEnv(t)
	p := newPlaying(env, "Testers", []int{0}, sideRed, sideGreen, false)

	p.Tick(input(geom.V(math.NaN(), 384), geom.V(math.Inf(1), math.Inf(-1)), time.Second))

	assert.Equal(t, sideRed, p.RedLight)
	assert.Equal(t, sideGreen, p.GreenLight)
	_, err := json.Marshal(p)
	require.NoError(t, err)

	p.Tick(input(geom.V(312, 300), sideGreen, time.Second+tick))
	assert.True(t, p.RedLight.IsFinite())
	assert.Less(t, p.RedLight.Y, sideRed.Y)
}

func TestLightSpeedIsCapped(t *testing.T) {
	env := newTestEnv(t)
	p := newPlaying(env, "Testers", []int{0}, sideRed, sideGreen, false)

	p.Tick(input(geom.V(312, 0), sideGreen, time.Second))

	assert.InDelta(t, env.Tuning.LightSpeed*tick.Seconds(), sideRed.DistanceTo(p.RedLight), 1e-9)
	assert.Equal(t, sideGreen, p.GreenLight)
}

func TestConeEdgesTouchPillar(t *testing.T) {
	env := newTestEnv(t)
	pillar := env.pillar()

	for _, light := range []geom.Vec{sideRed, darkGreen, geom.V(20, 700), geom.V(600, 450)} {
		c := newCone(light, pillar, env.field)
		require.Len(t, c.Shape, 3)
		for _, far := range c.Shape[1:] {
			edge := far.Sub(light)
			dist := math.Abs(edge.Cross(pillar.Position.Sub(light))) / edge.Magnitude()
			assert.InDelta(t, pillar.Radius, dist, 1e-6, "light %s", light)
			assert.False(t, env.field.contains(far), "cone edge ends inside the field for light %s", light)
		}
	}
}

func TestIntroStartsWhenBothPointersInBoxes(t *testing.T) {
	env := newTestEnv(t)
	intro := newIntro(env)
	team := intro.TeamName

	next := intro.Tick(input(geom.V(292, 384), geom.V(50, 50), time.Second))
	require.Same(t, intro, next)
	assert.True(t, intro.InRedBox)
	assert.False(t, intro.InGreenBox)

	next = intro.Tick(input(geom.V(292, 384), geom.V(731, 384), 2*time.Second))
	cd, ok := next.(*Countdown)
	require.True(t, ok, "expected countdown, got %s", next.Name())
	assert.Equal(t, team, cd.Playing.TeamName)
	assert.False(t, cd.Playing.DemoMode)
	assert.Equal(t, []int{0}, cd.Playing.Scores)
	assert.Equal(t, 7*time.Second, cd.StartAt)
	assert.Equal(t, intro.Playing.RedLight, cd.Playing.RedLight)
}

func TestIntroDemoKeepsPlaying(t *testing.T) {
	env := newTestEnv(t)
	intro := newIntro(env)
	require.True(t, intro.Playing.DemoMode)
	require.NotNil(t, intro.Playing.Ball)

	for i := 1; i <= 2000; i++ {
		next := intro.Tick(input(geom.V(0, 0), geom.V(0, 0), time.Duration(i)*tick))
		require.Same(t, intro, next)
		require.NotNil(t, intro.Playing.Ball)
	}
	assert.Equal(t, 1, len(intro.Playing.Scores))
}

func TestIntroAimsNearestSyntheticPointer(t *testing.T) {
	env := newTestEnv(t)
	intro := newIntro(env)
	center := env.pillar().Position
	back := 1.5 * env.Tuning.ForbiddenRadius
	jitter := geom.V(3, 3)

	// Heading right: the light goes left of the pillar, where red already is.
	intro.Playing.Ball = &Ball{Position: center, Velocity: geom.V(100, 0), Radius: 30}
	green := intro.Synthetic.Get(tracking.Green)
	intro.aim()

	red := intro.Synthetic.Get(tracking.Red)
	want := center.Sub(geom.V(back, 0))
	assert.InDelta(t, want.X, red.SensorPosition.X, 1e-9)
	assert.InDelta(t, want.Y, red.SensorPosition.Y, 1e-9)
	assert.InDelta(t, want.Add(jitter).X, red.ScreenPosition.X, 1e-9)
	assert.InDelta(t, want.Add(jitter).Y, red.ScreenPosition.Y, 1e-9)
	assert.Equal(t, green, intro.Synthetic.Get(tracking.Green))

	// Heading left: green is now nearer the target right of the pillar.
	intro.Playing.Ball.Velocity = geom.V(-100, 0)
	intro.aim()

	assert.Equal(t, red, intro.Synthetic.Get(tracking.Red))
	want = center.Add(geom.V(back, 0))
	got := intro.Synthetic.Get(tracking.Green).ScreenPosition
	assert.InDelta(t, want.Add(jitter).X, got.X, 1e-9)
	assert.InDelta(t, want.Add(jitter).Y, got.Y, 1e-9)

	// A fast ball is left alone.
	before := intro.Synthetic
	intro.Playing.Ball.Velocity = geom.V(0, env.Tuning.DemoAimMaxSpeed)
	intro.aim()
	assert.Equal(t, before, intro.Synthetic)
}

func TestIntroRegeneratesTeamNamePeriodically(t *testing.T) {
	env := newTestEnv(t)
	intro := newIntro(env)
	env.Rand = rand.New(rand.NewSource(42))
	want := TeamName(rand.New(rand.NewSource(42)))
	intro.TeamName = "Placeholder Pets"
	every := env.Tuning.TeamNameEveryTicks

	for i := 1; i < every; i++ {
		next := intro.Tick(input(geom.V(0, 0), geom.V(0, 0), time.Duration(i)*tick))
		require.Same(t, intro, next)
		assert.Equal(t, "Placeholder Pets", intro.TeamName, "tick %d", i)
	}

	intro.Tick(input(geom.V(0, 0), geom.V(0, 0), time.Duration(every)*tick))
	assert.Equal(t, want, intro.TeamName)
}

func TestGameOverSkipNeedsContinuousDwell(t *testing.T) {
	env := newTestEnv(t)
	over := newGameOver(env, "Testers", []int{1, 5, 3}, 0)
	in, out := geom.V(950, 740), geom.V(100, 100)

	steps := []struct {
		pointer geom.Vec
		at      time.Duration
		over    bool
	}{
		{in, 1 * time.Second, true},
		{in, 2 * time.Second, true},
		{out, 2500 * time.Millisecond, true},
		{in, 3 * time.Second, true},
		{in, 5 * time.Second, true},
		{in, 5100 * time.Millisecond, false},
	}
	for _, s := range steps {
		next := over.Tick(input(out, s.pointer, s.at))
		if s.over {
			require.Same(t, over, next, "at %s", s.at)
			continue
		}
		_, ok := next.(*Intro)
		require.True(t, ok, "at %s: expected intro, got %s", s.at, next.Name())
	}
}

func TestGameOverTimesOut(t *testing.T) {
	env := newTestEnv(t)
	over := newGameOver(env, "Testers", []int{1, 5, 3}, 0)
	assert.Equal(t, 5, over.Highscore.Score)

	require.Same(t, over, over.Tick(input(geom.V(1, 1), geom.V(1, 1), 19*time.Second)))
	_, ok := over.Tick(input(geom.V(1, 1), geom.V(1, 1), 20100*time.Millisecond)).(*Intro)
	assert.True(t, ok)
}

func TestTeamName(t *testing.T) {
	name := TeamName(rand.New(rand.NewSource(1)))
	assert.Regexp(t, `^[A-Z][a-z]+ [A-Z][a-z]+$`, name)
}
