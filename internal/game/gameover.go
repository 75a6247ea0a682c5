package game

import (
	"context"
	"encoding/json"
	"time"

	"github.com/autokat/backend/internal/geom"
	"github.com/autokat/backend/internal/highscores"
	"github.com/autokat/backend/internal/tracking"
)

// GameOver shows the team's result and the top of the table until the
// timeout, or until a pointer dwells in the skip box.
type GameOver struct {
	env *Env

	TeamName       string
	Scores         []int
	ToIntroAt      time.Duration
	Highscore      highscores.Entry
	HighscoreIndex int
	TopHighscores  []highscores.Entry
	SkipBox        geom.Polygon

	inSkipBoxSince *time.Duration
}

// newGameOver records the team's best round on the board.
func newGameOver(env *Env, team string, scores []int, total time.Duration) *GameOver {
	best := 0
	for _, s := range scores {
		best = max(best, s)
	}

	entry, rank, err := env.Board.Add(context.Background(), team, best)
	if err != nil {
		env.Log.Errorf("[HIGHSCORES] Couldn't persist score %d for %q: %v", best, team, err)
	}
	env.Log.Infof("[GAME] Team %q finished with %d (rank %d)", team, best, rank+1)

	size := env.field.size
	t := env.Tuning
	return &GameOver{
		env:            env,
		TeamName:       team,
		Scores:         scores,
		ToIntroAt:      total + t.gameOver(),
		Highscore:      entry,
		HighscoreIndex: rank,
		TopHighscores:  env.Board.Top(t.TopHighscores),
		SkipBox:        geom.Rect(size.X-t.SkipBoxWidth, size.Y-t.SkipBoxHeight, t.SkipBoxWidth, t.SkipBoxHeight),
	}
}

func (*GameOver) sealed() {}

func (*GameOver) Name() string { return StateGameOver }

func (g *GameOver) Tick(in TickInput) State {
	if in.Total > g.ToIntroAt {
		return newIntro(g.env)
	}

	if !g.pointerInSkipBox(in.Pointers) {
		g.inSkipBoxSince = nil
		return g
	}
	if g.inSkipBoxSince == nil {
		since := in.Total
		g.inSkipBoxSince = &since
	}
	if in.Total-*g.inSkipBoxSince > g.env.Tuning.skipDwell() {
		return newIntro(g.env)
	}
	return g
}

func (g *GameOver) pointerInSkipBox(pointers tracking.Pointers) bool {
	for _, c := range tracking.Colors {
		if g.SkipBox.Contains(pointers.Get(c).ScreenPosition) {
			return true
		}
	}
	return false
}

func (g *GameOver) MarshalJSON() ([]byte, error) {
	var since *float64
	if g.inSkipBoxSince != nil {
		s := g.inSkipBoxSince.Seconds()
		since = &s
	}
	return json.Marshal(struct {
		Name             string             `json:"name"`
		TeamName         string             `json:"team_name"`
		Scores           []int              `json:"scores"`
		ToIntroAt        float64            `json:"to_intro_at"`
		MyHighscore      highscores.Entry   `json:"my_highscore"`
		MyHighscoreIndex int                `json:"my_highscore_index"`
		TopHighscores    []highscores.Entry `json:"top_highscores"`
		SkipBox          []geom.Vec         `json:"skip_box"`
		InSkipBoxSince   *float64           `json:"in_skip_box_since"`
	}{
		Name:             StateGameOver,
		TeamName:         g.TeamName,
		Scores:           g.Scores,
		ToIntroAt:        g.ToIntroAt.Seconds(),
		MyHighscore:      g.Highscore,
		MyHighscoreIndex: g.HighscoreIndex,
		TopHighscores:    g.TopHighscores,
		SkipBox:          g.SkipBox.Ring(),
		InSkipBoxSince:   since,
	})
}
