package game

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tuning holds the gameplay constants. Distances are in screen pixels,
// speeds in pixels per second.
type Tuning struct {
	LightSpeed        float64 `yaml:"light_speed"`
	DemoLightSpeed    float64 `yaml:"demo_light_speed"`
	LightOffset       float64 `yaml:"light_offset"`        // initial light distance left/right of center
	DemoPointerOffset float64 `yaml:"demo_pointer_offset"` // scripted pointer distance left/right of center

	PillarRadius    float64 `yaml:"pillar_radius"`
	ForbiddenRadius float64 `yaml:"forbidden_radius"`

	BallSpeed   float64 `yaml:"ball_speed"`
	BallRadius  float64 `yaml:"ball_radius"`
	BounceBoost float64 `yaml:"bounce_boost"`

	MaxLives int `yaml:"max_lives"`

	CountdownSeconds float64 `yaml:"countdown_seconds"`
	GameOverSeconds  float64 `yaml:"game_over_seconds"`
	SkipDwellSeconds float64 `yaml:"skip_dwell_seconds"`
	SkipBoxWidth     float64 `yaml:"skip_box_width"`
	SkipBoxHeight    float64 `yaml:"skip_box_height"`

	DemoAimMaxSpeed    float64 `yaml:"demo_aim_max_speed"` // the demo stops aiming above this ball speed
	TeamNameEveryTicks int     `yaml:"team_name_every_ticks"`
	TopHighscores      int     `yaml:"top_highscores"`
}

func DefaultTuning() Tuning {
	return Tuning{
		LightSpeed:         800,
		DemoLightSpeed:     150,
		LightOffset:        200,
		DemoPointerOffset:  300,
		PillarRadius:       25,
		ForbiddenRadius:    100,
		BallSpeed:          150,
		BallRadius:         30,
		BounceBoost:        20,
		MaxLives:           3,
		CountdownSeconds:   5,
		GameOverSeconds:    20,
		SkipDwellSeconds:   2,
		SkipBoxWidth:       150,
		SkipBoxHeight:      50,
		DemoAimMaxSpeed:    300,
		TeamNameEveryTicks: 4,
		TopHighscores:      10,
	}
}

// Validate rejects values that would make the geometry degenerate.
func (t Tuning) Validate() error {
	switch {
	case t.PillarRadius <= 0:
		return errors.New("pillar_radius must be positive")
	case t.ForbiddenRadius <= t.PillarRadius:
		return fmt.Errorf("forbidden_radius (%.1f) must exceed pillar_radius (%.1f)", t.ForbiddenRadius, t.PillarRadius)
	case t.LightSpeed <= 0 || t.DemoLightSpeed <= 0:
		return errors.New("light speeds must be positive")
	case t.BallSpeed <= 0 || t.BallRadius <= 0:
		return errors.New("ball_speed and ball_radius must be positive")
	case t.BounceBoost < 0:
		return errors.New("bounce_boost must not be negative")
	case t.MaxLives < 1:
		return errors.New("max_lives must be at least 1")
	case t.TeamNameEveryTicks < 1:
		return errors.New("team_name_every_ticks must be at least 1")
	}
	return nil
}

func (t Tuning) countdown() time.Duration {
	return seconds(t.CountdownSeconds)
}

func (t Tuning) gameOver() time.Duration {
	return seconds(t.GameOverSeconds)
}

func (t Tuning) skipDwell() time.Duration {
	return seconds(t.SkipDwellSeconds)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// LoadTuning reads a YAML file over the defaults. A missing file yields the
// defaults; an unreadable or invalid file yields the defaults and an error
// for the caller to log.
func LoadTuning(path string) (Tuning, error) {
	defaults := DefaultTuning()
	if path == "" {
		return defaults, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaults, nil
	}
	if err != nil {
		return defaults, fmt.Errorf("read tuning %s: %w", path, err)
	}
	t := defaults
	if err := yaml.Unmarshal(data, &t); err != nil {
		return defaults, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return defaults, fmt.Errorf("invalid tuning %s: %w", path, err)
	}
	return t, nil
}
