package tracking

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/autokat/backend/internal/geom"
)

// Color identifies one of the two tracked light pointers.
type Color int

const (
	Red Color = iota
	Green
)

// Colors lists both pointers in a fixed order.
var Colors = [2]Color{Red, Green}

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	default:
		return fmt.Sprintf("color(%d)", int(c))
	}
}

func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red":
		return Red, nil
	case "green":
		return Green, nil
	default:
		return 0, fmt.Errorf("unknown pointer color %q", s)
	}
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// Detection is one pointer sighting in both sensor and screen space.
type Detection struct {
	SensorPosition geom.Vec  `json:"sensor_position"`
	ScreenPosition geom.Vec  `json:"screen_position"`
	Time           time.Time `json:"time"`
}

// Pointers holds the latest detection for each color.
type Pointers [2]Detection

func (p Pointers) Get(c Color) Detection {
	return p[c]
}

func (p *Pointers) Set(c Color, d Detection) {
	p[c] = d
}

// Latest returns the most recent detection time across both colors.
func (p Pointers) Latest() time.Time {
	latest := p[Red].Time
	if p[Green].Time.After(latest) {
		latest = p[Green].Time
	}
	return latest
}

// ScreenPointers builds a Pointers value whose sensor and screen positions match,
// as produced by manual input and the scripted demo.
func ScreenPointers(red, green geom.Vec, at time.Time) Pointers {
	return Pointers{
		Red:   {SensorPosition: red, ScreenPosition: red, Time: at},
		Green: {SensorPosition: green, ScreenPosition: green, Time: at},
	}
}
