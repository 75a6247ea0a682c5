package tracking

import (
	"errors"
	"fmt"

	"github.com/autokat/backend/internal/geom"
)

var (
	ErrDegenerateCalibration = errors.New("degenerate calibration")
	ErrUnknownCorner         = errors.New("unknown calibration corner")
)

// Corner names one of the four calibrated screen corners.
type Corner string

const (
	TopLeft     Corner = "top_left"
	TopRight    Corner = "top_right"
	BottomLeft  Corner = "bottom_left"
	BottomRight Corner = "bottom_right"
)

func ParseCorner(s string) (Corner, error) {
	switch c := Corner(s); c {
	case TopLeft, TopRight, BottomLeft, BottomRight:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCorner, s)
}

// Calibration maps sensor coordinates to screen coordinates from the sensor
// positions of the four screen corners.
type Calibration struct {
	TopLeft     geom.Vec `json:"top_left"`
	TopRight    geom.Vec `json:"top_right"`
	BottomLeft  geom.Vec `json:"bottom_left"`
	BottomRight geom.Vec `json:"bottom_right"`
}

// IdentityCalibration maps a screen of the given size onto itself.
func IdentityCalibration(screen geom.Vec) Calibration {
	w, h := screen.X-1, screen.Y-1
	return Calibration{
		TopLeft:     geom.V(0, 0),
		TopRight:    geom.V(w, 0),
		BottomLeft:  geom.V(0, h),
		BottomRight: geom.V(w, h),
	}
}

// With returns a copy with one corner replaced.
func (c Calibration) With(corner Corner, p geom.Vec) (Calibration, error) {
	switch corner {
	case TopLeft:
		c.TopLeft = p
	case TopRight:
		c.TopRight = p
	case BottomLeft:
		c.BottomLeft = p
	case BottomRight:
		c.BottomRight = p
	default:
		return c, fmt.Errorf("%w: %q", ErrUnknownCorner, corner)
	}
	return c, nil
}

// Validate rejects corner sets that would divide by zero in Transform.
func (c Calibration) Validate() error {
	for _, p := range []geom.Vec{c.TopLeft, c.TopRight, c.BottomLeft, c.BottomRight} {
		if !p.IsFinite() {
			return fmt.Errorf("%w: non-finite corner %v", ErrDegenerateCalibration, p)
		}
	}
	if c.spanY() == 0 {
		return fmt.Errorf("%w: top and bottom edges share height %.2f", ErrDegenerateCalibration, c.topY())
	}
	if c.TopRight.X == c.TopLeft.X {
		return fmt.Errorf("%w: top edge has zero width", ErrDegenerateCalibration)
	}
	if c.BottomRight.X == c.BottomLeft.X {
		return fmt.Errorf("%w: bottom edge has zero width", ErrDegenerateCalibration)
	}
	// Mirrored edges make the interpolated width pass through zero on screen.
	if (c.TopRight.X-c.TopLeft.X > 0) != (c.BottomRight.X-c.BottomLeft.X > 0) {
		return fmt.Errorf("%w: top and bottom edges are crossed", ErrDegenerateCalibration)
	}
	return nil
}

func (c Calibration) topY() float64 {
	return (c.TopLeft.Y + c.TopRight.Y) / 2
}

func (c Calibration) spanY() float64 {
	return (c.BottomLeft.Y+c.BottomRight.Y)/2 - c.topY()
}

// Transform maps a sensor point to screen space. The vertical position picks
// t between the top and bottom edges; the horizontal bounds are interpolated
// by t and x is scaled within them.
func (c Calibration) Transform(p geom.Vec, screen geom.Vec) geom.Vec {
	maxX, maxY := screen.X-1, screen.Y-1
	ty := (p.Y - c.topY()) * maxY / c.spanY()
	t := ty / maxY
	left := c.TopLeft.X*(1-t) + c.BottomLeft.X*t
	right := c.TopRight.X*(1-t) + c.BottomRight.X*t
	tx := (p.X - left) / ((right - left) / maxX)
	return geom.V(tx, ty)
}

func (c Calibration) String() string {
	return fmt.Sprintf("tl=%v tr=%v bl=%v br=%v", c.TopLeft, c.TopRight, c.BottomLeft, c.BottomRight)
}
