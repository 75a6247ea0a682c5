package geom

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
)

// Vec is an immutable 2D vector. It serializes as a two-element JSON array
// so snapshots and calibration files read as [x, y].
type Vec struct {
	X float64
	Y float64
}

func V(x, y float64) Vec {
	return Vec{X: x, Y: y}
}

func (v Vec) Add(o Vec) Vec {
	return Vec{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec) Sub(o Vec) Vec {
	return Vec{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec) Scale(s float64) Vec {
	return Vec{X: v.X * s, Y: v.Y * s}
}

// Mul multiplies elementwise.
func (v Vec) Mul(o Vec) Vec {
	return Vec{X: v.X * o.X, Y: v.Y * o.Y}
}

func (v Vec) Div(s float64) Vec {
	return Vec{X: v.X / s, Y: v.Y / s}
}

func (v Vec) Dot(o Vec) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Cross returns the z component of the 3D cross product.
func (v Vec) Cross(o Vec) float64 {
	return v.X*o.Y - v.Y*o.X
}

func (v Vec) Magnitude() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns v scaled to unit length. A zero vector yields NaN
// components; callers must guard against it.
func (v Vec) Normalize() Vec {
	return v.Div(v.Magnitude())
}

// Truncate scales v down to max when it is longer, otherwise returns v.
func (v Vec) Truncate(max float64) Vec {
	if v.Magnitude() > max {
		return v.Normalize().Scale(max)
	}
	return v
}

// Reflect mirrors v about a unit normal.
func (v Vec) Reflect(normal Vec) Vec {
	return v.Sub(normal.Scale(2 * v.Dot(normal)))
}

// Rotate rotates counter-clockwise by rads in a y-up frame (clockwise on screen).
func (v Vec) Rotate(rads float64) Vec {
	sin, cos := math.Sincos(rads)
	return Vec{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

func (v Vec) DistanceTo(o Vec) float64 {
	return o.Sub(v).Magnitude()
}

func (v Vec) Lerp(o Vec, t float64) Vec {
	return v.Add(o.Sub(v).Scale(t))
}

func (v Vec) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

func (v Vec) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// RandomUnit normalizes a point sampled uniformly from the square [-1, 1]².
// The resulting directions favour the diagonals; that bias is intentional.
func RandomUnit(r *rand.Rand) Vec {
	for {
		v := Vec{X: 1 - 2*r.Float64(), Y: 1 - 2*r.Float64()}
		if !v.IsZero() {
			return v.Normalize()
		}
	}
}

func (v Vec) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", v.X, v.Y)
}

func (v Vec) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{v.X, v.Y})
}

func (v *Vec) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("vec: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("vec: expected 2 components, got %d", len(pair))
	}
	v.X, v.Y = pair[0], pair[1]
	return nil
}
