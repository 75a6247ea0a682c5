package game

import (
	"encoding/json"
	"math"
	"time"

	"github.com/autokat/backend/internal/geom"
)

// Pillar is the static obstacle at the field center that casts the cones.
type Pillar struct {
	Position        geom.Vec `json:"position"`
	Radius          float64  `json:"radius"`
	ForbiddenRadius float64  `json:"forbidden_radius"`
}

type Ball struct {
	Position geom.Vec `json:"position"`
	Velocity geom.Vec `json:"velocity"`
	Radius   float64  `json:"radius"`
}

func (b Ball) moved(dt time.Duration) Ball {
	b.Position = b.Position.Add(b.Velocity.Scale(dt.Seconds()))
	return b
}

// bounced reflects the velocity about the inward wall normal and turns it by
// −45°·offset, unless the turn would point the ball back into the wall.
func (b Ball) bounced(normal geom.Vec, offset float64) Ball {
	v := b.Velocity.Reflect(normal)
	if turned := v.Rotate(-math.Pi / 4 * offset); turned.Dot(normal) > 0 {
		v = turned
	}
	b.Velocity = v
	return b
}

// Cone is the wedge seen from a light past the pillar's silhouette.
type Cone struct {
	Shape geom.Polygon
}

// newCone bounds the wedge by the two tangent rays from light to the pillar
// circle. The rays are long enough that the far edge lies outside the field.
func newCone(light geom.Vec, pillar Pillar, f field) Cone {
	toPillar := pillar.Position.Sub(light)
	dist := toPillar.Magnitude()
	half := math.Asin(math.Min(pillar.Radius/dist, 0.99))
	reach := (f.diagonal() + light.DistanceTo(f.center())) / math.Cos(half)
	dir := toPillar.Div(dist)
	return Cone{Shape: geom.Polygon{
		light,
		light.Add(dir.Rotate(half).Scale(reach)),
		light.Add(dir.Rotate(-half).Scale(reach)),
	}}
}

func (c Cone) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Shape.Ring())
}

type wall struct {
	geom.Segment
	normal geom.Vec // unit normal pointing into the field
}

// field is the rectangular play area with the origin at the top-left corner.
type field struct {
	size geom.Vec
}

func (f field) center() geom.Vec {
	return f.size.Scale(0.5)
}

func (f field) diagonal() float64 {
	return f.size.Magnitude()
}

// walls follows the boundary ring (0,0) → (0,h) → (w,h) → (w,0) → (0,0).
func (f field) walls() [4]wall {
	w, h := f.size.X, f.size.Y
	return [4]wall{
		{Segment: geom.Seg(geom.V(0, 0), geom.V(0, h)), normal: geom.V(1, 0)},
		{Segment: geom.Seg(geom.V(0, h), geom.V(w, h)), normal: geom.V(0, -1)},
		{Segment: geom.Seg(geom.V(w, h), geom.V(w, 0)), normal: geom.V(-1, 0)},
		{Segment: geom.Seg(geom.V(w, 0), geom.V(0, 0)), normal: geom.V(0, 1)},
	}
}

// mirrorInside reflects any overshoot of a disc past each side back into the
// field, then clamps what a single reflection could not fix.
func (f field) mirrorInside(p geom.Vec, r float64) geom.Vec {
	if over := p.X + r - f.size.X; over > 0 {
		p.X -= 2 * over
	}
	if over := p.Y + r - f.size.Y; over > 0 {
		p.Y -= 2 * over
	}
	if under := p.X - r; under < 0 {
		p.X -= 2 * under
	}
	if under := p.Y - r; under < 0 {
		p.Y -= 2 * under
	}
	p.X = math.Max(r, math.Min(f.size.X-r, p.X))
	p.Y = math.Max(r, math.Min(f.size.Y-r, p.Y))
	return p
}

func (f field) contains(p geom.Vec) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= f.size.X && p.Y <= f.size.Y
}
