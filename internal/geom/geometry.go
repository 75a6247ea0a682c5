package geom

import "math"

// eps absorbs rounding noise in the parametric tests below.
const eps = 1e-9

// Segment is the closed line segment A→B, parametrized as A + t·(B−A), t ∈ [0, 1].
type Segment struct {
	A Vec `json:"a"`
	B Vec `json:"b"`
}

func Seg(a, b Vec) Segment {
	return Segment{A: a, B: b}
}

func (s Segment) Direction() Vec {
	return s.B.Sub(s.A)
}

func (s Segment) Length() float64 {
	return s.Direction().Magnitude()
}

func (s Segment) At(t float64) Vec {
	return s.A.Lerp(s.B, t)
}

// Intersect returns the crossing point of two segments. Parallel and
// collinear segments report no intersection.
func (s Segment) Intersect(o Segment) (Vec, bool) {
	d1 := s.Direction()
	d2 := o.Direction()
	denom := d1.Cross(d2)
	if math.Abs(denom) < eps {
		return Vec{}, false
	}
	w := o.A.Sub(s.A)
	t := w.Cross(d2) / denom
	u := w.Cross(d1) / denom
	if t < -eps || t > 1+eps || u < -eps || u > 1+eps {
		return Vec{}, false
	}
	return s.At(t), true
}

// CapsuleInterval returns the parameter range of s that lies within radius r
// of the segment a→b, i.e. the intersection of s with a→b buffered by r.
func (s Segment) CapsuleInterval(a, b Vec, r float64) (t0, t1 float64, ok bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	merge := func(s0, s1 float64, hit bool) {
		if !hit {
			return
		}
		lo = math.Min(lo, s0)
		hi = math.Max(hi, s1)
	}

	merge(s.circleInterval(a, r))
	merge(s.circleInterval(b, r))

	axis := b.Sub(a)
	if length := axis.Magnitude(); length > 0 {
		u := axis.Div(length)
		n := Vec{X: -u.Y, Y: u.X}
		d := s.Direction()
		rel := s.A.Sub(a)
		t0, t1, ok := clipRange(0, 1, rel.Dot(u), d.Dot(u), 0, length)
		if ok {
			t0, t1, ok = clipRange(t0, t1, rel.Dot(n), d.Dot(n), -r, r)
		}
		merge(t0, t1, ok)
	}

	if lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

// circleInterval clips s to the disc of radius r around c.
func (s Segment) circleInterval(c Vec, r float64) (float64, float64, bool) {
	d := s.Direction()
	f := s.A.Sub(c)
	a := d.Dot(d)
	cc := f.Dot(f) - r*r
	if a == 0 {
		return 0, 1, cc <= 0
	}
	b := 2 * d.Dot(f)
	disc := b*b - 4*a*cc
	if disc < 0 {
		return 0, 0, false
	}
	sq := math.Sqrt(disc)
	t0 := math.Max((-b-sq)/(2*a), 0)
	t1 := math.Min((-b+sq)/(2*a), 1)
	return t0, t1, t0 <= t1
}

// clipRange narrows [t0, t1] to the values of t where lo ≤ f0 + t·f1 ≤ hi.
func clipRange(t0, t1, f0, f1, lo, hi float64) (float64, float64, bool) {
	if f1 == 0 {
		return t0, t1, f0 >= lo-eps && f0 <= hi+eps
	}
	a := (lo - f0) / f1
	b := (hi - f0) / f1
	if a > b {
		a, b = b, a
	}
	t0 = math.Max(t0, a)
	t1 = math.Min(t1, b)
	return t0, t1, t0 <= t1
}

// Polygon is a simple polygon; the closing edge from the last vertex back to
// the first is implicit.
type Polygon []Vec

// Rect builds the axis-aligned rectangle with top-left corner (x, y).
func Rect(x, y, w, h float64) Polygon {
	return Polygon{V(x, y), V(x, y+h), V(x+w, y+h), V(x+w, y)}
}

func (p Polygon) signedArea() float64 {
	var area float64
	for i := range p {
		area += p[i].Cross(p[(i+1)%len(p)])
	}
	return area / 2
}

// Contains reports whether pt lies inside p (even-odd rule).
func (p Polygon) Contains(pt Vec) bool {
	inside := false
	for i, j := 0, len(p)-1; i < len(p); j, i = i, i+1 {
		a, b := p[i], p[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := a.X + (pt.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if pt.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// ClipSegment returns the parameter range of s inside p, which must be convex.
func (p Polygon) ClipSegment(s Segment) (t0, t1 float64, ok bool) {
	if len(p) < 3 {
		return 0, 0, false
	}
	orientation := 1.0
	if p.signedArea() < 0 {
		orientation = -1
	}
	d := s.Direction()
	t0, t1 = 0, 1
	for i := range p {
		edge := p[(i+1)%len(p)].Sub(p[i])
		inward := Vec{X: -edge.Y, Y: edge.X}.Scale(orientation)
		t0, t1, ok = clipRange(t0, t1, s.A.Sub(p[i]).Dot(inward), d.Dot(inward), 0, math.Inf(1))
		if !ok {
			return 0, 0, false
		}
	}
	return t0, t1, true
}

// Ring returns the closed boundary polyline of p.
func (p Polygon) Ring() []Vec {
	if len(p) == 0 {
		return nil
	}
	ring := make([]Vec, 0, len(p)+1)
	ring = append(ring, p...)
	return append(ring, p[0])
}
