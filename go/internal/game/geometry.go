package game

import (
	"errors"
	"fmt"
	"math"
)

// Screen dimensions the server lays the arena out in.
const (
	ScreenWidth  = 1024
	ScreenHeight = 768
)

// MinPolygonVertices is the smallest vertex count a non-empty polygon may have.
const MinPolygonVertices = 3

// ErrInvalidPolygon is returned when a polygon has too few vertices.
var ErrInvalidPolygon = errors.New("polygon has fewer than 3 vertices")

// Point is a 2D coordinate, encoded on the wire as [x, y].
type Point [2]float64

// X returns the horizontal coordinate.
func (p Point) X() float64 { return p[0] }

// Y returns the vertical coordinate.
func (p Point) Y() float64 { return p[1] }

func (p Point) Add(q Point) Point { return Point{p[0] + q[0], p[1] + q[1]} }

func (p Point) Sub(q Point) Point { return Point{p[0] - q[0], p[1] - q[1]} }

func (p Point) Scale(f float64) Point { return Point{p[0] * f, p[1] * f} }

// Len returns the distance of p from the origin.
func (p Point) Len() float64 { return math.Hypot(p[0], p[1]) }

// Norm returns p scaled to unit length. The zero vector is returned unchanged.
func (p Point) Norm() Point {
	l := p.Len()
	if l == 0 {
		return p
	}
	return p.Scale(1 / l)
}

// Rotate rotates p counter-clockwise by angle radians.
func (p Point) Rotate(angle float64) Point {
	sin, cos := math.Sincos(angle)
	return Point{p[0]*cos - p[1]*sin, p[0]*sin + p[1]*cos}
}

// Round returns p with both coordinates rounded to the nearest integer.
func (p Point) Round() Point { return Point{math.Round(p[0]), math.Round(p[1])} }

func (p Point) String() string { return fmt.Sprintf("%g,%g", p[0], p[1]) }

// Polygon is an ordered vertex list. An empty polygon means "no shape".
type Polygon []Point

// Validate reports ErrInvalidPolygon for a non-empty polygon with fewer than
// MinPolygonVertices vertices.
func (pg Polygon) Validate() error {
	if len(pg) == 0 || len(pg) >= MinPolygonVertices {
		return nil
	}
	return fmt.Errorf("%w: got %d", ErrInvalidPolygon, len(pg))
}

// Contains reports whether pt lies inside the polygon (even-odd rule).
func (pg Polygon) Contains(pt Point) bool {
	inside := false
	for i, j := 0, len(pg)-1; i < len(pg); j, i = i, i+1 {
		a, b := pg[i], pg[j]
		if (a[1] > pt[1]) != (b[1] > pt[1]) &&
			pt[0] < (b[0]-a[0])*(pt[1]-a[1])/(b[1]-a[1])+a[0] {
			inside = !inside
		}
	}
	return inside
}

// Clone returns a copy that shares no backing array with pg.
func (pg Polygon) Clone() Polygon {
	if pg == nil {
		return nil
	}
	out := make(Polygon, len(pg))
	copy(out, pg)
	return out
}

// Rect builds a closed axis-aligned rectangle polygon.
func Rect(x, y, w, h float64) Polygon {
	return Polygon{{x, y}, {x, y + h}, {x + w, y + h}, {x + w, y}, {x, y}}
}
