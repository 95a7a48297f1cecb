// Plane geometry primitives.
//
//pystub:module geometry
package geometry

import (
	"context"
	"errors"
	"iter"
	"math"
	"os"
	"time"

	"github.com/teranos/pystub/py"
)

// Point is a location in the plane.
//
//pystub:class
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`

	norm float64
}

// NewPoint builds a point from its coordinates.
//
//pystub:new
func NewPoint(x, y float64) *Point {
	return &Point{X: x, Y: y, norm: math.Hypot(x, y)}
}

func (p *Point) Distance(other *Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

//pystub:skip
func (p *Point) String() string {
	return "point"
}

func (p *Point) length() float64 {
	return p.norm
}

// Shape is a closed polygon.
//
//pystub:class Polygon frozen final
type Shape struct {
	Vertices []Point
	Label    string `pystub:"readonly"`
	Secret   string `pystub:"-"`
	Created  time.Time
	Source   string              `pytype:"py.Path"`
	Tags     map[string]struct{} // unique labels
	Fill     Color
}

func (s *Shape) Walk() iter.Seq[*Point] {
	return func(yield func(*Point) bool) {
		for i := range s.Vertices {
			if !yield(&s.Vertices[i]) {
				return
			}
		}
	}
}

func (s *Shape) Scale(ctx context.Context, factor float64, axes ...string) (*Shape, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := *s
	out.Vertices = make([]Point, len(s.Vertices))
	for i, v := range s.Vertices {
		out.Vertices[i] = Point{X: v.X * factor, Y: v.Y * factor}
	}
	return &out, nil
}

func (s *Shape) Bounds() (Point, Point) {
	lo, hi := s.Vertices[0], s.Vertices[0]
	for _, v := range s.Vertices[1:] {
		lo.X, lo.Y = min(lo.X, v.X), min(lo.Y, v.Y)
		hi.X, hi.Y = max(hi.X, v.X), max(hi.Y, v.Y)
	}
	return lo, hi
}

func (s Shape) Apply(fn func(Point) Point) {
	for i, v := range s.Vertices {
		s.Vertices[i] = fn(v)
	}
}

// Color is a fill colour.
//
//pystub:enum
type Color int

const (
	// ColorRed is the default.
	ColorRed       Color = iota
	ColorDarkGreen       // a darker green
)

type Celsius float64

// Centroid returns the mean of points.
//
//pystub:function
func Centroid(points []Point) (Point, error) {
	if len(points) == 0 {
		return Point{}, errors.New("no points")
	}
	var c Point
	for _, p := range points {
		c.X += p.X / float64(len(points))
		c.Y += p.Y / float64(len(points))
	}
	return c, nil
}

//pystub:function load_shape
func LoadFromFile(path string, timeout time.Duration) (*Shape, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return &Shape{Source: path, Created: time.Now().Add(-timeout)}, nil
}

//pystub:function
func Warm(t Celsius) py.Optional[py.Int] {
	return py.Optional[py.Int]{}
}

func helper() {}
