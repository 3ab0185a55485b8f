package lottie

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Shape types.
const (
	ShapeGroup     = "gr"
	ShapeRect      = "rc"
	ShapeEllipse   = "el"
	ShapePath      = "sh"
	ShapeFill      = "fl"
	ShapeStroke    = "st"
	ShapeTransform = "tr"
)

// Shape is one item of a shape layer or group. Which fields are set depends on Type.
type Shape struct {
	Type   string
	Name   string
	Hidden bool

	// gr
	Items []Shape

	// rc, el
	Position  *Position
	Size      *Value
	Roundness *Value

	// sh
	Path *PathValue

	// fl, st
	Color   *Value
	Opacity *Value

	// fl
	FillRule int

	// st
	Width      *Value
	LineCap    int
	LineJoin   int
	MiterLimit float64

	// tr
	Transform *Transform
}

func (s *Shape) UnmarshalJSON(data []byte) error {
	var head struct {
		Type   string `json:"ty"`
		Name   string `json:"nm"`
		Hidden bool   `json:"hd"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	s.Type, s.Name, s.Hidden = head.Type, head.Name, head.Hidden

	var err error
	switch head.Type {
	case ShapeGroup:
		var v struct {
			Items []Shape `json:"it"`
		}
		err = json.Unmarshal(data, &v)
		s.Items = v.Items
	case ShapeRect, ShapeEllipse:
		var v struct {
			P *Position `json:"p"`
			S *Value    `json:"s"`
			R *Value    `json:"r"`
		}
		err = json.Unmarshal(data, &v)
		s.Position, s.Size = v.P, v.S
		if head.Type == ShapeRect {
			s.Roundness = v.R
		}
	case ShapePath:
		var v struct {
			KS *PathValue `json:"ks"`
		}
		err = json.Unmarshal(data, &v)
		s.Path = v.KS
	case ShapeFill:
		var v struct {
			C *Value `json:"c"`
			O *Value `json:"o"`
			R int    `json:"r"`
		}
		err = json.Unmarshal(data, &v)
		s.Color, s.Opacity, s.FillRule = v.C, v.O, v.R
	case ShapeStroke:
		var v struct {
			C  *Value  `json:"c"`
			O  *Value  `json:"o"`
			W  *Value  `json:"w"`
			LC int     `json:"lc"`
			LJ int     `json:"lj"`
			ML float64 `json:"ml"`
		}
		err = json.Unmarshal(data, &v)
		s.Color, s.Opacity, s.Width = v.C, v.O, v.W
		s.LineCap, s.LineJoin, s.MiterLimit = v.LC, v.LJ, v.ML
	case ShapeTransform:
		var t Transform
		err = json.Unmarshal(data, &t)
		s.Transform = &t
	}
	if err != nil {
		return fmt.Errorf("shape %q (%s): %w", head.Name, head.Type, err)
	}
	return nil
}

// Bezier is a path made of vertices with tangents relative to each vertex.
type Bezier struct {
	Closed   bool        `json:"c"`
	In       [][]float64 `json:"i"`
	Out      [][]float64 `json:"o"`
	Vertices [][]float64 `json:"v"`
}

// PathKeyframe is a keyframe of an animated path.
type PathKeyframe struct {
	Time  float64  `json:"t"`
	Start []Bezier `json:"s"`
	End   []Bezier `json:"e"`
	In    *Handle  `json:"i"`
	Out   *Handle  `json:"o"`
	Hold  int      `json:"h"`
}

// PathValue is an animatable path.
type PathValue struct {
	Static    *Bezier
	Keyframes []PathKeyframe
}

func (p *PathValue) UnmarshalJSON(data []byte) error {
	var raw rawProperty
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	k := bytes.TrimSpace(raw.K)
	if len(k) == 0 {
		return nil
	}
	if k[0] == '{' {
		var b Bezier
		if err := json.Unmarshal(k, &b); err != nil {
			return err
		}
		p.Static = &b
		return nil
	}
	var kfs []PathKeyframe
	if err := json.Unmarshal(k, &kfs); err != nil {
		return fmt.Errorf("path keyframes: %w", err)
	}
	sort.SliceStable(kfs, func(i, j int) bool { return kfs[i].Time < kfs[j].Time })
	p.Keyframes = kfs
	return nil
}

// At evaluates the path at a frame.
func (p *PathValue) At(frame float64) (Bezier, bool) {
	if p == nil {
		return Bezier{}, false
	}
	if len(p.Keyframes) == 0 {
		if p.Static == nil {
			return Bezier{}, false
		}
		return *p.Static, true
	}
	kfs := p.Keyframes
	first := func(b []Bezier) (Bezier, bool) {
		if len(b) == 0 {
			return Bezier{}, false
		}
		return b[0], true
	}
	if frame <= kfs[0].Time || len(kfs) == 1 {
		return first(kfs[0].Start)
	}
	last := len(kfs) - 1
	if frame >= kfs[last].Time {
		if b, ok := first(kfs[last].Start); ok {
			return b, true
		}
		return first(kfs[last-1].End)
	}

	idx := sort.Search(len(kfs), func(i int) bool { return kfs[i].Time > frame }) - 1
	cur, next := kfs[idx], kfs[idx+1]
	from, ok := first(cur.Start)
	if !ok {
		return Bezier{}, false
	}
	to, ok := first(cur.End)
	if !ok {
		to, ok = first(next.Start)
	}
	if !ok || cur.Hold == 1 || next.Time <= cur.Time || len(to.Vertices) != len(from.Vertices) {
		return from, true
	}

	t := (frame - cur.Time) / (next.Time - cur.Time)
	if cur.Out != nil && cur.In != nil {
		t = ease(cur.Out.X.at(0, 0), cur.Out.Y.at(0, 0), cur.In.X.at(0, 1), cur.In.Y.at(0, 1), t)
	}
	return Bezier{
		Closed:   from.Closed,
		In:       lerpPoints(from.In, to.In, t),
		Out:      lerpPoints(from.Out, to.Out, t),
		Vertices: lerpPoints(from.Vertices, to.Vertices, t),
	}, true
}

func lerpPoints(a, b [][]float64, t float64) [][]float64 {
	out := make([][]float64, len(a))
	for i := range a {
		if i >= len(b) || len(a[i]) < 2 || len(b[i]) < 2 {
			out[i] = a[i]
			continue
		}
		out[i] = []float64{
			a[i][0] + (b[i][0]-a[i][0])*t,
			a[i][1] + (b[i][1]-a[i][1])*t,
		}
	}
	return out
}

// kappa is the tangent length factor for approximating a quarter circle with a cubic.
const kappa = 0.5522847498

// ellipseBezier builds a closed ellipse centered at (cx, cy).
func ellipseBezier(cx, cy, w, h float64) Bezier {
	rx, ry := w/2, h/2
	kx, ky := rx*kappa, ry*kappa
	return Bezier{
		Closed: true,
		Vertices: [][]float64{
			{cx, cy - ry}, {cx + rx, cy}, {cx, cy + ry}, {cx - rx, cy},
		},
		In: [][]float64{
			{-kx, 0}, {0, -ky}, {kx, 0}, {0, ky},
		},
		Out: [][]float64{
			{kx, 0}, {0, ky}, {-kx, 0}, {0, -ky},
		},
	}
}

// rectBezier builds a closed rectangle centered at (cx, cy) with rounded corners of radius r.
func rectBezier(cx, cy, w, h, r float64) Bezier {
	x0, x1 := cx-w/2, cx+w/2
	y0, y1 := cy-h/2, cy+h/2
	r = clamp(r, 0, min(w, h)/2)
	if r == 0 {
		zero := [][]float64{{0, 0}, {0, 0}, {0, 0}, {0, 0}}
		return Bezier{
			Closed:   true,
			Vertices: [][]float64{{x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}},
			In:       zero,
			Out:      zero,
		}
	}
	k := r * kappa
	return Bezier{
		Closed: true,
		Vertices: [][]float64{
			{x1 - r, y0}, {x1, y0 + r},
			{x1, y1 - r}, {x1 - r, y1},
			{x0 + r, y1}, {x0, y1 - r},
			{x0, y0 + r}, {x0 + r, y0},
		},
		In: [][]float64{
			{0, 0}, {0, -k},
			{0, 0}, {k, 0},
			{0, 0}, {0, k},
			{0, 0}, {-k, 0},
		},
		Out: [][]float64{
			{k, 0}, {0, 0},
			{0, k}, {0, 0},
			{-k, 0}, {0, 0},
			{0, -k}, {0, 0},
		},
	}
}

// geometry returns the path of a geometry shape at a frame.
func (s *Shape) geometry(frame float64) (Bezier, bool) {
	switch s.Type {
	case ShapeRect:
		cx, cy := s.Position.Vec2(frame)
		w, h := s.Size.Vec2(frame, 0, 0)
		if w <= 0 || h <= 0 {
			return Bezier{}, false
		}
		return rectBezier(cx, cy, w, h, s.Roundness.Scalar(frame, 0)), true
	case ShapeEllipse:
		cx, cy := s.Position.Vec2(frame)
		w, h := s.Size.Vec2(frame, 0, 0)
		if w <= 0 || h <= 0 {
			return Bezier{}, false
		}
		return ellipseBezier(cx, cy, w, h), true
	case ShapePath:
		b, ok := s.Path.At(frame)
		if !ok || len(b.Vertices) == 0 {
			return Bezier{}, false
		}
		return b, true
	}
	return Bezier{}, false
}

func isGeometry(t string) bool {
	return t == ShapeRect || t == ShapeEllipse || t == ShapePath
}
