package lottie

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type svgWriter struct {
	doc *Document
	buf bytes.Buffer
}

func newSVGWriter(doc *Document) *svgWriter {
	return &svgWriter{doc: doc}
}

func (w *svgWriter) open() {
	fmt.Fprintf(&w.buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d">`, w.doc.Width, w.doc.Height)
}

func (w *svgWriter) close() {
	w.buf.WriteString("</svg>")
}

func (w *svgWriter) bytes() []byte {
	return w.buf.Bytes()
}

// layers paints a layer list. The first layer in the list is topmost, so the
// list is painted in reverse.
func (w *svgWriter) layers(layers []Layer, frame float64, parent Matrix, opacity float64, depth int) {
	if depth > maxPrecompDepth {
		return
	}
	byIndex := make(map[int]*Layer, len(layers))
	for i := range layers {
		if layers[i].Index != nil {
			byIndex[*layers[i].Index] = &layers[i]
		}
	}

	for i := len(layers) - 1; i >= 0; i-- {
		l := &layers[i]
		if l.Type == LayerNull || !l.ActiveAt(frame) {
			continue
		}
		local := l.localFrame(frame)
		op := opacity * l.Transform.OpacityAt(local)
		if op <= 0 {
			continue
		}
		m := parent.Mul(worldMatrix(l, byIndex, frame))

		switch l.Type {
		case LayerSolid:
			rect := rectBezier(l.SolidWidth/2, l.SolidHeight/2, l.SolidWidth, l.SolidHeight, 0)
			w.fill([]Bezier{transformBezier(rect, m)}, solidColor(l.SolidColor), op, 1)
		case LayerShape:
			w.group(l.Shapes, local, m, op)
		case LayerPrecomp:
			if a, ok := w.doc.asset(l.RefID); ok && a.IsPrecomp() {
				w.layers(a.Layers, local, m, op, depth+1)
			}
		case LayerImage:
			if a, ok := w.doc.asset(l.RefID); ok {
				w.image(a, m, op)
			}
		}
	}
}

// worldMatrix resolves the parent chain of a layer. Parenting affects transforms only.
func worldMatrix(l *Layer, byIndex map[int]*Layer, frame float64) Matrix {
	m := l.Transform.Matrix(l.localFrame(frame))
	cur := l
	for hops := 0; cur.Parent != nil && hops < len(byIndex); hops++ {
		par, ok := byIndex[*cur.Parent]
		if !ok || par == cur {
			break
		}
		m = par.Transform.Matrix(par.localFrame(frame)).Mul(m)
		cur = par
	}
	return m
}

// group paints a shape list. A fill or stroke applies to every geometry listed
// before it in the same group, including geometry of nested groups. Earlier
// items are on top.
func (w *svgWriter) group(items []Shape, frame float64, m Matrix, opacity float64) {
	m, opacity = applyGroupTransform(items, frame, m, opacity)
	if opacity <= 0 {
		return
	}

	var acc []Bezier
	var paints []func()
	for i := range items {
		it := &items[i]
		if it.Hidden {
			continue
		}
		switch {
		case isGeometry(it.Type):
			if b, ok := it.geometry(frame); ok {
				acc = append(acc, transformBezier(b, m))
			}
		case it.Type == ShapeGroup:
			acc = append(acc, collectGeometry(it.Items, frame, m)...)
			nested := it.Items
			paints = append(paints, func() { w.group(nested, frame, m, opacity) })
		case it.Type == ShapeFill:
			paths := acc[:len(acc):len(acc)]
			style := it
			paints = append(paints, func() {
				o := opacity * style.Opacity.Scalar(frame, 100) / 100
				w.fill(paths, colorAt(style.Color, frame), o, style.FillRule)
			})
		case it.Type == ShapeStroke:
			paths := acc[:len(acc):len(acc)]
			style := it
			paints = append(paints, func() {
				o := opacity * style.Opacity.Scalar(frame, 100) / 100
				w.stroke(paths, style, frame, m.ScaleFactor(), o)
			})
		}
	}
	for i := len(paints) - 1; i >= 0; i-- {
		paints[i]()
	}
}

func applyGroupTransform(items []Shape, frame float64, m Matrix, opacity float64) (Matrix, float64) {
	for i := range items {
		if items[i].Type == ShapeTransform && !items[i].Hidden {
			t := items[i].Transform
			return m.Mul(t.Matrix(frame)), opacity * t.OpacityAt(frame)
		}
	}
	return m, opacity
}

func collectGeometry(items []Shape, frame float64, m Matrix) []Bezier {
	m, _ = applyGroupTransform(items, frame, m, 1)
	var out []Bezier
	for i := range items {
		it := &items[i]
		if it.Hidden {
			continue
		}
		if isGeometry(it.Type) {
			if b, ok := it.geometry(frame); ok {
				out = append(out, transformBezier(b, m))
			}
		} else if it.Type == ShapeGroup {
			out = append(out, collectGeometry(it.Items, frame, m)...)
		}
	}
	return out
}

// transformBezier returns the path in absolute coordinates: tangents are
// resolved against their vertex before the matrix is applied.
func transformBezier(b Bezier, m Matrix) Bezier {
	n := len(b.Vertices)
	out := Bezier{
		Closed:   b.Closed,
		Vertices: make([][]float64, n),
		In:       make([][]float64, n),
		Out:      make([][]float64, n),
	}
	for i, v := range b.Vertices {
		if len(v) < 2 {
			v = []float64{0, 0}
		}
		in := tangent(b.In, i)
		o := tangent(b.Out, i)
		vx, vy := m.Apply(v[0], v[1])
		ix, iy := m.Apply(v[0]+in[0], v[1]+in[1])
		ox, oy := m.Apply(v[0]+o[0], v[1]+o[1])
		out.Vertices[i] = []float64{vx, vy}
		out.In[i] = []float64{ix, iy}
		out.Out[i] = []float64{ox, oy}
	}
	return out
}

func tangent(list [][]float64, i int) []float64 {
	if i < len(list) && len(list[i]) >= 2 {
		return list[i]
	}
	return []float64{0, 0}
}

// pathData formats absolute-coordinate paths as SVG path data.
func pathData(paths []Bezier) string {
	var sb strings.Builder
	for _, b := range paths {
		n := len(b.Vertices)
		if n == 0 {
			continue
		}
		sb.WriteString("M")
		writePoint(&sb, b.Vertices[0])
		segments := n - 1
		if b.Closed {
			segments = n
		}
		for i := 0; i < segments; i++ {
			j := (i + 1) % n
			sb.WriteString("C")
			writePoint(&sb, b.Out[i])
			sb.WriteByte(' ')
			writePoint(&sb, b.In[j])
			sb.WriteByte(' ')
			writePoint(&sb, b.Vertices[j])
		}
		if b.Closed {
			sb.WriteString("Z")
		}
	}
	return sb.String()
}

func writePoint(sb *strings.Builder, p []float64) {
	sb.WriteString(num(p[0]))
	sb.WriteByte(',')
	sb.WriteString(num(p[1]))
}

func (w *svgWriter) fill(paths []Bezier, color string, opacity float64, rule int) {
	d := pathData(paths)
	if d == "" || opacity <= 0 {
		return
	}
	fillRule := "nonzero"
	if rule == 2 {
		fillRule = "evenodd"
	}
	fmt.Fprintf(&w.buf, `<path d="%s" fill="%s" fill-opacity="%s" fill-rule="%s" stroke="none"/>`,
		d, color, num(clamp(opacity, 0, 1)), fillRule)
}

var (
	lineCaps  = map[int]string{1: "butt", 2: "round", 3: "square"}
	lineJoins = map[int]string{1: "miter", 2: "round", 3: "bevel"}
)

func (w *svgWriter) stroke(paths []Bezier, s *Shape, frame, scale, opacity float64) {
	d := pathData(paths)
	width := s.Width.Scalar(frame, 0) * scale
	if d == "" || opacity <= 0 || width <= 0 {
		return
	}
	lc, ok := lineCaps[s.LineCap]
	if !ok {
		lc = "butt"
	}
	lj, ok := lineJoins[s.LineJoin]
	if !ok {
		lj = "miter"
	}
	ml := s.MiterLimit
	if ml <= 0 {
		ml = 4
	}
	fmt.Fprintf(&w.buf,
		`<path d="%s" fill="none" stroke="%s" stroke-opacity="%s" stroke-width="%s" stroke-linecap="%s" stroke-linejoin="%s" stroke-miterlimit="%s"/>`,
		d, colorAt(s.Color, frame), num(clamp(opacity, 0, 1)), num(width), lc, lj, num(ml))
}

func (w *svgWriter) image(a *Asset, m Matrix, opacity float64) {
	if !strings.HasPrefix(a.Path, "data:") {
		return
	}
	var href bytes.Buffer
	if err := xml.EscapeText(&href, []byte(a.Path)); err != nil {
		return
	}
	fmt.Fprintf(&w.buf, `<image width="%d" height="%d" href="%s" opacity="%s" transform="matrix(%s %s %s %s %s %s)"/>`,
		a.Width, a.Height, href.String(), num(clamp(opacity, 0, 1)),
		num(m.A), num(m.B), num(m.C), num(m.D), num(m.E), num(m.F))
}

// colorAt evaluates an RGB(A) color property. Components are normally in [0,1];
// documents that use 0-255 are detected and rescaled.
func colorAt(v *Value, frame float64) string {
	c := v.At(frame)
	if len(c) < 3 {
		return "#000000"
	}
	scale := 255.0
	if c[0] > 1 || c[1] > 1 || c[2] > 1 {
		scale = 1
	}
	byteOf := func(f float64) int {
		return int(math.Round(clamp(f*scale, 0, 255)))
	}
	return fmt.Sprintf("#%02x%02x%02x", byteOf(c[0]), byteOf(c[1]), byteOf(c[2]))
}

func solidColor(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 7 && s[0] == '#' {
		if _, err := strconv.ParseUint(s[1:], 16, 32); err == nil {
			return strings.ToLower(s)
		}
	}
	return "#000000"
}

// num formats a coordinate with at most three decimals.
func num(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
