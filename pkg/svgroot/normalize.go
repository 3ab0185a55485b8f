// Package svgroot rewrites the root element of an SVG document so that every
// rasterizer backend sees the same, fully qualified markup.
package svgroot

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Namespace is the SVG namespace URI.
const Namespace = "http://www.w3.org/2000/svg"

// ErrNoSVGRoot is returned when the document's first element is not <svg>.
var ErrNoSVGRoot = errors.New("svgroot: root element is not <svg>")

// ViewBox is an SVG viewBox rectangle.
type ViewBox struct {
	X, Y, Width, Height float64
}

func (v ViewBox) String() string {
	return strings.Join([]string{num(v.X), num(v.Y), num(v.Width), num(v.Height)}, " ")
}

// Normalize returns a copy of svg whose root element carries the SVG namespace,
// explicit pixel width and height, and a viewBox with the same aspect ratio as
// the output size. The original drawing area is centered inside the widened
// viewBox unless the root asks for preserveAspectRatio="none".
// Only the root start tag is rewritten; the rest of the document is copied verbatim.
func Normalize(svg []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("svgroot: invalid size %dx%d", width, height)
	}
	start, end, root, err := findRoot(svg)
	if err != nil {
		return nil, err
	}

	var kept []xml.Attr
	var vb *ViewBox
	var srcW, srcH float64
	stretch := false
	for _, a := range root.Attr {
		switch {
		case a.Name.Space == "" && a.Name.Local == "xmlns":
		case a.Name.Space == "" && a.Name.Local == "viewBox":
			if v, ok := parseViewBox(a.Value); ok {
				vb = &v
			}
		case a.Name.Space == "" && a.Name.Local == "width":
			srcW, _ = parseLength(a.Value)
		case a.Name.Space == "" && a.Name.Local == "height":
			srcH, _ = parseLength(a.Value)
		case a.Name.Space == "" && a.Name.Local == "preserveAspectRatio":
			stretch = strings.TrimSpace(a.Value) == "none"
			kept = append(kept, a)
		default:
			kept = append(kept, a)
		}
	}

	box := ViewBox{Width: float64(width), Height: float64(height)}
	switch {
	case vb != nil:
		box = *vb
	case srcW > 0 && srcH > 0:
		box = ViewBox{Width: srcW, Height: srcH}
	}
	if !stretch {
		box = FitViewBox(box, width, height)
	}

	selfClosing := bytes.HasSuffix(bytes.TrimRight(svg[start:end], " \t\r\n"), []byte("/>"))

	var out bytes.Buffer
	out.Grow(len(svg) + 128)
	out.Write(svg[:start])
	out.WriteString("<")
	out.WriteString(qualifiedName(root.Name))
	fmt.Fprintf(&out, ` xmlns="%s" width="%d" height="%d" viewBox="%s"`, Namespace, width, height, box)
	for _, a := range kept {
		out.WriteByte(' ')
		out.WriteString(qualifiedName(a.Name))
		out.WriteString(`="`)
		if err := xml.EscapeText(&out, []byte(a.Value)); err != nil {
			return nil, fmt.Errorf("svgroot: %w", err)
		}
		out.WriteByte('"')
	}
	if selfClosing {
		out.WriteString("/>")
	} else {
		out.WriteString(">")
	}
	out.Write(svg[end:])
	return out.Bytes(), nil
}

// findRoot locates the byte span of the first start element.
func findRoot(svg []byte) (int, int, xml.StartElement, error) {
	dec := xml.NewDecoder(bytes.NewReader(svg))
	for {
		start := int(dec.InputOffset())
		tok, err := dec.RawToken()
		if err == io.EOF {
			return 0, 0, xml.StartElement{}, ErrNoSVGRoot
		}
		if err != nil {
			return 0, 0, xml.StartElement{}, fmt.Errorf("svgroot: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local != "svg" {
			return 0, 0, xml.StartElement{}, ErrNoSVGRoot
		}
		return start, int(dec.InputOffset()), se, nil
	}
}

// FitViewBox widens or heightens vb around its center so that it has the
// aspect ratio of width x height.
func FitViewBox(vb ViewBox, width, height int) ViewBox {
	if vb.Width <= 0 || vb.Height <= 0 {
		return ViewBox{Width: float64(width), Height: float64(height)}
	}
	target := float64(width) / float64(height)
	current := vb.Width / vb.Height
	if math.Abs(current-target) < 1e-9 {
		return vb
	}
	switch {
	case current < target:
		w := vb.Height * target
		vb.X -= (w - vb.Width) / 2
		vb.Width = w
	case current > target:
		h := vb.Width / target
		vb.Y -= (h - vb.Height) / 2
		vb.Height = h
	}
	return vb
}

func parseViewBox(s string) (ViewBox, bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return ViewBox{}, false
	}
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return ViewBox{}, false
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return ViewBox{}, false
	}
	return ViewBox{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, true
}

// parseLength accepts unitless and px lengths. Percentages and other units are rejected.
func parseLength(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
