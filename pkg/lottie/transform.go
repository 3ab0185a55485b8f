package lottie

import "math"

// Transform is a layer or group transform.
type Transform struct {
	Anchor   *Value    `json:"a"`
	Position *Position `json:"p"`
	Scale    *Value    `json:"s"`
	Rotation *Value    `json:"r"`
	RotateZ  *Value    `json:"rz"`
	Opacity  *Value    `json:"o"`
}

// Matrix returns the local transform at a frame.
// Points are moved by -anchor, scaled, rotated, then moved by position.
func (t *Transform) Matrix(frame float64) Matrix {
	if t == nil {
		return Identity()
	}
	ax, ay := t.Anchor.Vec2(frame, 0, 0)
	px, py := t.Position.Vec2(frame)
	sx, sy := t.Scale.Vec2(frame, 100, 100)
	rot := t.Rotation
	if rot == nil {
		rot = t.RotateZ
	}
	deg := rot.Scalar(frame, 0)

	m := Translate(-ax, -ay)
	m = Scale(sx/100, sy/100).Mul(m)
	m = Rotate(deg).Mul(m)
	m = Translate(px, py).Mul(m)
	return m
}

// OpacityAt returns the opacity in [0,1].
func (t *Transform) OpacityAt(frame float64) float64 {
	if t == nil {
		return 1
	}
	return clamp(t.Opacity.Scalar(frame, 100)/100, 0, 1)
}

// Matrix is a 2D affine transform in SVG order:
// x' = A*x + C*y + E, y' = B*x + D*y + F.
type Matrix struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{A: 1, D: 1}
}

// Translate returns a translation.
func Translate(x, y float64) Matrix {
	return Matrix{A: 1, D: 1, E: x, F: y}
}

// Scale returns a scale about the origin.
func Scale(x, y float64) Matrix {
	return Matrix{A: x, D: y}
}

// Rotate returns a clockwise rotation in degrees (y axis points down).
func Rotate(deg float64) Matrix {
	rad := deg * math.Pi / 180
	s, c := math.Sincos(rad)
	return Matrix{A: c, B: s, C: -s, D: c}
}

// Mul returns m × n, the transform that applies n first and then m.
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

// Apply transforms a point.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.E, m.B*x + m.D*y + m.F
}

// ScaleFactor approximates the uniform scale of the transform, used for stroke widths.
func (m Matrix) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(m.A*m.D - m.B*m.C))
}
