package lottie

import "math"

// ease evaluates the cubic bezier timing curve (0,0) (x1,y1) (x2,y2) (1,1) at
// progress x and returns the eased progress.
func ease(x1, y1, x2, y2, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	if x1 == y1 && x2 == y2 {
		return x
	}
	x1 = clamp(x1, 0, 1)
	x2 = clamp(x2, 0, 1)

	t := solveCurveX(x1, x2, x)
	return bezierComponent(y1, y2, t)
}

// bezierComponent evaluates one axis of the curve at parameter t.
func bezierComponent(p1, p2, t float64) float64 {
	mt := 1 - t
	return 3*mt*mt*t*p1 + 3*mt*t*t*p2 + t*t*t
}

func bezierDerivative(p1, p2, t float64) float64 {
	mt := 1 - t
	return 3*mt*mt*p1 + 6*mt*t*(p2-p1) + 3*t*t*(1-p2)
}

// solveCurveX finds t with x(t) == x using Newton iterations and falls back to bisection.
func solveCurveX(x1, x2, x float64) float64 {
	const epsilon = 1e-7

	t := x
	for i := 0; i < 8; i++ {
		err := bezierComponent(x1, x2, t) - x
		if math.Abs(err) < epsilon {
			return t
		}
		d := bezierDerivative(x1, x2, t)
		if math.Abs(d) < 1e-6 {
			break
		}
		t -= err / d
	}

	lo, hi := 0.0, 1.0
	t = x
	for i := 0; i < 64; i++ {
		v := bezierComponent(x1, x2, t)
		if math.Abs(v-x) < epsilon {
			return t
		}
		if v < x {
			lo = t
		} else {
			hi = t
		}
		t = (lo + hi) / 2
	}
	return t
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
