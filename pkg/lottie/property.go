package lottie

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Keyframe is one keyframe of an animated property.
type Keyframe struct {
	Time  float64   `json:"t"`
	Start []float64 `json:"s"`
	End   []float64 `json:"e"`
	In    *Handle   `json:"i"`
	Out   *Handle   `json:"o"`
	Hold  int       `json:"h"`
}

// Handle is an easing tangent. Each axis is either a scalar or one value per dimension.
type Handle struct {
	X floats `json:"x"`
	Y floats `json:"y"`
}

// floats decodes a JSON number or array of numbers.
type floats []float64

func (f *floats) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var v []float64
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = v
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = floats{v}
	return nil
}

// at returns the component for dimension i, repeating the last one.
func (f floats) at(i int, def float64) float64 {
	if len(f) == 0 {
		return def
	}
	if i >= len(f) {
		return f[len(f)-1]
	}
	return f[i]
}

// Value is an animatable multi-dimensional property such as position, scale or color.
type Value struct {
	Static    []float64
	Keyframes []Keyframe
}

type rawProperty struct {
	Animated int             `json:"a"`
	K        json.RawMessage `json:"k"`
}

// UnmarshalJSON accepts the {"a":0,"k":...} and {"a":1,"k":[keyframes]} forms.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw rawProperty
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	k := bytes.TrimSpace(raw.K)
	if len(k) == 0 {
		return nil
	}
	switch k[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(k, &items); err != nil {
			return err
		}
		if len(items) > 0 && bytes.HasPrefix(bytes.TrimSpace(items[0]), []byte("{")) {
			var kfs []Keyframe
			if err := json.Unmarshal(k, &kfs); err != nil {
				return fmt.Errorf("keyframes: %w", err)
			}
			v.Keyframes = sortKeyframes(kfs)
			return nil
		}
		return json.Unmarshal(k, &v.Static)
	default:
		var n float64
		if err := json.Unmarshal(k, &n); err != nil {
			return err
		}
		v.Static = []float64{n}
		return nil
	}
}

func sortKeyframes(kfs []Keyframe) []Keyframe {
	sort.SliceStable(kfs, func(i, j int) bool { return kfs[i].Time < kfs[j].Time })
	return kfs
}

// IsAnimated reports whether the value has keyframes.
func (v *Value) IsAnimated() bool {
	return v != nil && len(v.Keyframes) > 0
}

// At evaluates the value at a frame. A nil value evaluates to nil.
func (v *Value) At(frame float64) []float64 {
	if v == nil {
		return nil
	}
	if len(v.Keyframes) == 0 {
		return v.Static
	}
	kfs := v.Keyframes
	if frame <= kfs[0].Time || len(kfs) == 1 {
		return firstNonNil(kfs[0].Start, kfs[0].End)
	}
	last := len(kfs) - 1
	if frame >= kfs[last].Time {
		if kfs[last].Start != nil {
			return kfs[last].Start
		}
		return firstNonNil(kfs[last-1].End, kfs[last-1].Start)
	}

	idx := sort.Search(len(kfs), func(i int) bool { return kfs[i].Time > frame }) - 1
	cur, next := kfs[idx], kfs[idx+1]
	from := cur.Start
	to := cur.End
	if to == nil {
		to = next.Start
	}
	if cur.Hold == 1 || to == nil || next.Time <= cur.Time {
		return from
	}

	t := (frame - cur.Time) / (next.Time - cur.Time)
	out := make([]float64, len(from))
	for d := range from {
		eased := t
		if cur.Out != nil && cur.In != nil {
			eased = ease(
				cur.Out.X.at(d, 0), cur.Out.Y.at(d, 0),
				cur.In.X.at(d, 1), cur.In.Y.at(d, 1),
				t,
			)
		}
		end := from[d]
		if d < len(to) {
			end = to[d]
		}
		out[d] = from[d] + (end-from[d])*eased
	}
	return out
}

// Scalar evaluates the first component, or def when the value is absent.
func (v *Value) Scalar(frame, def float64) float64 {
	vals := v.At(frame)
	if len(vals) == 0 {
		return def
	}
	return vals[0]
}

// Vec2 evaluates the first two components.
func (v *Value) Vec2(frame float64, defX, defY float64) (float64, float64) {
	vals := v.At(frame)
	switch len(vals) {
	case 0:
		return defX, defY
	case 1:
		return vals[0], vals[0]
	default:
		return vals[0], vals[1]
	}
}

func firstNonNil(a, b []float64) []float64 {
	if a != nil {
		return a
	}
	return b
}

// Position is a transform position that may be split into separate x and y values.
type Position struct {
	Value
	Split bool
	X     *Value
	Y     *Value
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var split struct {
		S bool   `json:"s"`
		X *Value `json:"x"`
		Y *Value `json:"y"`
	}
	if err := json.Unmarshal(data, &split); err != nil {
		return err
	}
	if split.S {
		p.Split, p.X, p.Y = true, split.X, split.Y
		return nil
	}
	return p.Value.UnmarshalJSON(data)
}

// Vec2 evaluates the position at a frame.
func (p *Position) Vec2(frame float64) (float64, float64) {
	if p == nil {
		return 0, 0
	}
	if p.Split {
		return p.X.Scalar(frame, 0), p.Y.Scalar(frame, 0)
	}
	return p.Value.Vec2(frame, 0, 0)
}
