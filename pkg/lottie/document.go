// Package lottie parses Lottie animation documents and renders their scene graph
// to SVG at an arbitrary frame.
//
// Only the subset of the format needed for flat vector animations is supported:
// precomposition, solid, image, null and shape layers; parenting; layer transforms;
// group, rectangle, ellipse and path shapes with fills and strokes; animated
// properties with bezier easing and hold keyframes. Unsupported layer and shape
// types are skipped.
package lottie

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/user/lottiemp4/pkg/pipeline"
)

// Layer types.
const (
	LayerPrecomp = 0
	LayerSolid   = 1
	LayerImage   = 2
	LayerNull    = 3
	LayerShape   = 4
	LayerText    = 5
)

var (
	// ErrInvalidDocument is returned when a document violates the format invariants.
	ErrInvalidDocument = errors.New("lottie: invalid document")

	// ErrEmptyScene is returned when a document has nothing that can be rendered.
	ErrEmptyScene = errors.New("lottie: no renderable layers")
)

// Document is a parsed animation. It is treated as read-only after Parse.
type Document struct {
	Version   string  `json:"v"`
	Name      string  `json:"nm"`
	FrameRate float64 `json:"fr"`
	InPoint   float64 `json:"ip"`
	OutPoint  float64 `json:"op"`
	Width     int     `json:"w"`
	Height    int     `json:"h"`
	Layers    []Layer `json:"layers"`
	Assets    []Asset `json:"assets"`
}

// Asset is either a precomposition (Layers set) or an image (Path set).
type Asset struct {
	ID       string  `json:"id"`
	Width    int     `json:"w"`
	Height   int     `json:"h"`
	Dir      string  `json:"u"`
	Path     string  `json:"p"`
	Embedded int     `json:"e"`
	Layers   []Layer `json:"layers"`
}

// IsPrecomp reports whether the asset is a precomposition.
func (a Asset) IsPrecomp() bool {
	return a.Layers != nil
}

// Layer is one entry of a layer list.
type Layer struct {
	Type      int        `json:"ty"`
	Name      string     `json:"nm"`
	Index     *int       `json:"ind"`
	Parent    *int       `json:"parent"`
	InPoint   float64    `json:"ip"`
	OutPoint  float64    `json:"op"`
	StartTime float64    `json:"st"`
	Stretch   float64    `json:"sr"`
	Hidden    bool       `json:"hd"`
	Transform *Transform `json:"ks"`
	Shapes    []Shape    `json:"shapes"`
	RefID     string     `json:"refId"`

	// Precomp size
	Width  float64 `json:"w"`
	Height float64 `json:"h"`

	// Solid layer
	SolidColor  string  `json:"sc"`
	SolidWidth  float64 `json:"sw"`
	SolidHeight float64 `json:"sh"`
}

// ActiveAt reports whether the layer is visible at the given frame of its composition.
func (l *Layer) ActiveAt(frame float64) bool {
	if l.Hidden {
		return false
	}
	return frame >= l.InPoint && frame < l.OutPoint
}

// localFrame converts a composition frame to the layer's own time.
func (l *Layer) localFrame(frame float64) float64 {
	sr := l.Stretch
	if sr == 0 {
		sr = 1
	}
	return (frame - l.StartTime) / sr
}

// Parse decodes and validates a document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the document invariants. A bad frame rate or frame range
// matches both ErrInvalidDocument and pipeline.ErrInvalidDuration.
func (d *Document) Validate() error {
	if d.FrameRate <= 0 {
		return fmt.Errorf("%w: %w: frame rate must be positive, got %g", ErrInvalidDocument, pipeline.ErrInvalidDuration, d.FrameRate)
	}
	if d.OutPoint <= d.InPoint {
		return fmt.Errorf("%w: %w: out point %g must be after in point %g", ErrInvalidDocument, pipeline.ErrInvalidDuration, d.OutPoint, d.InPoint)
	}
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: invalid size %dx%d", ErrInvalidDocument, d.Width, d.Height)
	}
	return nil
}

// DurationSeconds returns the playable duration.
func (d *Document) DurationSeconds() float64 {
	return (d.OutPoint - d.InPoint) / d.FrameRate
}

// asset returns the asset with the given id.
func (d *Document) asset(id string) (*Asset, bool) {
	for i := range d.Assets {
		if d.Assets[i].ID == id {
			return &d.Assets[i], true
		}
	}
	return nil, false
}

// renderable reports whether any layer in the list, or in a referenced precomp,
// can produce pixels.
func (d *Document) renderable(layers []Layer, depth int) bool {
	if depth > maxPrecompDepth {
		return false
	}
	for i := range layers {
		l := &layers[i]
		if l.Hidden {
			continue
		}
		switch l.Type {
		case LayerSolid, LayerShape, LayerImage:
			return true
		case LayerPrecomp:
			if a, ok := d.asset(l.RefID); ok && d.renderable(a.Layers, depth+1) {
				return true
			}
		}
	}
	return false
}

const maxPrecompDepth = 16
