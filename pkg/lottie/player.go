package lottie

// Player holds a seek position within a document. It renders on demand and
// never advances on its own, so seeking to the same frame twice yields the same scene.
type Player struct {
	doc   *Document
	frame float64
}

// NewPlayer returns a player positioned at the document's in point.
func NewPlayer(doc *Document) *Player {
	return &Player{doc: doc, frame: doc.InPoint}
}

// Document returns the underlying document.
func (p *Player) Document() *Document {
	return p.doc
}

// Seek moves the player to an absolute frame, clamped to [InPoint, OutPoint].
func (p *Player) Seek(frame float64) {
	p.frame = clamp(frame, p.doc.InPoint, p.doc.OutPoint)
}

// Frame returns the current frame.
func (p *Player) Frame() float64 {
	return p.frame
}

// RenderSVG renders the scene at the current frame.
// The root element carries the document viewBox; callers size it for output.
func (p *Player) RenderSVG() ([]byte, error) {
	if !p.doc.renderable(p.doc.Layers, 0) {
		return nil, ErrEmptyScene
	}
	r := newSVGWriter(p.doc)
	r.open()
	r.layers(p.doc.Layers, p.frame, Identity(), 1, 0)
	r.close()
	return r.bytes(), nil
}
