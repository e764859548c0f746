package overlay

import (
	"strconv"
	"sync"
)

// Offset is the displacement of the text block's centre from the image
// centre, in CSS pixels of the preview.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Positioner tracks the overlay offset while the user drags the text around.
// Movement follows the pointer one to one: no inertia, snapping or clamping.
type Positioner struct {
	mu       sync.Mutex
	offset   Offset
	dragging bool
	lastX    float64
	lastY    float64
	onChange func(Offset)
}

// NewPositioner returns a positioner at the image centre.
func NewPositioner() *Positioner {
	return &Positioner{}
}

// OnChange registers fn to be called synchronously after every move. Passing
// nil removes the callback.
func (p *Positioner) OnChange(fn func(Offset)) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

func (p *Positioner) Offset() Offset {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset
}

func (p *Positioner) Dragging() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dragging
}

// BeginDrag records the pointer position a drag starts from.
func (p *Positioner) BeginDrag(x, y float64) {
	p.mu.Lock()
	p.dragging = true
	p.lastX, p.lastY = x, y
	p.mu.Unlock()
}

// DragTo moves the offset by the pointer delta since the previous event.
// Calls outside a drag are ignored.
func (p *Positioner) DragTo(x, y float64) {
	p.mu.Lock()
	if !p.dragging {
		p.mu.Unlock()
		return
	}
	dx, dy := x-p.lastX, y-p.lastY
	p.lastX, p.lastY = x, y
	p.mu.Unlock()

	p.Translate(dx, dy)
}

// EndDrag freezes the offset at its current value.
func (p *Positioner) EndDrag() {
	p.mu.Lock()
	p.dragging = false
	p.mu.Unlock()
}

func (p *Positioner) Translate(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	p.mu.Lock()
	p.offset.X += dx
	p.offset.Y += dy
	off, fn := p.offset, p.onChange
	p.mu.Unlock()

	if fn != nil {
		fn(off)
	}
}

// Set places the overlay at an absolute offset.
func (p *Positioner) Set(off Offset) {
	p.mu.Lock()
	changed := p.offset != off
	p.offset = off
	fn := p.onChange
	p.mu.Unlock()

	if changed && fn != nil {
		fn(off)
	}
}

// Reset moves the overlay back to the image centre and ends any drag.
func (p *Positioner) Reset() {
	p.mu.Lock()
	p.dragging = false
	p.mu.Unlock()
	p.Set(Offset{})
}

// Transform returns the placement descriptor used by the preview. The element
// is anchored at its own centre, then shifted by the offset.
func Transform(off Offset) string {
	return "translate(-50%, -50%) translate(" + px(off.X) + ", " + px(off.Y) + ")"
}

func px(v float64) string {
	if v == 0 {
		return "0px"
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
