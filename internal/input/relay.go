package input

import "sync"

// Point is a pointer or touch position in client coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RotateFunc receives the movement since the previous pointer position.
type RotateFunc func(deltaX, deltaY float64)

// Relay turns pointer and touch drags into incremental rotation deltas.
// Touch and mouse drags are tracked independently. Relay is safe for
// concurrent use; rotate is called without the relay's lock held.
type Relay struct {
	mu     sync.Mutex
	touch  *Point
	mouse  *Point
	rotate RotateFunc
}

// NewRelay creates a relay that reports deltas to rotate. A nil rotate makes
// moves update the drag state only.
func NewRelay(rotate RotateFunc) *Relay {
	return &Relay{rotate: rotate}
}

// TouchStart begins a touch drag when exactly one contact is down.
func (r *Relay) TouchStart(points []Point) {
	if len(points) != 1 {
		return
	}
	r.mu.Lock()
	p := points[0]
	r.touch = &p
	r.mu.Unlock()
}

// TouchMove reports the movement of the first contact since the last
// recorded touch position.
func (r *Relay) TouchMove(points []Point) {
	if len(points) == 0 {
		return
	}
	r.move(&r.touch, points[0])
}

// TouchEnd ends the touch drag.
func (r *Relay) TouchEnd() {
	r.mu.Lock()
	r.touch = nil
	r.mu.Unlock()
}

// MouseDown begins a mouse drag at p.
func (r *Relay) MouseDown(p Point) {
	r.mu.Lock()
	r.mouse = &p
	r.mu.Unlock()
}

// MouseMove reports the movement since the last recorded mouse position.
func (r *Relay) MouseMove(p Point) {
	r.move(&r.mouse, p)
}

// MouseUp ends the mouse drag.
func (r *Relay) MouseUp() {
	r.mu.Lock()
	r.mouse = nil
	r.mu.Unlock()
}

// Dragging reports whether a touch or mouse drag is in progress.
func (r *Relay) Dragging() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.touch != nil || r.mouse != nil
}

func (r *Relay) move(origin **Point, p Point) {
	r.mu.Lock()
	if *origin == nil {
		r.mu.Unlock()
		return
	}
	dx, dy := p.X-(*origin).X, p.Y-(*origin).Y
	*origin = &p
	rotate := r.rotate
	r.mu.Unlock()

	if rotate != nil {
		rotate(dx, dy)
	}
}
