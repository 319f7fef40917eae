package preview

import "sync"

// ImageAdapter is the contract a terminal graphics backend implements
// (Kitty/Sixel/iTerm2/Chafa); those protocols themselves are out of
// scope here (§1) — only the interface the core drives them through.
type ImageAdapter interface {
	// ImageShow renders the image at path into rect and returns the
	// actual rect drawn (adapters may clamp to terminal bounds).
	ImageShow(path string, rect Rect) (Rect, error)
	// ImageErase clears whatever was last drawn in rect.
	ImageErase(rect Rect) error
}

// CollisionTracker records the last rect an adapter drew into and flags
// COLLISION when a later widget (e.g. a popup) overlaps it, so the
// preview pipeline knows to re-emit on the next frame (§4.5).
type CollisionTracker struct {
	mu        sync.Mutex
	lastShown Rect
	collision bool
}

// Record stores the rect most recently drawn by the adapter.
func (c *CollisionTracker) Record(rect Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastShown = rect
	c.collision = false
}

// NotifyClear reports that a Clear-style widget was drawn over rect; if
// it overlaps the last shown image, the collision flag is set.
func (c *CollisionTracker) NotifyClear(rect Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastShown.Overlaps(rect) {
		c.collision = true
	}
}

// TakeCollision reports and clears the collision flag.
func (c *CollisionTracker) TakeCollision() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.collision
	c.collision = false
	return v
}

// NopAdapter is a no-op ImageAdapter: it reports every image as drawn at
// its requested rect without emitting anything. Used in headless tests
// and as the default until a real terminal-graphics adapter is wired in
// by the UI collaborator (out of scope here, §1).
type NopAdapter struct{}

func (NopAdapter) ImageShow(_ string, rect Rect) (Rect, error) { return rect, nil }
func (NopAdapter) ImageErase(_ Rect) error                     { return nil }
