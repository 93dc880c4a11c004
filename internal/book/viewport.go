package book

import (
	"math"
	"sync"
)

// scrollTolerance is the offset delta, in pixels, below which a centering
// pass applies no correction. Floating-point noise in measured offsets would
// otherwise make back-to-back passes oscillate.
const scrollTolerance = 1.0

// Viewport describes the measured geometry of the book view at the moment a
// centering pass runs. The caller (the UI layer) reads these once per pass
// so the centerer itself never touches layout.
type Viewport struct {
	Height        float64 // visible viewport height
	ContentHeight float64 // full scrollable content height
	SpreadCenter  float64 // midpoint of the bid/ask boundary marker, in content coordinates
	Offset        float64 // current scroll offset
}

// Centerer keeps the bid/ask boundary centered in the book viewport without
// fighting the user. State is readable synchronously by any in-flight
// scheduled pass, so a pass started before a toggle still observes the
// toggle when it lands.
type Centerer struct {
	mu           sync.Mutex
	autoCenter   bool
	userScrolled bool
	scheduled    bool
}

// NewCenterer returns a Centerer with auto-centering enabled.
func NewCenterer() *Centerer {
	return &Centerer{autoCenter: true}
}

// Schedule marks that the next RunScheduled call should attempt a centering
// pass. Book updates call this instead of centering inline so the actual
// geometry read/write happens once per paint, not once per tick.
func (c *Centerer) Schedule() {
	c.mu.Lock()
	c.scheduled = true
	c.mu.Unlock()
}

// HandleUserScroll records a user-initiated scroll. Auto-centering stands
// down until the flag is reset by re-enabling auto-center or by a market
// change.
func (c *Centerer) HandleUserScroll() {
	c.mu.Lock()
	c.userScrolled = true
	c.mu.Unlock()
}

// SetAutoCenter toggles automatic centering. Turning it back on also clears
// the user-scrolled flag so centering resumes immediately.
func (c *Centerer) SetAutoCenter(on bool) {
	c.mu.Lock()
	c.autoCenter = on
	if on {
		c.userScrolled = false
	}
	c.mu.Unlock()
}

// Reset clears the user-scrolled flag; called on market change.
func (c *Centerer) Reset() {
	c.mu.Lock()
	c.userScrolled = false
	c.scheduled = false
	c.mu.Unlock()
}

// AutoCenter reports whether automatic centering is currently enabled.
func (c *Centerer) AutoCenter() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoCenter
}

// RunScheduled consumes a pending pass and computes the corrected offset.
// It returns ok=false when no pass is pending, auto-centering is off, the
// user has scrolled, or the current offset is already within tolerance:
// running it twice with unchanged geometry never produces a second
// correction.
func (c *Centerer) RunScheduled(v Viewport) (offset float64, ok bool) {
	c.mu.Lock()
	pending := c.scheduled
	c.scheduled = false
	allowed := c.autoCenter && !c.userScrolled
	c.mu.Unlock()

	if !pending || !allowed {
		return 0, false
	}
	return c.center(v)
}

// ForceCenter runs a one-shot centering pass regardless of the enabled flag
// and the user-scrolled state. Manual "re-center" control uses this.
func (c *Centerer) ForceCenter(v Viewport) (offset float64, ok bool) {
	return c.center(v)
}

func (c *Centerer) center(v Viewport) (float64, bool) {
	if v.Height <= 0 || v.ContentHeight <= 0 {
		return 0, false
	}

	target := v.SpreadCenter - v.Height/2
	maxOffset := v.ContentHeight - v.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if target < 0 {
		target = 0
	}
	if target > maxOffset {
		target = maxOffset
	}

	if math.Abs(target-v.Offset) <= scrollTolerance {
		return 0, false
	}
	return target, true
}
