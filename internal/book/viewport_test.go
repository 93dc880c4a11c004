package book

import "testing"

func TestCentererRunScheduled(t *testing.T) {
	c := NewCenterer()
	v := Viewport{Height: 100, ContentHeight: 400, SpreadCenter: 200, Offset: 0}

	// No pass pending yet.
	if _, ok := c.RunScheduled(v); ok {
		t.Fatalf("RunScheduled with nothing pending should not center")
	}

	c.Schedule()
	offset, ok := c.RunScheduled(v)
	if !ok {
		t.Fatalf("RunScheduled with a pending pass should center")
	}
	if offset != 150 {
		t.Fatalf("offset = %v, want 150", offset)
	}

	// The pass was consumed; running again does nothing.
	if _, ok := c.RunScheduled(v); ok {
		t.Fatalf("second RunScheduled without a new Schedule should not center")
	}
}

func TestCentererIdempotentWithinTolerance(t *testing.T) {
	c := NewCenterer()
	// Offset already at the target.
	v := Viewport{Height: 100, ContentHeight: 400, SpreadCenter: 200, Offset: 150}

	c.Schedule()
	if _, ok := c.RunScheduled(v); ok {
		t.Fatalf("centering should be a no-op when already within tolerance")
	}

	// Just inside the tolerance band.
	v.Offset = 150.5
	c.Schedule()
	if _, ok := c.RunScheduled(v); ok {
		t.Fatalf("sub-tolerance drift should not produce a correction")
	}
}

func TestCentererClampsToScrollRange(t *testing.T) {
	c := NewCenterer()

	// Spread near the top: target would be negative.
	c.Schedule()
	offset, ok := c.RunScheduled(Viewport{Height: 100, ContentHeight: 400, SpreadCenter: 20, Offset: 50})
	if !ok || offset != 0 {
		t.Fatalf("offset = %v ok=%v, want clamp to 0", offset, ok)
	}

	// Spread near the bottom: target exceeds max offset.
	c.Schedule()
	offset, ok = c.RunScheduled(Viewport{Height: 100, ContentHeight: 400, SpreadCenter: 390, Offset: 0})
	if !ok || offset != 300 {
		t.Fatalf("offset = %v ok=%v, want clamp to 300", offset, ok)
	}
}

func TestCentererStandsDownAfterUserScroll(t *testing.T) {
	c := NewCenterer()
	v := Viewport{Height: 100, ContentHeight: 400, SpreadCenter: 200, Offset: 0}

	c.HandleUserScroll()
	c.Schedule()
	if _, ok := c.RunScheduled(v); ok {
		t.Fatalf("centering should stand down after a user scroll")
	}

	// Re-enabling auto-center clears the scroll flag.
	c.SetAutoCenter(true)
	c.Schedule()
	if _, ok := c.RunScheduled(v); !ok {
		t.Fatalf("re-enabling auto-center should resume centering")
	}
}

func TestCentererDisabled(t *testing.T) {
	c := NewCenterer()
	v := Viewport{Height: 100, ContentHeight: 400, SpreadCenter: 200, Offset: 0}

	c.SetAutoCenter(false)
	c.Schedule()
	if _, ok := c.RunScheduled(v); ok {
		t.Fatalf("centering should not run while disabled")
	}

	// ForceCenter ignores both the toggle and the scroll flag.
	c.HandleUserScroll()
	offset, ok := c.ForceCenter(v)
	if !ok || offset != 150 {
		t.Fatalf("ForceCenter = %v ok=%v, want 150", offset, ok)
	}
}

func TestCentererResetOnMarketChange(t *testing.T) {
	c := NewCenterer()
	v := Viewport{Height: 100, ContentHeight: 400, SpreadCenter: 200, Offset: 0}

	c.HandleUserScroll()
	c.Schedule()
	c.Reset()

	// Reset cleared both the scroll flag and the pending pass.
	if _, ok := c.RunScheduled(v); ok {
		t.Fatalf("Reset should have consumed the pending pass")
	}
	c.Schedule()
	if _, ok := c.RunScheduled(v); !ok {
		t.Fatalf("centering should resume after Reset")
	}
}

func TestCentererDegenerateGeometry(t *testing.T) {
	c := NewCenterer()

	c.Schedule()
	if _, ok := c.RunScheduled(Viewport{Height: 0, ContentHeight: 400, SpreadCenter: 200}); ok {
		t.Fatalf("zero-height viewport should not center")
	}
	c.Schedule()
	if _, ok := c.RunScheduled(Viewport{Height: 100, ContentHeight: 0, SpreadCenter: 200}); ok {
		t.Fatalf("zero-content viewport should not center")
	}
}
