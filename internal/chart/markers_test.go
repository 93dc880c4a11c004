package chart

import (
	"testing"
	"time"

	"github.com/updownhq/terminal/internal/domain"
)

func TestMarkersExpire(t *testing.T) {
	base := time.Now()
	current := base
	mk := NewMarkers()
	mk.now = func() time.Time { return current }

	mk.Record(domain.OrderPlaced{ID: "a", Timestamp: base})
	mk.Record(domain.OrderPlaced{ID: "b", Timestamp: base.Add(2 * time.Minute)})

	if got := len(mk.Active()); got != 2 {
		t.Fatalf("len(Active()) = %d, want 2", got)
	}

	// Past the first marker's retention, before the second's.
	current = base.Add(domain.MarkerRetention + time.Second)
	active := mk.Active()
	if len(active) != 1 {
		t.Fatalf("len(Active()) = %d, want 1", len(active))
	}
	if active[0].ID != "b" {
		t.Fatalf("surviving marker = %q, want %q", active[0].ID, "b")
	}

	// Past both.
	current = base.Add(domain.MarkerRetention + 3*time.Minute)
	if got := len(mk.Active()); got != 0 {
		t.Fatalf("len(Active()) = %d, want 0", got)
	}
}

func TestMarkersClear(t *testing.T) {
	mk := NewMarkers()
	mk.Record(domain.OrderPlaced{ID: "a", Timestamp: time.Now()})
	mk.Clear()
	if got := len(mk.Active()); got != 0 {
		t.Fatalf("len(Active()) after Clear = %d, want 0", got)
	}
}
