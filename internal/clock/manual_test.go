package clock

import (
	"testing"
	"time"
)

func TestManualAdvanceDelivers(t *testing.T) {
	m := NewManual()
	t1 := m.NewTicker(time.Second)
	t2 := m.NewTicker(time.Minute)

	now := time.Now()
	m.Advance(now)

	for i, tk := range []Ticker{t1, t2} {
		select {
		case got := <-tk.C():
			if !got.Equal(now) {
				t.Fatalf("ticker %d delivered %v, want %v", i, got, now)
			}
		default:
			t.Fatalf("ticker %d did not receive the tick", i)
		}
	}
}

func TestManualStoppedTickerSkipped(t *testing.T) {
	m := NewManual()
	tk := m.NewTicker(time.Second)
	if got := m.Active(); got != 1 {
		t.Fatalf("Active() = %d, want 1", got)
	}

	tk.Stop()
	if got := m.Active(); got != 0 {
		t.Fatalf("Active() after Stop = %d, want 0", got)
	}

	m.Advance(time.Now())
	select {
	case <-tk.C():
		t.Fatalf("stopped ticker should not receive ticks")
	default:
	}
}
