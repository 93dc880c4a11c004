package clock

import (
	"testing"
	"time"
)

func TestNewSourcePrefersBackground(t *testing.T) {
	src, err := NewSource()
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if _, ok := src.(*Background); !ok {
		t.Fatalf("NewSource returned %T, want *Background when the probe delivers", src)
	}
}

func TestBackgroundTickerDelivers(t *testing.T) {
	tk := NewBackground().NewTicker(minInterval)
	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatalf("background ticker delivered nothing")
	}
	tk.Stop()
	tk.Stop()
}

func TestDegradedTickerDelivers(t *testing.T) {
	tk := NewDegraded().NewTicker(minInterval)
	defer tk.Stop()
	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatalf("degraded ticker delivered nothing")
	}
}
