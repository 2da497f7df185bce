package gesture

import (
	"testing"
	"time"
)

func TestTickSub(t *testing.T) {
	tests := []struct {
		name string
		t, u Tick
		want int32
	}{
		{name: "forward", t: 150, u: 100, want: 50},
		{name: "equal", t: 42, u: 42, want: 0},
		{name: "backward", t: 100, u: 150, want: -50},
		{name: "across rollover", t: 0x10, u: 0xFFFFFFF0, want: 0x20},
		{name: "max forward", t: 0x7FFFFFFF, u: 0, want: 0x7FFFFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.t.Sub(tt.u); got != tt.want {
				t.Errorf("Tick(%d).Sub(%d) = %d, want %d", tt.t, tt.u, got, tt.want)
			}
		})
	}
}

func TestTickAddWraps(t *testing.T) {
	if got := Tick(0xFFFFFFFF).Add(2); got != 1 {
		t.Errorf("Add() = %d, want 1", got)
	}
}

func TestTickFromTime(t *testing.T) {
	ts := time.UnixMilli(1<<32 + 1234)
	if got := TickFromTime(ts); got != 1234 {
		t.Errorf("TickFromTime() = %d, want 1234", got)
	}
}
