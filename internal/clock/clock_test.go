package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestElapsed(t *testing.T) {
	tests := []struct {
		name  string
		now   uint32
		since uint32
		want  uint32
	}{
		{"zero", 1000, 1000, 0},
		{"simple", 5000, 2000, 3000},
		{"wraparound", 500, 0xFFFFFF00, 756},
		{"wraparound at boundary", 0, 0xFFFFFFFF, 1},
		{"full range minus one", 0xFFFFFFFF, 0, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Elapsed(tt.now, tt.since))
		})
	}
}

func TestFake(t *testing.T) {
	f := NewFake(100)
	assert.Equal(t, uint32(100), f.Millis())

	f.Advance(50)
	assert.Equal(t, uint32(150), f.Millis())

	f.Set(0xFFFFFFFF)
	f.Advance(2)
	assert.Equal(t, uint32(1), f.Millis(), "fake clock should wrap like the real counter")
}

func TestSystemAdvances(t *testing.T) {
	s := NewSystem()
	a := s.Millis()
	time.Sleep(5 * time.Millisecond)
	b := s.Millis()

	if Elapsed(b, a) == 0 {
		t.Error("system clock did not advance over a 5ms sleep")
	}
}
