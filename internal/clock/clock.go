// Package clock provides the millisecond tick clock used for all timeout
// and retry arithmetic in the provisioner.
//
// Timestamps are 32-bit millisecond counters that wrap roughly every 49
// days, mirroring the uptime counters found on embedded targets. All
// duration comparisons must go through Elapsed, which is safe across the
// wrap boundary; subtracting raw timestamps directly is a bug.
package clock

import "time"

// Clock supplies a monotonic millisecond counter. The counter may wrap;
// callers compare timestamps with Elapsed only.
type Clock interface {
	Millis() uint32
}

// Elapsed returns the number of milliseconds between since and now,
// assuming now was read after since. Unsigned subtraction makes the
// result correct even when the counter has wrapped between the two reads.
func Elapsed(now, since uint32) uint32 {
	return now - since
}

// System is a Clock backed by the process monotonic clock. The counter
// starts at zero when the System clock is created.
type System struct {
	start time.Time
}

// NewSystem creates a System clock anchored at the current instant.
func NewSystem() *System {
	return &System{start: time.Now()}
}

// Millis returns milliseconds since the clock was created, truncated to
// 32 bits.
func (s *System) Millis() uint32 {
	return uint32(time.Since(s.start).Milliseconds())
}

// Fake is a manually advanced Clock for tests.
type Fake struct {
	now uint32
}

// NewFake creates a Fake clock starting at the given millisecond count.
func NewFake(start uint32) *Fake {
	return &Fake{now: start}
}

// Millis returns the current fake time.
func (f *Fake) Millis() uint32 {
	return f.now
}

// Advance moves the fake clock forward by ms milliseconds.
func (f *Fake) Advance(ms uint32) {
	f.now += ms
}

// Set jumps the fake clock to an absolute millisecond count.
func (f *Fake) Set(ms uint32) {
	f.now = ms
}
