package emu

import "math"

// Timer tick lengths in microseconds.
const (
	timer1Scale = 80
	timer2Scale = 320
)

// oplTimer is one of the two programmable countdown timers. Time is in
// milliseconds on the chip's own sample timeline.
type oplTimer struct {
	start    float64 // Time of the next overflow
	delay    float64 // Milliseconds from load to overflow
	counter  uint8   // Preset loaded from register 0x02 or 0x03
	enabled  bool
	overflow bool
	masked   bool
}

// update raises the overflow flag once the timer has expired. Call before
// any change to the timer.
func (t *oplTimer) update(now float64) {
	if !t.enabled || t.delay == 0 {
		return
	}
	if now-t.start >= 0 && !t.masked {
		t.overflow = true
	}
}

// reset clears the overflow flag and resyncs to the next period.
func (t *oplTimer) reset(now float64) {
	t.overflow = false
	if t.delay == 0 || !t.enabled {
		return
	}
	rem := math.Mod(now-t.start, t.delay)
	t.start = now + (t.delay - rem)
}

func (t *oplTimer) stop() {
	t.enabled = false
}

// begin starts counting from the current preset. A running timer is left alone.
func (t *oplTimer) begin(now float64, scale int) {
	if t.enabled {
		return
	}
	t.enabled = true
	t.delay = 0.001 * float64(256-int(t.counter)) * float64(scale)
	t.start = now + t.delay
}

// oplTimers holds timer 1 and timer 2 and decodes their registers.
type oplTimers struct {
	t [2]oplTimer
}

// write handles registers 0x02-0x04 and reports whether reg was one of them.
func (ts *oplTimers) write(reg uint32, val uint8, now float64) bool {
	switch reg {
	case 0x02:
		ts.t[0].counter = val
	case 0x03:
		ts.t[1].counter = val
	case 0x04:
		if val&0x80 != 0 {
			// IRQ reset
			ts.t[0].reset(now)
			ts.t[1].reset(now)
			return true
		}
		ts.t[0].update(now)
		ts.t[1].update(now)
		if val&0x01 != 0 {
			ts.t[0].begin(now, timer1Scale)
		} else {
			ts.t[0].stop()
		}
		ts.t[0].masked = val&0x40 != 0
		if ts.t[0].masked {
			ts.t[0].overflow = false
		}
		if val&0x02 != 0 {
			ts.t[1].begin(now, timer2Scale)
		} else {
			ts.t[1].stop()
		}
		ts.t[1].masked = val&0x20 != 0
		if ts.t[1].masked {
			ts.t[1].overflow = false
		}
	default:
		return false
	}
	return true
}

// status returns bit 7 IRQ, bit 6 timer 1 and bit 5 timer 2 overflow.
func (ts *oplTimers) status(now float64) uint8 {
	ts.t[0].update(now)
	ts.t[1].update(now)
	var ret uint8
	if ts.t[0].overflow {
		ret |= 0x40 | 0x80
	}
	if ts.t[1].overflow {
		ret |= 0x20 | 0x80
	}
	return ret
}
