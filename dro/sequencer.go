package dro

import "github.com/user-none/emopl/emu"

// Synth accepts register writes, renders audio, reports channel levels
// and saves its state. Both emu.Handler and emu.DualOPL2 satisfy it.
type Synth interface {
	WriteReg(addr uint32, val uint8)
	Generate(sink emu.MixerSink, count int)
	Levels(dst []float32) int
	Serialize() ([]byte, error)
	Deserialize(data []byte) error
}

// NewSynth returns a synth able to play captures recorded from hw.
func NewSynth(hw Hardware, rate uint32) Synth {
	switch hw {
	case HardwareDualOPL2:
		return emu.NewDualOPL2(rate)
	case HardwareOPL2:
		return emu.NewHandler(emu.ModelOPL2, rate)
	}
	return emu.NewHandler(emu.ModelOPL3, rate)
}

// Sequencer replays a capture into a Synth, applying each write on the
// sample that corresponds to its time stamp.
type Sequencer struct {
	synth  Synth
	events []Event
	rate   uint32
	next   int    // Index of the next event to apply
	pos    uint64 // Frames rendered in the current pass
	end    uint64 // Frame at which the capture ends
	loops  int

	// Loop restarts the event list once the capture ends.
	Loop bool
}

// NewSequencer prepares c for playback through s at rate.
func NewSequencer(s Synth, c *Capture, rate uint32) *Sequencer {
	seq := &Sequencer{
		synth:  s,
		events: c.Events,
		rate:   rate,
	}
	seq.end = seq.frameOf(c.Length())
	return seq
}

// frameOf converts milliseconds to a frame position.
func (s *Sequencer) frameOf(ms uint32) uint64 {
	return uint64(ms) * uint64(s.rate) / 1000
}

// Render renders up to frames frames into sink and returns the number
// rendered. Fewer are returned only when the capture has ended and Loop
// is off.
func (s *Sequencer) Render(sink emu.MixerSink, frames int) int {
	done := 0
	for done < frames {
		for s.next < len(s.events) && s.frameOf(s.events[s.next].Time) <= s.pos {
			e := s.events[s.next]
			s.synth.WriteReg(e.Reg, e.Val)
			s.next++
		}

		if s.next >= len(s.events) && s.pos >= s.end {
			if !s.Loop || s.end == 0 {
				break
			}
			s.next = 0
			s.pos = 0
			s.loops++
			continue
		}

		target := s.end
		if s.next < len(s.events) {
			target = s.frameOf(s.events[s.next].Time)
		}
		n := target - s.pos
		if left := uint64(frames - done); n > left {
			n = left
		}
		s.synth.Generate(sink, int(n))
		s.pos += n
		done += int(n)
	}
	return done
}

// RenderThrough renders exactly frames frames into sink. Past the end of
// the capture the synth keeps running so releases die away instead of
// being cut off.
func (s *Sequencer) RenderThrough(sink emu.MixerSink, frames int) {
	if n := s.Render(sink, frames); n < frames {
		s.synth.Generate(sink, frames-n)
	}
}

// Done reports whether every event has been applied and the capture's
// trailing time has been rendered.
func (s *Sequencer) Done() bool {
	return s.next >= len(s.events) && s.pos >= s.end
}

// Synth returns the synth the capture plays through.
func (s *Sequencer) Synth() Synth {
	return s.synth
}

// Position returns the playback position of the current pass in
// milliseconds.
func (s *Sequencer) Position() uint32 {
	return uint32(s.pos * 1000 / uint64(s.rate))
}

// Loops returns how many times playback has wrapped to the start.
func (s *Sequencer) Loops() int {
	return s.loops
}
