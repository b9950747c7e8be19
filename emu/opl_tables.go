package emu

import "math"

// Native chip sample rate: 14.31818 MHz / 288.
const oplRate = 14318180.0 / 288.0

// Fixed-point layout of the phase, LFO and envelope counters.
const (
	waveBits  = 10
	waveShift = 32 - waveBits // Phase accumulator is 10.22 fixed-point
	waveMask  = 1<<waveShift - 1

	lfoShift = waveShift - 10
	lfoMax   = 256 << lfoShift // LFO steps after 256 native samples

	envBits  = 9
	envMin   = 0
	envExtra = envBits - 9
	envMax   = 511 << envExtra
	envLimit = (12 * 256) >> (3 - envExtra) // Attenuation at which an operator is inaudible

	rateShift = 24
	rateMask  = 1<<rateShift - 1

	mulShift = 16

	tremoloTableSize = 52
)

// chanData layout: bits 0-9 F-number, 10-12 block, 16-23 KSL base, 24-31 key code.
const (
	shiftKSLBase = 16
	shiftKeyCode = 24
)

// envSilent reports whether a total attenuation is at or beyond audibility.
func envSilent(x uint32) bool {
	return x >= envLimit
}

// kslCreateTable is subtracted from the octave base to form the KSL attenuation.
var kslCreateTable = [16]uint8{
	64, 32, 24, 19,
	16, 12, 11, 10,
	8, 6, 5, 4,
	3, 2, 1, 0,
}

// freqCreateTable is the MULT register mapped to 2x the multiplier (0 = x0.5).
var freqCreateTable = [16]uint8{
	1, 2, 4, 6, 8, 10, 12, 14,
	16, 18, 20, 20, 24, 24, 30, 30,
}

// attackSamplesTable is the number of native samples a full attack takes
// for rates 0-12 at shift 0. The highest rate is instant.
var attackSamplesTable = [13]uint8{
	69, 55, 46, 40,
	35, 29, 23, 20,
	19, 15, 11, 10,
	9,
}

// envelopeIncreaseTable is the attenuation step every 8 samples for rates 0-12.
var envelopeIncreaseTable = [13]uint8{
	4, 5, 6, 7,
	8, 10, 12, 14,
	16, 20, 24, 28,
	32,
}

// Waveform layout inside the shared wave table, in 512 entry intervals.
// Waves overlap so the table is half the size of eight separate waves.
//
//	|    |//\\|____|WAV7|//__|/\  |____|/\/\|
//	|\\//|    |    |WAV7|    |  \/|    |    |
//	|06  |0126|17  |7   |3   |4   |4 5 |5   |
//
// Waveform 6 is waveform 0 shifted and masked.
var (
	waveBaseTable  = [8]uint16{0x000, 0x200, 0x200, 0x800, 0xa00, 0xc00, 0x100, 0x400}
	waveMaskTable  = [8]uint16{1023, 1023, 511, 511, 1023, 1023, 512, 1023}
	waveStartTable = [8]uint16{512, 0, 0, 0, 0, 512, 512, 256}
)

// vibratoTable holds the vibrato shift in the low bits and the sign in
// bit 7. Taking the highest F-number bits of 7 this gives
// 3, 7, 3, 0, -3, -7, -3, 0.
var vibratoTable = [8]int8{
	1, 0, 1, 30,
	1 - 0x80, 0 - 0x80, 1 - 0x80, 30 - 0x80,
}

// kslShiftTable maps the 2-bit KSL register field to a right shift.
var kslShiftTable = [4]uint8{31, 1, 2, 0}

// opSlot is the (channel, operator) pair a register index resolves to.
type opSlot struct {
	ch int8 // -1 when the register index is not wired to an operator
	op int8
}

// Tables holds the immutable lookup tables shared by every Chip.
// Build once with NewTables and hand the same pointer to each Chip.
type Tables struct {
	wave    [8 * 512]int16
	mul     [384]uint16
	ksl     [8 * 16]uint8
	tremolo [tremoloTableSize]uint8

	// chanIndex maps ((reg >> 4) & 0x10) | (reg & 0x0f) to a channel.
	chanIndex [32]int8
	// opIndex maps ((reg >> 3) & 0x20) | (reg & 0x1f) to an operator slot.
	opIndex [64]opSlot
}

// NewTables builds the wave, volume, key scale, tremolo and register
// layout tables. The result is fully deterministic.
func NewTables() *Tables {
	t := &Tables{}

	// Multiplication based volume table
	for i := 0; i < 384; i++ {
		s := i * 8
		val := 0.5 + math.Pow(2.0, -1.0+float64(255-s)*(1.0/256))*(1<<mulShift)
		t.mul[i] = uint16(val)
	}

	// Sine wave base
	for i := 0; i < 512; i++ {
		t.wave[0x0200+i] = int16(math.Sin((float64(i)+0.5)*(math.Pi/512.0)) * 4084)
		t.wave[0x0000+i] = -t.wave[0x200+i]
	}
	// Exponential wave
	for i := 0; i < 256; i++ {
		t.wave[0x700+i] = int16(0.5 + math.Pow(2.0, -1.0+float64(255-i*8)*(1.0/256))*4085)
		t.wave[0x6ff-i] = -t.wave[0x700+i]
	}
	for i := 0; i < 256; i++ {
		// Silence gaps
		t.wave[0x400+i] = t.wave[0]
		t.wave[0x500+i] = t.wave[0]
		t.wave[0x900+i] = t.wave[0]
		t.wave[0xc00+i] = t.wave[0]
		t.wave[0xd00+i] = t.wave[0]
		// Replicated and double speed sines
		t.wave[0x800+i] = t.wave[0x200+i]
		t.wave[0xa00+i] = t.wave[0x200+i*2]
		t.wave[0xb00+i] = t.wave[0x000+i*2]
		t.wave[0xe00+i] = t.wave[0x200+i*2]
		t.wave[0xf00+i] = t.wave[0x200+i*2]
	}

	// Key scale level: octave base minus the F-number correction, x4 to
	// land in the attenuation range.
	for oct := 0; oct < 8; oct++ {
		base := oct * 8
		for i := 0; i < 16; i++ {
			val := base - int(kslCreateTable[i])
			if val < 0 {
				val = 0
			}
			t.ksl[oct*16+i] = uint8(val * 4)
		}
	}

	// Tremolo: triangle up then down
	for i := 0; i < tremoloTableSize/2; i++ {
		val := uint8(i << envExtra)
		t.tremolo[i] = val
		t.tremolo[tremoloTableSize-1-i] = val
	}

	t.buildRegisterLayout()
	return t
}

// buildRegisterLayout fills the register-to-voice tables. Channels are
// stored so that four-operator pairs are adjacent: register channels
// 0,3 / 1,4 / 2,5 become chip channels 0,1 / 2,3 / 4,5, and the same in
// the second bank.
func (t *Tables) buildRegisterLayout() {
	for i := 0; i < 32; i++ {
		index := i & 0xf
		if index >= 9 {
			t.chanIndex[i] = -1
			continue
		}
		if index < 6 {
			index = (index%3)*2 + index/3
		}
		if i >= 16 {
			index += 9
		}
		t.chanIndex[i] = int8(index)
	}

	for i := 0; i < 64; i++ {
		if i%8 >= 6 || (i/8)%4 == 3 {
			t.opIndex[i] = opSlot{ch: -1}
			continue
		}
		chNum := (i/8)*3 + (i%8)%3
		// Second bank starts at 16 to match the channel table gap
		if chNum >= 12 {
			chNum += 16 - 12
		}
		t.opIndex[i] = opSlot{
			ch: t.chanIndex[chNum],
			op: int8((i % 8) / 3),
		}
	}
}

// envelopeSelect splits an effective rate into an increase table index
// and a shift.
func envelopeSelect(val uint8) (index, shift uint8) {
	switch {
	case val < 13*4: // rate 0-12
		return val & 3, 12 - (val >> 2)
	case val < 15*4: // rate 13-14
		return val - 12*4, 0
	default: // rate 15 and up
		return 12, 0
	}
}
