package emu

import "fmt"

// synthMode selects how a channel routes its operators.
type synthMode uint8

const (
	sm2AM synthMode = iota
	sm2FM
	sm3AM
	sm3FM
	sm3FMFM
	sm3AMFM
	sm3FMAM
	sm3AMAM
	sm2Percussion
	sm3Percussion
)

// fourOpModes is indexed by (first C0 & 1) | (second C0 & 1) << 1.
var fourOpModes = [4]synthMode{sm3FMFM, sm3AMFM, sm3FMAM, sm3AMAM}

var synthModeNames = [...]string{
	"2AM", "2FM", "3AM", "3FM", "3FMFM", "3AMFM", "3FMAM", "3AMAM", "2Percussion", "3Percussion",
}

func (m synthMode) String() string {
	if int(m) < len(synthModeNames) {
		return synthModeNames[m]
	}
	return fmt.Sprintf("synthMode(%d)", uint8(m))
}

// step is the number of channels one render of this mode consumes.
func (m synthMode) step() int {
	switch m {
	case sm2AM, sm2FM, sm3AM, sm3FM:
		return 1
	case sm3FMFM, sm3AMFM, sm3FMAM, sm3AMAM:
		return 2
	case sm2Percussion, sm3Percussion:
		return 3
	}
	panic(fmt.Sprintf("opl: unknown synth mode %d", uint8(m)))
}

// operators is the number of operators the mode reads starting at its channel.
func (m synthMode) operators() int {
	return m.step() * 2
}

func (m synthMode) stereo() bool {
	return m != sm2AM && m != sm2FM && m != sm2Percussion
}

// oplChannel is one two-operator voice.
type oplChannel struct {
	op       [2]oplOperator
	chanData uint32   // F-number, block, KSL base and key code, see shiftKSLBase
	old      [2]int32 // Last two operator 0 outputs for feedback

	feedback  uint8 // Right shift applied to the feedback sum
	regB0     uint8
	regC0     uint8
	fourMask  uint8 // Bit in 0x104 pairing this channel, 0x80 second half, 0x40 percussion
	maskLeft  int32
	maskRight int32
	mode      synthMode
}

func (ch *oplChannel) reset() {
	ch.op[0].reset()
	ch.op[1].reset()
	ch.chanData = 0
	ch.old = [2]int32{}
	ch.feedback = 31
	ch.regB0 = 0
	ch.regC0 = 0
	ch.maskLeft = -1
	ch.maskRight = -1
	ch.mode = sm2FM
}

// op resolves operator n of the group starting at channel ci. Operators
// 2-5 belong to the following channels, which is how four-operator and
// percussion groups reach their partners.
func (c *Chip) op(ci, n int) *oplOperator {
	return &c.ch[ci+n>>1].op[n&1]
}

// setChanData stores a new frequency word and refreshes what depends on it.
func (c *Chip) setChanData(ci int, data uint32) {
	ch := &c.ch[ci]
	change := ch.chanData ^ data
	ch.chanData = data
	for i := range ch.op {
		op := &ch.op[i]
		op.chanData = data
		op.updateFrequency()
		if change&(0xff<<shiftKSLBase) != 0 {
			op.updateAttenuation()
		}
		if change&(0xff<<shiftKeyCode) != 0 {
			op.updateRates(c)
		}
	}
}

// updateFrequency derives KSL base and key code from the F-number and
// block and pushes the word to the channel and, for a four-operator
// pair, its partner.
func (c *Chip) updateFrequency(ci int, fourOp uint8) {
	data := c.ch[ci].chanData & 0xffff
	kslBase := uint32(c.tables.ksl[data>>6])
	keyCode := (data & 0x1c00) >> 9
	if c.reg08&0x40 != 0 {
		// Note select: F-number bit 8
		keyCode |= (data & 0x100) >> 8
	} else {
		keyCode |= (data & 0x200) >> 9
	}
	data |= keyCode<<shiftKeyCode | kslBase<<shiftKSLBase
	c.setChanData(ci, data)
	if fourOp&0x3f != 0 {
		c.setChanData(ci+1, data)
	}
}

// fourOp returns the channel's active pairing bits. Above 0x80 the
// channel is the silent second half of a pair.
func (c *Chip) fourOp(ci int) uint8 {
	return c.reg104 & c.opl3Active & c.ch[ci].fourMask
}

// writeA0 sets the F-number low byte.
func (c *Chip) writeA0(ci int, val uint8) {
	fourOp := c.fourOp(ci)
	if fourOp > 0x80 {
		return
	}
	ch := &c.ch[ci]
	change := (ch.chanData ^ uint32(val)) & 0xff
	if change != 0 {
		ch.chanData ^= change
		c.updateFrequency(ci, fourOp)
	}
}

// writeB0 sets KEY-ON, BLOCK and the F-number high bits.
func (c *Chip) writeB0(ci int, val uint8) {
	fourOp := c.fourOp(ci)
	if fourOp > 0x80 {
		return
	}
	ch := &c.ch[ci]
	change := (ch.chanData ^ uint32(val)<<8) & 0x1f00
	if change != 0 {
		ch.chanData ^= change
		c.updateFrequency(ci, fourOp)
	}
	keyChange := (val ^ ch.regB0) & 0x20
	ch.regB0 = val
	if keyChange == 0 {
		return
	}
	n := 2
	if fourOp&0x3f != 0 {
		n = 4
	}
	for i := 0; i < n; i++ {
		if val&0x20 != 0 {
			c.op(ci, i).keyOn(keyOnNormal)
		} else {
			c.op(ci, i).keyOff(keyOnNormal)
		}
	}
}

// writeC0 sets pan, FB and CNT.
func (c *Chip) writeC0(ci int, val uint8) {
	ch := &c.ch[ci]
	if ch.regC0 == val {
		return
	}
	ch.regC0 = val
	ch.feedback = feedbackShift(val)
	c.updateSynth(ci)
}

// feedbackShift converts the C0 feedback field to the shift applied to
// the summed operator outputs. Feedback 0 shifts everything out.
func feedbackShift(regC0 uint8) uint8 {
	if fb := (regC0 >> 1) & 7; fb != 0 {
		return 9 - fb
	}
	return 31
}

// modeFor derives a channel's synth mode from the current register state.
func (c *Chip) modeFor(ci int) synthMode {
	ch := &c.ch[ci]
	percussion := ci == 6 && c.regBD&0x20 != 0
	if c.opl3Active == 0 {
		switch {
		case percussion:
			return sm2Percussion
		case ch.regC0&1 != 0:
			return sm2AM
		default:
			return sm2FM
		}
	}
	if c.reg104&ch.fourMask&0x3f != 0 && ch.fourMask&0x80 == 0 {
		sel := ch.regC0&1 | (c.ch[ci+1].regC0&1)<<1
		return fourOpModes[sel]
	}
	switch {
	case percussion:
		return sm3Percussion
	case ch.regC0&1 != 0:
		return sm3AM
	default:
		return sm3FM
	}
}

// updateSynth re-derives the mode and pan of a channel and of its
// four-operator partner.
func (c *Chip) updateSynth(ci int) {
	c.deriveChannel(ci)
	if fm := c.ch[ci].fourMask; fm&0x3f != 0 {
		if fm&0x80 != 0 {
			c.deriveChannel(ci - 1)
		} else {
			c.deriveChannel(ci + 1)
		}
	}
}

func (c *Chip) deriveChannel(ci int) {
	ch := &c.ch[ci]
	ch.mode = c.modeFor(ci)
	if c.opl3Active != 0 {
		ch.maskLeft = panMask(ch.regC0 & 0x10)
		ch.maskRight = panMask(ch.regC0 & 0x20)
	} else {
		ch.maskLeft, ch.maskRight = -1, -1
	}
}

func panMask(bit uint8) int32 {
	if bit != 0 {
		return -1
	}
	return 0
}

// silentGroup reports whether every operator audible in the mode is silent.
func (c *Chip) silentGroup(ci int, mode synthMode) bool {
	switch mode {
	case sm2AM, sm3AM:
		return c.op(ci, 0).silent() && c.op(ci, 1).silent()
	case sm2FM, sm3FM:
		return c.op(ci, 1).silent()
	case sm3FMFM:
		return c.op(ci, 3).silent()
	case sm3AMFM:
		return c.op(ci, 0).silent() && c.op(ci, 3).silent()
	case sm3FMAM:
		return c.op(ci, 1).silent() && c.op(ci, 3).silent()
	case sm3AMAM:
		return c.op(ci, 0).silent() && c.op(ci, 2).silent() && c.op(ci, 3).silent()
	}
	// Percussion always renders
	return false
}

// renderChannel adds samples of channel ci's group to out and returns the
// number of channels consumed.
func (c *Chip) renderChannel(ci, samples int, out []int32) int {
	ch := &c.ch[ci]
	mode := ch.mode
	step := mode.step()

	if c.silentGroup(ci, mode) {
		ch.old = [2]int32{}
		return step
	}

	for n := 0; n < mode.operators(); n++ {
		c.op(ci, n).prepare(c)
	}

	if mode == sm2Percussion || mode == sm3Percussion {
		stereo := mode == sm3Percussion
		for i := 0; i < samples; i++ {
			s := c.percussionSample(ci)
			if stereo {
				out[i*2] += s
				out[i*2+1] += s
			} else {
				out[i] += s
			}
		}
		return step
	}

	t := c.tables
	op0 := c.op(ci, 0)
	op1 := c.op(ci, 1)
	var op2, op3 *oplOperator
	if step == 2 {
		op2 = c.op(ci, 2)
		op3 = c.op(ci, 3)
	}
	stereo := mode.stereo()

	for i := 0; i < samples; i++ {
		mod := ch.feedbackInput()
		ch.old[0] = ch.old[1]
		ch.old[1] = op0.getSample(t, mod)
		out0 := ch.old[0]

		var sample int32
		switch mode {
		case sm2AM, sm3AM:
			sample = out0 + op1.getSample(t, 0)
		case sm2FM, sm3FM:
			sample = op1.getSample(t, out0)
		case sm3FMFM:
			next := op1.getSample(t, out0)
			next = op2.getSample(t, next)
			sample = op3.getSample(t, next)
		case sm3AMFM:
			sample = out0
			next := op1.getSample(t, 0)
			next = op2.getSample(t, next)
			sample += op3.getSample(t, next)
		case sm3FMAM:
			sample = op1.getSample(t, out0)
			next := op2.getSample(t, 0)
			sample += op3.getSample(t, next)
		case sm3AMAM:
			sample = out0
			next := op1.getSample(t, 0)
			sample += op2.getSample(t, next)
			sample += op3.getSample(t, 0)
		}

		if stereo {
			out[i*2] += sample & ch.maskLeft
			out[i*2+1] += sample & ch.maskRight
		} else {
			out[i] += sample
		}
	}
	return step
}

// feedbackInput is the phase modulation fed back into operator 0.
// Feedback 0 disables it entirely.
func (ch *oplChannel) feedbackInput() int32 {
	if ch.feedback >= 31 {
		return 0
	}
	return int32(uint32(ch.old[0]+ch.old[1]) >> ch.feedback)
}

// percussionSample renders one sample of the rhythm group at channel ci:
// bass drum on ci, hi-hat and snare on ci+1, tom and cymbal on ci+2.
func (c *Chip) percussionSample(ci int) int32 {
	t := c.tables
	ch := &c.ch[ci]

	// Bass drum
	mod := ch.feedbackInput()
	ch.old[0] = ch.old[1]
	ch.old[1] = c.op(ci, 0).getSample(t, mod)
	// In AM mode the first operator is not heard
	if ch.regC0&1 != 0 {
		mod = 0
	} else {
		mod = ch.old[0]
	}
	sample := c.op(ci, 1).getSample(t, mod)

	// Excitation shared by hi-hat, snare and cymbal
	noiseBit := c.ForwardNoise() & 1
	hh := c.op(ci, 2)
	sd := c.op(ci, 3)
	tc := c.op(ci, 5)
	c2 := hh.forwardWave()
	c5 := tc.forwardWave()
	var phaseBit uint32
	if ((c2&0x88)^((c2<<5)&0x80))|((c5^(c5<<2))&0x20) != 0 {
		phaseBit = 0x02
	}

	// Hi-hat
	if vol := hh.forwardVolume(); !envSilent(vol) {
		index := phaseBit<<8 | 0x34<<(phaseBit^(noiseBit<<1))
		sample += hh.getWave(t, index, vol)
	}
	// Snare drum
	if vol := sd.forwardVolume(); !envSilent(vol) {
		index := (0x100 + (c2 & 0x100)) ^ (noiseBit << 8)
		sample += sd.getWave(t, index, vol)
	}
	// Tom-tom
	sample += c.op(ci, 4).getSample(t, 0)
	// Top cymbal
	if vol := tc.forwardVolume(); !envSilent(vol) {
		index := (1 + phaseBit) << 8
		sample += tc.getWave(t, index, vol)
	}
	return sample << 1
}
