package emu

// Register 0x20 bit masks.
const (
	maskKSR     = 0x10 // Key scale rate
	maskSustain = 0x20 // Envelope holds at the sustain level
	maskVibrato = 0x40
	maskTremolo = 0x80
)

// oplOperator is one envelope and phase generator slot.
type oplOperator struct {
	// Waveform selection resolved through the shared wave table
	waveBase  int
	waveMask  uint32
	waveStart uint32

	waveIndex   uint32 // 10.22 phase accumulator
	waveAdd     uint32 // Phase increment without vibrato
	waveCurrent uint32 // Phase increment for the current block

	chanData uint32 // Copy of the owning channel's frequency word
	freqMul  uint32
	vibrato  uint32 // Vibrato delta at full depth

	sustainLevel int32
	totalLevel   int32 // Level, key scaling and tremolo excluded
	currentLevel uint32
	volume       int32 // Envelope attenuation

	attackAdd  uint32
	decayAdd   uint32
	releaseAdd uint32
	rateIndex  uint32 // Envelope fraction carry

	rateZero    uint8 // Bit per state set when that state does not move the volume
	keyOnBits   uint8 // Bit 0 normal key-on, bit 1 percussion key-on
	reg20       uint8
	reg40       uint8
	reg60       uint8
	reg80       uint8
	regE0       uint8
	waveform    uint8 // Waveform in use after masking
	state       uint8
	tremoloMask uint8
	vibStrength uint8
	ksr         uint8
}

// reset puts the operator in its power-on state.
func (op *oplOperator) reset() {
	*op = oplOperator{}
	op.setWaveform(0)
	op.state = stateOff
	op.rateZero = 1 << stateOff
	op.sustainLevel = envMax
	op.currentLevel = envMax
	op.totalLevel = envMax
	op.volume = envMax
}

// setWaveform points the operator at one of the eight wave shapes.
func (op *oplOperator) setWaveform(w uint8) {
	op.waveform = w
	op.waveBase = int(waveBaseTable[w])
	op.waveStart = uint32(waveStartTable[w]) << waveShift
	op.waveMask = uint32(waveMaskTable[w])
}

// write20 handles AM/VIB/EGT/KSR/MULT.
func (op *oplOperator) write20(c *Chip, val uint8) {
	change := op.reg20 ^ val
	if change == 0 {
		return
	}
	op.reg20 = val
	op.tremoloMask = uint8(int8(val) >> 7)
	if change&maskKSR != 0 {
		op.updateRates(c)
	}
	if op.reg20&maskSustain != 0 || op.releaseAdd == 0 {
		op.rateZero |= 1 << stateSustain
	} else {
		op.rateZero &^= 1 << stateSustain
	}
	if change&(0x0f|maskVibrato) != 0 {
		op.freqMul = c.rates.freqMul[val&0x0f]
		op.updateFrequency()
	}
}

// write40 handles KSL/TL.
func (op *oplOperator) write40(val uint8) {
	if op.reg40 == val {
		return
	}
	op.reg40 = val
	op.updateAttenuation()
}

// write60 handles AR/DR.
func (op *oplOperator) write60(c *Chip, val uint8) {
	change := op.reg60 ^ val
	op.reg60 = val
	if change&0x0f != 0 {
		op.updateDecay(c)
	}
	if change&0xf0 != 0 {
		op.updateAttack(c)
	}
}

// write80 handles SL/RR.
func (op *oplOperator) write80(c *Chip, val uint8) {
	change := op.reg80 ^ val
	if change == 0 {
		return
	}
	op.reg80 = val
	sustain := val >> 4
	// Sustain level 15 maps to the maximum attenuation
	sustain |= (sustain + 1) & 0x10
	op.sustainLevel = int32(sustain) << (envBits - 5)
	if change&0x0f != 0 {
		op.updateRelease(c)
	}
}

// writeE0 handles the waveform select.
func (op *oplOperator) writeE0(c *Chip, val uint8) {
	if op.regE0 == val {
		return
	}
	op.regE0 = val
	op.setWaveform(val & ((0x3 & c.waveFormMask) | (0x7 & c.opl3Active)))
}

// updateAttenuation recomputes the static attenuation from TL and KSL.
func (op *oplOperator) updateAttenuation() {
	kslBase := (op.chanData >> shiftKSLBase) & 0xff
	tl := uint32(op.reg40 & 0x3f)
	kslShift := kslShiftTable[op.reg40>>6]
	op.totalLevel = int32(tl << (envBits - 7))
	op.totalLevel += int32((kslBase << envExtra) >> kslShift)
}

// updateFrequency recomputes the phase increment from the channel's
// F-number and block and the operator's multiplier.
func (op *oplOperator) updateFrequency() {
	freq := op.chanData & (1<<10 - 1)
	block := (op.chanData >> 10) & 7
	op.waveAdd = (freq << block) * op.freqMul
	if op.reg20&maskVibrato != 0 {
		op.vibStrength = uint8(freq >> 7)
		op.vibrato = (uint32(op.vibStrength) << block) * op.freqMul
	} else {
		op.vibStrength = 0
		op.vibrato = 0
	}
}

// updateRates reloads all envelope rates when the key scale changes.
func (op *oplOperator) updateRates(c *Chip) {
	newKsr := uint8(op.chanData >> shiftKeyCode)
	if op.reg20&maskKSR == 0 {
		newKsr >>= 2
	}
	if op.ksr == newKsr {
		return
	}
	op.ksr = newKsr
	op.updateAttack(c)
	op.updateDecay(c)
	op.updateRelease(c)
}

func (op *oplOperator) updateAttack(c *Chip) {
	rate := op.reg60 >> 4
	if rate != 0 {
		val := rate<<2 + op.ksr
		op.attackAdd = c.rates.attackRates[val]
		op.rateZero &^= 1 << stateAttack
	} else {
		op.attackAdd = 0
		op.rateZero |= 1 << stateAttack
	}
}

func (op *oplOperator) updateDecay(c *Chip) {
	rate := op.reg60 & 0x0f
	if rate != 0 {
		val := rate<<2 + op.ksr
		op.decayAdd = c.rates.linearRates[val]
		op.rateZero &^= 1 << stateDecay
	} else {
		op.decayAdd = 0
		op.rateZero |= 1 << stateDecay
	}
}

func (op *oplOperator) updateRelease(c *Chip) {
	rate := op.reg80 & 0x0f
	if rate != 0 {
		val := rate<<2 + op.ksr
		op.releaseAdd = c.rates.linearRates[val]
		op.rateZero &^= 1 << stateRelease
		if op.reg20&maskSustain == 0 {
			op.rateZero &^= 1 << stateSustain
		}
	} else {
		op.releaseAdd = 0
		op.rateZero |= 1 << stateRelease
		if op.reg20&maskSustain == 0 {
			op.rateZero |= 1 << stateSustain
		}
	}
}

// silent reports whether the operator is inaudible and will stay so
// until the next key-on.
func (op *oplOperator) silent() bool {
	if !envSilent(uint32(op.totalLevel + op.volume)) {
		return false
	}
	return op.rateZero&(1<<op.state) != 0
}

// prepare loads the LFO state for the coming block.
func (op *oplOperator) prepare(c *Chip) {
	op.currentLevel = uint32(op.totalLevel) + uint32(c.tremoloValue&op.tremoloMask)
	op.waveCurrent = op.waveAdd
	if op.vibStrength>>c.vibratoShift != 0 {
		add := int32(op.vibrato >> c.vibratoShift)
		// Sign is 0 or -1, conditional negate
		neg := int32(c.vibratoSign)
		add = (add ^ neg) - neg
		op.waveCurrent += uint32(add)
	}
}

// forwardWave advances the phase and returns the 10-bit table position.
func (op *oplOperator) forwardWave() uint32 {
	op.waveIndex += op.waveCurrent
	return op.waveIndex >> waveShift
}

// getWave looks up the waveform at index scaled by attenuation vol.
func (op *oplOperator) getWave(t *Tables, index, vol uint32) int32 {
	return int32(t.wave[op.waveBase+int(index&op.waveMask)]) * int32(t.mul[vol]) >> mulShift
}

// getSample produces the next output for phase modulation mod.
func (op *oplOperator) getSample(t *Tables, mod int32) int32 {
	vol := op.forwardVolume()
	if envSilent(vol) {
		// Phase keeps running while inaudible
		op.waveIndex += op.waveCurrent
		return 0
	}
	index := op.forwardWave()
	index += uint32(mod)
	return op.getWave(t, index, vol)
}
