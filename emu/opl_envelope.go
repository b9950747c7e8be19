package emu

// Envelope states. Ordered so the state number indexes rateZero.
const (
	stateOff     = 0
	stateRelease = 1
	stateSustain = 2
	stateDecay   = 3
	stateAttack  = 4
)

// keyOnNormal and keyOnPercussion are the independent key-on sources.
const (
	keyOnNormal     = 0x1
	keyOnPercussion = 0x2
)

// keyOn gates the operator on for source mask. The envelope only
// restarts when no other source was already holding it.
func (op *oplOperator) keyOn(mask uint8) {
	if op.keyOnBits == 0 {
		op.waveIndex = op.waveStart
		op.rateIndex = 0
		op.state = stateAttack
	}
	op.keyOnBits |= mask
}

// keyOff releases source mask. The envelope releases once no source
// holds the operator.
func (op *oplOperator) keyOff(mask uint8) {
	op.keyOnBits &^= mask
	if op.keyOnBits == 0 && op.state != stateOff {
		op.state = stateRelease
	}
}

// rateForward advances the envelope accumulator and returns the whole
// steps taken.
func (op *oplOperator) rateForward(add uint32) int32 {
	op.rateIndex += add
	ret := int32(op.rateIndex >> rateShift)
	op.rateIndex &= rateMask
	return ret
}

// stepVolume runs one sample of the envelope and returns the attenuation.
func (op *oplOperator) stepVolume() int32 {
	vol := op.volume
	switch op.state {
	case stateOff:
		return envMax
	case stateAttack:
		change := op.rateForward(op.attackAdd)
		if change == 0 {
			return vol
		}
		vol += (^vol * change) >> 3
		if vol < envMin {
			op.volume = envMin
			op.rateIndex = 0
			op.state = stateDecay
			return envMin
		}
	case stateDecay:
		vol += op.rateForward(op.decayAdd)
		if vol >= op.sustainLevel {
			// Sustain level 15 decays straight to off
			if vol >= envMax {
				op.volume = envMax
				op.state = stateOff
				return envMax
			}
			op.rateIndex = 0
			op.state = stateSustain
		}
	case stateSustain:
		if op.reg20&maskSustain != 0 {
			return vol
		}
		fallthrough
	case stateRelease:
		vol += op.rateForward(op.releaseAdd)
		if vol >= envMax {
			op.volume = envMax
			op.state = stateOff
			return envMax
		}
	}
	op.volume = vol
	return vol
}

// forwardVolume returns the total attenuation for this sample.
func (op *oplOperator) forwardVolume() uint32 {
	return op.currentLevel + uint32(op.stepVolume())
}
