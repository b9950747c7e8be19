package emu

import "math"

// RateTable holds the sample-rate dependent increments for one chip.
type RateTable struct {
	rate        uint32
	scale       float64
	freqMul     [16]uint32
	linearRates [76]uint32
	attackRates [76]uint32
	lfoAdd      uint32
	noiseAdd    uint32
}

// NewRateTable calibrates the phase and envelope increments for a chip
// rendering at rate samples per second.
func NewRateTable(rate uint32) *RateTable {
	r := &RateTable{rate: rate}
	r.scale = oplRate / float64(rate)

	// LFO and noise step once per native sample
	r.noiseAdd = uint32(0.5 + r.scale*(1<<lfoShift))
	r.lfoAdd = r.noiseAdd

	// Frequency multipliers, 2x table so halve through the shift
	freqScale := uint32(0.5 + r.scale*(1<<(waveShift-1-10)))
	for i := 0; i < 16; i++ {
		r.freqMul[i] = freqScale * uint32(freqCreateTable[i])
	}

	// Decay and release increase linearly, one step every 8 native samples
	for i := 0; i < 76; i++ {
		index, shift := envelopeSelect(uint8(i))
		r.linearRates[i] = uint32(r.scale * float64(uint32(envelopeIncreaseTable[index])<<(rateShift+envExtra-shift-3)))
	}

	for i := 0; i < 62; i++ {
		r.attackRates[i] = r.searchAttack(uint8(i))
	}
	// Instant attack
	for i := 62; i < 76; i++ {
		r.attackRates[i] = 8 << rateShift
	}
	return r
}

// Rate returns the output sample rate the table was built for.
func (r *RateTable) Rate() uint32 {
	return r.rate
}

// searchAttack finds the attack increment whose simulated curve reaches
// full volume closest to the native sample count, in at most 16 passes.
func (r *RateTable) searchAttack(val uint8) uint32 {
	index, shift := envelopeSelect(val)

	// Samples the attack takes at the output rate
	original := int32(uint32(float64(uint32(attackSamplesTable[index])<<shift) / r.scale))
	guessAdd := int32(uint32(r.scale * float64(uint32(envelopeIncreaseTable[index])<<(rateShift-shift-3))))
	bestAdd := guessAdd
	bestDiff := uint32(1 << 30)

	for pass := 0; pass < 16; pass++ {
		samples := simulateAttack(uint32(guessAdd), original*2)
		diff := original - samples
		lDiff := uint32(diff)
		if diff < 0 {
			lDiff = uint32(-diff)
		}
		if lDiff < bestDiff {
			bestDiff = lDiff
			bestAdd = guessAdd
			if bestDiff == 0 {
				break
			}
		}
		// Linear correction, an overshoot is fixed by a later pass
		correct := float64(original-diff) / float64(original)
		guessAdd = int32(uint32(float64(guessAdd) * correct))
		if diff < 0 {
			guessAdd++
		}
	}
	return uint32(bestAdd)
}

// simulateAttack runs an attack from full attenuation and returns the
// number of samples until the volume passes zero, capped at limit.
func simulateAttack(add uint32, limit int32) int32 {
	volume := int32(envMax)
	samples := int32(0)
	count := uint32(0)
	for volume > 0 && samples < limit {
		count += add
		change := int32(count >> rateShift)
		count &= rateMask
		if change != 0 {
			volume += (^volume * change) >> 3
		}
		samples++
	}
	return samples
}

// attackLength reports how many samples an attack at rate val takes with
// the calibrated increment, for inspection and tests.
func (r *RateTable) attackLength(val uint8) (got, want int32) {
	index, shift := envelopeSelect(val)
	want = int32(math.Floor(float64(uint32(attackSamplesTable[index])<<shift) / r.scale))
	got = simulateAttack(r.attackRates[val], want*2)
	return got, want
}
