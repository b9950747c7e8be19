package emu

// ForwardLFO loads the current vibrato and tremolo values and returns how
// many of samples can be rendered before they change.
func (c *Chip) ForwardLFO(samples uint32) uint32 {
	// Vibrato runs 4x slower than tremolo
	v := vibratoTable[c.vibratoIndex>>2]
	c.vibratoSign = v >> 7
	c.vibratoShift = uint8(v)&7 + c.vibratoStrength
	c.tremoloValue = c.tables.tremolo[c.tremoloIndex] >> c.tremoloStrength

	lfoAdd := c.rates.lfoAdd
	todo := uint32(lfoMax) - c.lfoCounter
	count := (todo + lfoAdd - 1) / lfoAdd
	if count > samples {
		count = samples
		c.lfoCounter += count * lfoAdd
	} else {
		c.lfoCounter += count * lfoAdd
		c.lfoCounter &= lfoMax - 1
		c.vibratoIndex = (c.vibratoIndex + 1) & 31
		if c.tremoloIndex+1 < tremoloTableSize {
			c.tremoloIndex++
		} else {
			c.tremoloIndex = 0
		}
	}
	return count
}

// ForwardNoise advances the rhythm noise generator by one output sample
// and returns the shift register.
func (c *Chip) ForwardNoise() uint32 {
	c.noiseCounter += c.rates.noiseAdd
	count := c.noiseCounter >> lfoShift
	c.noiseCounter &= waveMask
	for ; count > 0; count-- {
		c.noiseValue ^= 0x800302 & (0 - (c.noiseValue & 1))
		c.noiseValue >>= 1
	}
	return c.noiseValue
}
