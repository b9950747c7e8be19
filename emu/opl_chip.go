package emu

// Chip emulates one OPL2/OPL3 register set with 18 two-operator channels.
// Channels are stored so four-operator pairs are adjacent; register
// channel numbers are translated through Tables.
//
// A Chip does no locking. Register writes and block generation must be
// serialized by the caller.
type Chip struct {
	tables *Tables
	rates  *RateTable

	ch [18]oplChannel

	lfoCounter   uint32
	noiseCounter uint32
	noiseValue   uint32

	vibratoIndex    uint8
	tremoloIndex    uint8
	vibratoSign     int8 // 0 or -1
	vibratoShift    uint8
	tremoloValue    uint8
	vibratoStrength uint8 // 0 deep, 1 shallow
	tremoloStrength uint8 // 0 deep, 2 shallow

	waveFormMask uint8 // 0x07 when register 0x01 enables waveform select
	opl3Active   uint8 // 0xff when register 0x105 bit 0 is set
	reg08        uint8
	reg104       uint8
	regBD        uint8
}

// NewChip creates a chip using the shared tables t, calibrated for and
// reset at the given sample rate.
func NewChip(t *Tables, rate uint32) *Chip {
	c := &Chip{tables: t}
	c.Setup(rate)
	return c
}

// Setup calibrates the chip for rate and puts every register through a
// full 0xff/0x00 cycle in both OPL3 and OPL2 modes.
func (c *Chip) Setup(rate uint32) {
	if c.rates == nil || c.rates.rate != rate {
		c.rates = NewRateTable(rate)
	}
	c.setupState()
}

// SetupShared is Setup with a rate table built elsewhere, so paired chips
// calibrate only once.
func (c *Chip) SetupShared(r *RateTable) {
	c.rates = r
	c.setupState()
}

func (c *Chip) setupState() {
	for i := range c.ch {
		c.ch[i].reset()
	}
	c.lfoCounter = 0
	c.noiseCounter = 0
	c.noiseValue = 1
	c.vibratoIndex = 0
	c.tremoloIndex = 0
	c.vibratoSign = 0
	c.vibratoShift = 0
	c.tremoloValue = 0
	c.vibratoStrength = 0
	c.tremoloStrength = 0
	c.waveFormMask = 0
	c.opl3Active = 0
	c.reg08 = 0
	c.reg104 = 0
	c.regBD = 0

	// Four-operator pairs (0,1) (2,3) (4,5) in each bank
	for i := 0; i < 3; i++ {
		c.ch[0+i*2].fourMask = 0x00 | 1<<i
		c.ch[1+i*2].fourMask = 0x80 | 1<<i
		c.ch[9+i*2].fourMask = 0x00 | 8<<i
		c.ch[10+i*2].fourMask = 0x80 | 8<<i
	}
	// Rhythm channels
	c.ch[6].fourMask = 0x40
	c.ch[7].fourMask = 0x40
	c.ch[8].fourMask = 0x40

	// Clear everything in OPL3 mode
	c.WriteReg(0x105, 0x1)
	for i := uint32(0); i < 512; i++ {
		if i == 0x105 {
			continue
		}
		c.WriteReg(i, 0xff)
		c.WriteReg(i, 0x00)
	}
	c.WriteReg(0x105, 0x0)
	// Clear everything in OPL2 mode
	for i := uint32(0); i < 255; i++ {
		c.WriteReg(i, 0xff)
		c.WriteReg(i, 0x00)
	}
}

// Rate returns the sample rate the chip renders at.
func (c *Chip) Rate() uint32 {
	return c.rates.rate
}

// OPL3Active reports whether register 0x105 has enabled OPL3 mode.
func (c *Chip) OPL3Active() bool {
	return c.opl3Active != 0
}

// WriteAddr decodes an address port write into the 9-bit register
// address for the following data write. The second bank is only
// reachable in OPL3 mode, except for register 0x105 itself.
func (c *Chip) WriteAddr(port uint32, val uint8) uint32 {
	switch port & 3 {
	case 0:
		return uint32(val)
	case 2:
		if c.opl3Active != 0 || val == 0x05 {
			return 0x100 | uint32(val)
		}
		return uint32(val)
	}
	return 0
}

// regOp resolves an operator register to its operator, or nil.
func (c *Chip) regOp(reg uint32) *oplOperator {
	slot := c.tables.opIndex[((reg>>3)&0x20)|(reg&0x1f)]
	if slot.ch < 0 {
		return nil
	}
	return &c.ch[slot.ch].op[slot.op]
}

// regChan resolves a channel register to its channel index, or -1.
func (c *Chip) regChan(reg uint32) int {
	return int(c.tables.chanIndex[((reg>>4)&0x10)|(reg&0x0f)])
}

// WriteReg applies a write to a 9-bit register address.
func (c *Chip) WriteReg(reg uint32, val uint8) {
	switch (reg & 0xf0) >> 4 {
	case 0x00:
		switch reg {
		case 0x01:
			// Waveform select enable
			if val&0x20 != 0 {
				c.waveFormMask = 0x7
			} else {
				c.waveFormMask = 0
			}
		case 0x104:
			// Four-operator connection select
			if (c.reg104^val)&0x3f == 0 {
				return
			}
			c.reg104 = 0x80 | val&0x3f
			c.updateSynths()
		case 0x105:
			// OPL3 enable
			if (c.opl3Active^val)&1 == 0 {
				return
			}
			if val&1 != 0 {
				c.opl3Active = 0xff
			} else {
				c.opl3Active = 0
			}
			c.updateSynths()
		case 0x08:
			// CSM and note select
			c.reg08 = val
		}
	case 0x02, 0x03:
		if op := c.regOp(reg); op != nil {
			op.write20(c, val)
		}
	case 0x04, 0x05:
		if op := c.regOp(reg); op != nil {
			op.write40(val)
		}
	case 0x06, 0x07:
		if op := c.regOp(reg); op != nil {
			op.write60(c, val)
		}
	case 0x08, 0x09:
		if op := c.regOp(reg); op != nil {
			op.write80(c, val)
		}
	case 0x0a:
		if ci := c.regChan(reg); ci >= 0 {
			c.writeA0(ci, val)
		}
	case 0x0b:
		if reg == 0xbd {
			c.writeBD(val)
		} else if ci := c.regChan(reg); ci >= 0 {
			c.writeB0(ci, val)
		}
	case 0x0c:
		if ci := c.regChan(reg); ci >= 0 {
			c.writeC0(ci, val)
		}
	case 0x0e, 0x0f:
		if op := c.regOp(reg); op != nil {
			op.writeE0(c, val)
		}
	}
}

// updateSynths re-derives every channel's mode.
func (c *Chip) updateSynths() {
	for i := range c.ch {
		c.deriveChannel(i)
	}
}

// writeBD handles AM depth, vibrato depth and the rhythm section.
func (c *Chip) writeBD(val uint8) {
	change := c.regBD ^ val
	if change == 0 {
		return
	}
	c.regBD = val
	if val&0x40 != 0 {
		c.vibratoStrength = 0
	} else {
		c.vibratoStrength = 1
	}
	if val&0x80 != 0 {
		c.tremoloStrength = 0
	} else {
		c.tremoloStrength = 2
	}

	if val&0x20 != 0 {
		if change&0x20 != 0 {
			c.deriveChannel(6)
		}
		c.percussionKey(6, 0, val&0x10 != 0) // Bass drum
		c.percussionKey(6, 1, val&0x10 != 0)
		c.percussionKey(7, 0, val&0x01 != 0) // Hi-hat
		c.percussionKey(7, 1, val&0x08 != 0) // Snare drum
		c.percussionKey(8, 0, val&0x04 != 0) // Tom-tom
		c.percussionKey(8, 1, val&0x02 != 0) // Top cymbal
	} else if change&0x20 != 0 {
		// Rhythm mode off, back to the regular voice
		c.deriveChannel(6)
		for ci := 6; ci <= 8; ci++ {
			c.ch[ci].op[0].keyOff(keyOnPercussion)
			c.ch[ci].op[1].keyOff(keyOnPercussion)
		}
	}
}

func (c *Chip) percussionKey(ci, op int, on bool) {
	if on {
		c.ch[ci].op[op].keyOn(keyOnPercussion)
	} else {
		c.ch[ci].op[op].keyOff(keyOnPercussion)
	}
}

// GenerateBlock2 renders total mono samples of the 9 OPL2 channels into out.
func (c *Chip) GenerateBlock2(total int, out []int32) {
	for total > 0 {
		samples := int(c.ForwardLFO(uint32(total)))
		clear(out[:samples])
		for ci := 0; ci < 9; {
			ci += c.renderChannel(ci, samples, out)
		}
		total -= samples
		out = out[samples:]
	}
}

// GenerateBlock3 renders total interleaved stereo frames of all 18
// channels into out.
func (c *Chip) GenerateBlock3(total int, out []int32) {
	for total > 0 {
		samples := int(c.ForwardLFO(uint32(total)))
		clear(out[:samples*2])
		for ci := 0; ci < 18; {
			ci += c.renderChannel(ci, samples, out)
		}
		total -= samples
		out = out[samples*2:]
	}
}
