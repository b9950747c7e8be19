package emu

// regChannel maps a register channel number (0-17) to the chip channel.
func (c *Chip) regChannel(n int) int {
	if n >= 9 {
		n += 16 - 9
	}
	return int(c.tables.chanIndex[n])
}

// ReadReg returns the latched value of a register, masked to the bits
// the chip keeps. Write-only and unmapped registers read as 0.
func (c *Chip) ReadReg(reg uint32) uint8 {
	switch {
	case reg == 0x01:
		if c.waveFormMask != 0 {
			return 0x20
		}
		return 0
	case reg == 0x08:
		return c.reg08
	case reg == 0xbd:
		return c.regBD
	case reg == 0x104:
		return c.reg104 & 0x3f
	case reg == 0x105:
		return c.opl3Active & 1
	}
	switch (reg & 0xf0) >> 4 {
	case 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0e, 0x0f:
		op := c.regOp(reg)
		if op == nil {
			return 0
		}
		switch (reg & 0xe0) >> 5 {
		case 1:
			return op.reg20
		case 2:
			return op.reg40
		case 3:
			return op.reg60
		case 4:
			return op.reg80
		default:
			// Waveform bits the current mode allows
			return op.waveform
		}
	case 0x0a, 0x0b, 0x0c:
		ci := c.regChan(reg)
		if ci < 0 {
			return 0
		}
		ch := &c.ch[ci]
		switch (reg & 0xf0) >> 4 {
		case 0x0a:
			return uint8(ch.chanData)
		case 0x0b:
			return ch.regB0 & 0x3f
		default:
			if c.opl3Active == 0 {
				return ch.regC0 & 0x0f
			}
			return ch.regC0 & 0x3f
		}
	}
	return 0
}

// Levels writes a 0..1 loudness per register channel into dst, based on
// the carrier attenuation, and returns the number written.
func (c *Chip) Levels(dst []float32) int {
	n := len(dst)
	if n > 18 {
		n = 18
	}
	for i := 0; i < n; i++ {
		op := &c.ch[c.regChannel(i)].op[1]
		if op.state == stateOff {
			dst[i] = 0
			continue
		}
		att := op.totalLevel + op.volume
		if att >= envLimit {
			dst[i] = 0
			continue
		}
		dst[i] = 1 - float32(att)/envLimit
	}
	return n
}
