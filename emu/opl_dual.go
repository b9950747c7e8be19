package emu

// DualOPL2 pairs two OPL2 chips sharing one set of tables. Register bank
// 0 drives the left chip and bank 1 (addresses 0x100 and up) the right
// chip. Output is always stereo with each chip hard panned.
type DualOPL2 struct {
	chips [2]*Chip
	mono  [generateChunk]int32
	out   [generateChunk * 2]int32
}

// NewDualOPL2 creates both chips for rate, building the tables and the
// rate calibration once.
func NewDualOPL2(rate uint32) *DualOPL2 {
	t := NewTables()
	r := NewRateTable(rate)
	d := &DualOPL2{}
	for i := range d.chips {
		c := &Chip{tables: t}
		c.SetupShared(r)
		d.chips[i] = c
	}
	return d
}

// Chip returns the left (0) or right (1) chip.
func (d *DualOPL2) Chip(i int) *Chip {
	return d.chips[i&1]
}

// WriteReg routes a write by its bank bit. OPL3 enable and four-operator
// registers do not exist on an OPL2 and are dropped.
func (d *DualOPL2) WriteReg(addr uint32, val uint8) {
	reg := addr & 0xff
	if reg == 0x05 || reg == 0x04 {
		return
	}
	d.chips[(addr>>8)&1].WriteReg(reg, val)
}

// Generate renders count stereo frames into sink.
func (d *DualOPL2) Generate(sink MixerSink, count int) {
	for count > 0 {
		n := count
		if n > generateChunk {
			n = generateChunk
		}
		clear(d.out[:n*2])
		for side, c := range d.chips {
			c.GenerateBlock2(n, d.mono[:n])
			for i := 0; i < n; i++ {
				d.out[i*2+side] = d.mono[i]
			}
		}
		sink.AddSamplesStereo(n, d.out[:n*2])
		count -= n
	}
}

// Levels writes the left chip's nine channel levels followed by the
// right chip's into dst and returns the number written.
func (d *DualOPL2) Levels(dst []float32) int {
	var l [9]float32
	n := 0
	for _, c := range d.chips {
		c.Levels(l[:])
		n += copy(dst[n:], l[:])
	}
	return n
}
