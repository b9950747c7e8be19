package emu

import "testing"

func TestChip_WriteAddr(t *testing.T) {
	c := newTestChip()
	tests := []struct {
		name string
		opl3 bool
		port uint32
		val  uint8
		want uint32
	}{
		{"bank0", false, 0x388, 0x20, 0x20},
		{"bank1 in opl2", false, 0x38A, 0x20, 0x20},
		{"opl3 enable reachable", false, 0x38A, 0x05, 0x105},
		{"bank1 in opl3", true, 0x38A, 0x20, 0x120},
		{"data port", false, 0x389, 0x20, 0},
		{"data port 2", true, 0x38B, 0x20, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.opl3 {
				c.WriteReg(0x105, 0x01)
			} else {
				c.WriteReg(0x105, 0x00)
			}
			if got := c.WriteAddr(tc.port, tc.val); got != tc.want {
				t.Errorf("expected 0x%03X, got 0x%03X", tc.want, got)
			}
		})
	}
}

func TestChip_RegisterReadBack(t *testing.T) {
	tests := []struct {
		name string
		opl3 bool
		reg  uint32
		val  uint8
		want uint8
	}{
		{"am/vib/egt/ksr/mult", false, 0x20, 0xAB, 0xAB},
		{"ksl/tl", false, 0x43, 0xC5, 0xC5},
		{"ar/dr", false, 0x65, 0x3C, 0x3C},
		{"sl/rr", false, 0x92, 0x7E, 0x7E},
		{"wave opl2 no select", false, 0xE0, 0x07, 0x00},
		{"fnum low", false, 0xA4, 0x9A, 0x9A},
		{"block/fnum high", false, 0xB2, 0xFF, 0x3F},
		{"fb/cnt opl2", false, 0xC1, 0x3F, 0x0F},
		{"fb/cnt/pan opl3", true, 0xC1, 0xFF, 0x3F},
		{"wave opl3", true, 0xE0, 0x06, 0x06},
		{"wave opl3 masked", true, 0xF5, 0xFF, 0x07},
		{"bank1 op", true, 0x12B, 0x55, 0x55},
		{"bank1 chan", true, 0x1A8, 0x44, 0x44},
		{"rhythm", false, 0xBD, 0xE0, 0xE0},
		{"note select", false, 0x08, 0x40, 0x40},
		{"four-op", true, 0x104, 0xFF, 0x3F},
		{"unmapped op", false, 0x26, 0x12, 0x00},
		{"unmapped chan", false, 0xA9, 0x12, 0x00},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestChip()
			if tc.opl3 {
				c.WriteReg(0x105, 0x01)
			}
			c.WriteReg(tc.reg, tc.val)
			if got := c.ReadReg(tc.reg); got != tc.want {
				t.Errorf("reg 0x%03X=0x%02X: expected 0x%02X, got 0x%02X", tc.reg, tc.val, tc.want, got)
			}
		})
	}
}

func TestChip_WaveformSelect(t *testing.T) {
	c := newTestChip()

	c.WriteReg(0xE0, 0x03)
	if w := c.ch[0].op[0].waveform; w != 0 {
		t.Errorf("without 0x01 bit 5: expected waveform 0, got %d", w)
	}

	c.WriteReg(0x01, 0x20)
	c.WriteReg(0xE0, 0x07)
	if w := c.ch[0].op[0].waveform; w != 3 {
		t.Errorf("OPL2 select: expected waveform 3, got %d", w)
	}

	c.WriteReg(0x105, 0x01)
	c.WriteReg(0xE0, 0x06)
	op := &c.ch[0].op[0]
	if op.waveform != 6 {
		t.Errorf("OPL3: expected waveform 6, got %d", op.waveform)
	}
	if op.waveBase != 0x100 || op.waveMask != 512 || op.waveStart != 512<<waveShift {
		t.Errorf("waveform 6 layout: base 0x%X mask %d start 0x%X", op.waveBase, op.waveMask, op.waveStart)
	}
}

func TestChip_FeedbackShift(t *testing.T) {
	c := newTestChip()
	tests := []struct {
		val  uint8
		want uint8
	}{
		{0x00, 31},
		{0x02, 8},
		{0x0E, 2},
		{0x0F, 2},
		{0x08, 5},
	}
	for _, tc := range tests {
		c.WriteReg(0xC0, tc.val)
		if got := c.ch[0].feedback; got != tc.want {
			t.Errorf("C0=0x%02X: expected shift %d, got %d", tc.val, tc.want, got)
		}
	}
}

func TestChip_KeyCodeAndNoteSelect(t *testing.T) {
	c := newTestChip()
	// F-number 0x244, block 4
	c.WriteReg(0xA0, 0x44)
	c.WriteReg(0xB0, 0x12)
	if kc := c.ch[0].chanData >> shiftKeyCode; kc != 9 {
		t.Errorf("NTS=0: expected key code 9, got %d", kc)
	}

	c.WriteReg(0x08, 0x40)
	c.WriteReg(0xB0, 0x11) // Force a recompute
	c.WriteReg(0xB0, 0x12)
	if kc := c.ch[0].chanData >> shiftKeyCode; kc != 8 {
		t.Errorf("NTS=1: expected key code 8, got %d", kc)
	}

	ksl := (c.ch[0].chanData >> shiftKSLBase) & 0xff
	if want := uint32(c.tables.ksl[0x244>>6|4<<4]); ksl != want {
		t.Errorf("ksl base: expected %d, got %d", want, ksl)
	}
}

func TestChip_TotalLevelWithKSL(t *testing.T) {
	c := newTestChip()
	c.WriteReg(0xA0, 0xFF)
	c.WriteReg(0xB0, 0x1F) // Block 7, F-number 0x3FF
	c.WriteReg(0x40, 0xC0|0x10)

	// KSL 3 is no shift, base 224
	if got := c.ch[0].op[0].totalLevel; got != 0x10<<2+224 {
		t.Errorf("expected total level %d, got %d", 0x10<<2+224, got)
	}
	c.WriteReg(0x40, 0x10)
	if got := c.ch[0].op[0].totalLevel; got != 0x10<<2 {
		t.Errorf("KSL 0: expected %d, got %d", 0x10<<2, got)
	}
}

func TestChip_FrequencyIncrement(t *testing.T) {
	c := newTestChip()
	c.WriteReg(0x20, 0x01)
	c.WriteReg(0xA0, 0x44)
	c.WriteReg(0xB0, 0x12)
	op := &c.ch[0].op[0]
	want := uint32(0x244<<4) * c.rates.freqMul[1]
	if op.waveAdd != want {
		t.Errorf("expected waveAdd 0x%X, got 0x%X", want, op.waveAdd)
	}
	if op.vibrato != 0 {
		t.Errorf("expected no vibrato, got %d", op.vibrato)
	}

	c.WriteReg(0x20, 0x41)
	if op.vibStrength != 0x244>>7 {
		t.Errorf("expected vibrato strength %d, got %d", 0x244>>7, op.vibStrength)
	}
}

func TestChip_OPL3ToggleRederivesModes(t *testing.T) {
	c := newTestChip()
	c.WriteReg(0xC0, 0x01)
	c.WriteReg(0xC5, 0x00)

	if m := c.ch[0].mode; m != sm2AM {
		t.Errorf("OPL2 ch0: expected 2AM, got %v", m)
	}

	c.WriteReg(0x105, 0x01)
	for i := range c.ch {
		if !c.ch[i].mode.stereo() {
			t.Errorf("OPL3 ch%d: expected stereo mode, got %v", i, c.ch[i].mode)
		}
	}
	if m := c.ch[0].mode; m != sm3AM {
		t.Errorf("OPL3 ch0: expected 3AM, got %v", m)
	}

	c.WriteReg(0x105, 0x00)
	for i := range c.ch {
		if c.ch[i].mode.stereo() {
			t.Errorf("OPL2 ch%d: expected mono mode, got %v", i, c.ch[i].mode)
		}
	}
	if m := c.ch[0].mode; m != sm2AM {
		t.Errorf("OPL2 ch0: expected 2AM again, got %v", m)
	}
}

func TestChip_PanMasks(t *testing.T) {
	c := newTestChip()
	c.WriteReg(0x105, 0x01)
	c.WriteReg(0xC0, 0x10)
	if c.ch[0].maskLeft != -1 || c.ch[0].maskRight != 0 {
		t.Errorf("left only: got masks %d/%d", c.ch[0].maskLeft, c.ch[0].maskRight)
	}
	c.WriteReg(0xC0, 0x20)
	if c.ch[0].maskLeft != 0 || c.ch[0].maskRight != -1 {
		t.Errorf("right only: got masks %d/%d", c.ch[0].maskLeft, c.ch[0].maskRight)
	}
}

func TestChip_FourOpModes(t *testing.T) {
	tests := []struct {
		c0First, c0Second uint8
		want              synthMode
	}{
		{0x00, 0x00, sm3FMFM},
		{0x01, 0x00, sm3AMFM},
		{0x00, 0x01, sm3FMAM},
		{0x01, 0x01, sm3AMAM},
	}
	for _, tc := range tests {
		t.Run(tc.want.String(), func(t *testing.T) {
			c := newTestChip()
			c.WriteReg(0x105, 0x01)
			c.WriteReg(0x104, 0x01)
			// Register channel 3 is the second half of channel 0
			c.WriteReg(0xC0, tc.c0First|0x30)
			c.WriteReg(0xC3, tc.c0Second|0x30)
			if m := c.ch[0].mode; m != tc.want {
				t.Errorf("expected %v, got %v", tc.want, m)
			}
			if m := c.ch[0].mode.step(); m != 2 {
				t.Errorf("expected step 2, got %d", m)
			}
		})
	}
}

func TestChip_FourOpDisable(t *testing.T) {
	c := newTestChip()
	c.WriteReg(0x105, 0x01)
	c.WriteReg(0x104, 0x04) // Pair 2: register channels 2 and 5
	if m := c.ch[4].mode; m != sm3FMFM {
		t.Fatalf("ch4: expected 3FMFM, got %v", m)
	}
	if m := c.ch[0].mode; m != sm3FM {
		t.Errorf("ch0: expected 3FM, got %v", m)
	}
	c.WriteReg(0x104, 0x00)
	if m := c.ch[4].mode; m != sm3FM {
		t.Errorf("ch4: expected 3FM after disable, got %v", m)
	}
	// Four-operator mode needs OPL3
	c.WriteReg(0x104, 0x04)
	c.WriteReg(0x105, 0x00)
	if m := c.ch[4].mode; m != sm2FM {
		t.Errorf("ch4 in OPL2: expected 2FM, got %v", m)
	}
}

func TestChip_FourOpKeyOnReachesPartner(t *testing.T) {
	c := newTestChip()
	c.WriteReg(0x105, 0x01)
	c.WriteReg(0x104, 0x01)
	c.WriteReg(0xB0, 0x20)

	for ch := 0; ch < 2; ch++ {
		for op := 0; op < 2; op++ {
			o := &c.ch[ch].op[op]
			if o.keyOnBits&keyOnNormal == 0 {
				t.Errorf("ch%d op%d: expected key-on", ch, op)
			}
			if o.state != stateAttack {
				t.Errorf("ch%d op%d: expected ATTACK, got %d", ch, op, o.state)
			}
		}
	}

	c.WriteReg(0xB0, 0x00)
	if c.ch[1].op[1].keyOnBits != 0 {
		t.Error("partner not keyed off")
	}
}

func TestChip_FourOpFrequencyForwarding(t *testing.T) {
	c := newTestChip()
	c.WriteReg(0x105, 0x01)
	c.WriteReg(0x104, 0x01)

	c.WriteReg(0xA0, 0x44)
	c.WriteReg(0xB0, 0x12)
	if c.ch[1].chanData != c.ch[0].chanData {
		t.Errorf("partner chanData 0x%X, expected 0x%X", c.ch[1].chanData, c.ch[0].chanData)
	}

	// Second half writes are ignored while paired
	c.WriteReg(0xA3, 0x99)
	c.WriteReg(0xB3, 0x20)
	if c.ch[1].chanData&0xff != 0x44 {
		t.Errorf("second half A0 write applied: 0x%X", c.ch[1].chanData&0xff)
	}
	if c.ch[1].op[0].keyOnBits != 0 {
		t.Error("second half B0 write keyed on")
	}
}

func TestChip_PercussionModes(t *testing.T) {
	c := newTestChip()
	c.WriteReg(0xBD, 0x20)
	if m := c.ch[6].mode; m != sm2Percussion {
		t.Errorf("OPL2: expected 2Percussion, got %v", m)
	}
	c.WriteReg(0x105, 0x01)
	if m := c.ch[6].mode; m != sm3Percussion {
		t.Errorf("OPL3: expected 3Percussion, got %v", m)
	}
	c.WriteReg(0xC6, 0x01)
	if m := c.ch[6].mode; m != sm3Percussion {
		t.Errorf("C0 write: expected 3Percussion kept, got %v", m)
	}
	c.WriteReg(0xBD, 0x00)
	if m := c.ch[6].mode; m != sm3AM {
		t.Errorf("rhythm off: expected 3AM, got %v", m)
	}
}

func TestChip_PercussionKeys(t *testing.T) {
	tests := []struct {
		name   string
		bd     uint8
		ch, op int
	}{
		{"bass drum mod", 0x10, 6, 0},
		{"bass drum car", 0x10, 6, 1},
		{"hi-hat", 0x01, 7, 0},
		{"snare", 0x08, 7, 1},
		{"tom", 0x04, 8, 0},
		{"cymbal", 0x02, 8, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestChip()
			c.WriteReg(0xBD, 0x20|tc.bd)
			for ch := 6; ch <= 8; ch++ {
				for op := 0; op < 2; op++ {
					keyed := c.ch[ch].op[op].keyOnBits&keyOnPercussion != 0
					want := ch == tc.ch && op == tc.op
					if tc.bd == 0x10 && ch == 6 {
						want = true
					}
					if keyed != want {
						t.Errorf("ch%d op%d: keyed=%v, expected %v", ch, op, keyed, want)
					}
				}
			}
			// Rhythm off releases everything
			c.WriteReg(0xBD, 0x00)
			if c.ch[tc.ch].op[tc.op].keyOnBits != 0 {
				t.Error("expected key released with rhythm off")
			}
		})
	}
}

func TestChip_LFODepth(t *testing.T) {
	c := newTestChip()
	if c.vibratoStrength != 1 || c.tremoloStrength != 2 {
		t.Errorf("default depth: expected 1/2, got %d/%d", c.vibratoStrength, c.tremoloStrength)
	}
	c.WriteReg(0xBD, 0xC0)
	if c.vibratoStrength != 0 || c.tremoloStrength != 0 {
		t.Errorf("deep: expected 0/0, got %d/%d", c.vibratoStrength, c.tremoloStrength)
	}
}

func TestChip_TremoloMask(t *testing.T) {
	c := newTestChip()
	c.WriteReg(0x20, 0x80)
	if c.ch[0].op[0].tremoloMask != 0xff {
		t.Errorf("expected tremolo mask 0xff, got 0x%X", c.ch[0].op[0].tremoloMask)
	}
	c.WriteReg(0x20, 0x00)
	if c.ch[0].op[0].tremoloMask != 0 {
		t.Errorf("expected tremolo mask 0, got 0x%X", c.ch[0].op[0].tremoloMask)
	}
}

func TestSynthMode_Steps(t *testing.T) {
	tests := []struct {
		mode synthMode
		step int
	}{
		{sm2AM, 1}, {sm2FM, 1}, {sm3AM, 1}, {sm3FM, 1},
		{sm3FMFM, 2}, {sm3AMFM, 2}, {sm3FMAM, 2}, {sm3AMAM, 2},
		{sm2Percussion, 3}, {sm3Percussion, 3},
	}
	for _, tc := range tests {
		if got := tc.mode.step(); got != tc.step {
			t.Errorf("%v: expected step %d, got %d", tc.mode, tc.step, got)
		}
	}
}

func TestSynthMode_UnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown synth mode")
		}
	}()
	synthMode(42).step()
}
