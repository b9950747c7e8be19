package emu

import "testing"

// advance renders frames and discards them.
func advance(h *Handler, frames int) {
	var buf PCMBuffer
	h.Generate(&buf, frames)
}

func TestTimer_StatusIdle(t *testing.T) {
	tests := []struct {
		model Model
		want  uint8
	}{
		{ModelOPL2, 0x06},
		{ModelOPL3, 0x00},
	}
	for _, tc := range tests {
		t.Run(tc.model.String(), func(t *testing.T) {
			h := NewHandler(tc.model, 49716)
			if s := h.ReadStatus(); s != tc.want {
				t.Errorf("power on: expected 0x%02X, got 0x%02X", tc.want, s)
			}
			// The low bits identify the chip, not the OPL3 enable bit
			h.WriteReg(0x105, 0x01)
			if s := h.ReadStatus(); s != tc.want {
				t.Errorf("after 0x105 write: expected 0x%02X, got 0x%02X", tc.want, s)
			}
		})
	}
}

// TestHandler_OPL3Detection follows the usual driver sequence: reset the
// timers, read the status and only enable OPL3 mode when bits 1 and 2
// are clear.
func TestHandler_OPL3Detection(t *testing.T) {
	tests := []struct {
		model    Model
		wantOPL3 bool
	}{
		{ModelOPL2, false},
		{ModelOPL3, true},
	}
	for _, tc := range tests {
		t.Run(tc.model.String(), func(t *testing.T) {
			h := NewHandler(tc.model, 49716)
			h.WriteReg(0x04, 0x60)
			h.WriteReg(0x04, 0x80)
			if h.ReadStatus()&0x06 == 0 {
				h.WriteReg(h.WriteAddr(2, 0x05), 0x01)
			}
			if h.Chip().OPL3Active() != tc.wantOPL3 {
				t.Errorf("expected OPL3 active %v, got %v", tc.wantOPL3, h.Chip().OPL3Active())
			}
		})
	}
}

func TestHandler_OPL2HasNoSecondBank(t *testing.T) {
	h := NewHandler(ModelOPL2, 49716)
	if addr := h.WriteAddr(2, 0x05); addr != 0x05 {
		t.Errorf("expected bank 0 address 0x05, got 0x%03X", addr)
	}
	h.WriteReg(0x105, 0x01)
	if h.Chip().OPL3Active() {
		t.Error("OPL2 accepted the OPL3 enable register")
	}
	h.WriteReg(0x140, 0x15)
	if v := h.Chip().ReadReg(0x40); v != 0x15 {
		t.Errorf("bank 1 write should alias bank 0: reg 0x40 = 0x%02X", v)
	}
}

func TestTimer_Overflow(t *testing.T) {
	tests := []struct {
		name    string
		preset  uint32
		control uint8
		before  int // Frames that must not overflow yet
		after   int // Frames that must
		want    uint8
	}{
		// 80us at 49716 Hz is just under 4 frames
		{"timer 1", 0x02, 0x01, 3, 4, 0xC6},
		// 320us is just under 16 frames
		{"timer 2", 0x03, 0x02, 15, 16, 0xA6},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(ModelOPL2, 49716)
			h.WriteReg(tc.preset, 0xFF)
			h.WriteReg(0x04, tc.control)

			advance(h, tc.before)
			if s := h.ReadStatus(); s != 0x06 {
				t.Fatalf("after %d frames: expected 0x06, got 0x%02X", tc.before, s)
			}
			advance(h, tc.after-tc.before)
			if s := h.ReadStatus(); s != tc.want {
				t.Errorf("after %d frames: expected 0x%02X, got 0x%02X", tc.after, tc.want, s)
			}
		})
	}
}

func TestTimer_IRQReset(t *testing.T) {
	h := NewHandler(ModelOPL2, 49716)
	h.WriteReg(0x02, 0xFF)
	h.WriteReg(0x04, 0x01)
	advance(h, 4)
	if s := h.ReadStatus(); s&0x80 == 0 {
		t.Fatalf("expected IRQ set, got 0x%02X", s)
	}

	h.WriteReg(0x04, 0x80)
	if s := h.ReadStatus(); s != 0x06 {
		t.Errorf("after IRQ reset: expected 0x06, got 0x%02X", s)
	}

	// Still running, so it overflows again
	advance(h, 8)
	if s := h.ReadStatus(); s != 0xC6 {
		t.Errorf("next period: expected 0xC6, got 0x%02X", s)
	}
}

func TestTimer_Masked(t *testing.T) {
	h := NewHandler(ModelOPL2, 49716)
	h.WriteReg(0x02, 0xFF)
	h.WriteReg(0x04, 0x41)
	advance(h, 100)
	if s := h.ReadStatus(); s != 0x06 {
		t.Errorf("masked timer: expected 0x06, got 0x%02X", s)
	}
}

func TestTimer_Stop(t *testing.T) {
	h := NewHandler(ModelOPL2, 49716)
	h.WriteReg(0x03, 0x00)
	h.WriteReg(0x04, 0x02)
	h.WriteReg(0x04, 0x00)
	advance(h, 5000)
	if s := h.ReadStatus(); s != 0x06 {
		t.Errorf("stopped timer: expected 0x06, got 0x%02X", s)
	}
}

func TestTimer_RegistersNotForwarded(t *testing.T) {
	h := NewHandler(ModelOPL2, 49716)
	h.WriteReg(0x02, 0x12)
	h.WriteReg(0x03, 0x34)
	for _, reg := range []uint32{0x02, 0x03, 0x04} {
		if v := h.Chip().ReadReg(reg); v != 0 {
			t.Errorf("reg 0x%02X reached the chip: 0x%02X", reg, v)
		}
	}
	if h.timers.t[0].counter != 0x12 || h.timers.t[1].counter != 0x34 {
		t.Errorf("expected presets 0x12/0x34, got 0x%02X/0x%02X",
			h.timers.t[0].counter, h.timers.t[1].counter)
	}
}
