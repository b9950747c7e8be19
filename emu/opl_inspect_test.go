package emu

import "testing"

func TestLevels(t *testing.T) {
	h := NewHandler(ModelOPL3, 49716)
	program(h, sine440)
	advance(h, 64)

	levels := make([]float32, 18)
	if n := h.Levels(levels); n != 18 {
		t.Fatalf("expected 18 levels, got %d", n)
	}
	if levels[0] < 0.99 {
		t.Errorf("channel 0: expected full level, got %f", levels[0])
	}
	for i := 1; i < 18; i++ {
		if levels[i] != 0 {
			t.Errorf("channel %d: expected 0, got %f", i, levels[i])
		}
	}

	short := make([]float32, 4)
	if n := h.Levels(short); n != 4 {
		t.Errorf("short slice: expected 4, got %d", n)
	}
	long := make([]float32, 32)
	if n := h.Levels(long); n != 18 {
		t.Errorf("long slice: expected 18, got %d", n)
	}
}

func TestLevels_Attenuated(t *testing.T) {
	h := NewHandler(ModelOPL3, 49716)
	program(h, sine440)
	h.WriteReg(0x43, 0x20) // TL 32 is 24dB
	advance(h, 64)

	levels := make([]float32, 1)
	h.Levels(levels)
	// TL 32 is 128 envelope units
	want := float32(1) - float32(128)/envLimit
	if d := levels[0] - want; d > 0.001 || d < -0.001 {
		t.Errorf("expected %f, got %f", want, levels[0])
	}
}

func TestLevels_SecondBank(t *testing.T) {
	h := NewHandler(ModelOPL3, 49716)
	h.WriteReg(0x105, 0x01)
	program(h, bank(sine440))
	advance(h, 64)

	levels := make([]float32, 18)
	h.Levels(levels)
	if levels[9] < 0.99 {
		t.Errorf("channel 9: expected full level, got %f", levels[9])
	}
	if levels[0] != 0 {
		t.Errorf("channel 0: expected 0, got %f", levels[0])
	}
}
