package ui

import "testing"

func pixelAt(pix []byte, x, y int) [4]byte {
	off := (y*MeterWidth + x) * 4
	return [4]byte{pix[off], pix[off+1], pix[off+2], pix[off+3]}
}

func TestPaintMeters(t *testing.T) {
	pix := make([]byte, MeterWidth*MeterHeight*4)
	levels := make([]float32, MeterChannels)
	levels[0] = 1
	levels[1] = 0.5
	levels[9] = 2 // Clamped
	levels[10] = -1

	PaintMeters(pix, levels)

	bank0 := [4]byte{meterBank0.R, meterBank0.G, meterBank0.B, meterBank0.A}
	bank1 := [4]byte{meterBank1.R, meterBank1.G, meterBank1.B, meterBank1.A}
	track := [4]byte{meterTrack.R, meterTrack.G, meterTrack.B, meterTrack.A}
	bg := [4]byte{meterBackground.R, meterBackground.G, meterBackground.B, meterBackground.A}

	barX := func(i int) int { return MeterGap + i*(MeterBarWidth+MeterGap) + MeterBarWidth/2 }
	top := MeterGap
	bottom := MeterHeight - MeterGap - 1
	mid := MeterHeight / 2

	tests := []struct {
		name string
		x, y int
		want [4]byte
	}{
		{"full bar top", barX(0), top, bank0},
		{"full bar bottom", barX(0), bottom, bank0},
		{"half bar above", barX(1), mid - 2, track},
		{"half bar below", barX(1), mid + 2, bank0},
		{"clamped high bank 1", barX(9), top, bank1},
		{"clamped low", barX(10), bottom, track},
		{"silent", barX(17), bottom, track},
		{"gap", 0, mid, bg},
		{"border", barX(0), 0, bg},
	}
	for _, tc := range tests {
		if got := pixelAt(pix, tc.x, tc.y); got != tc.want {
			t.Errorf("%s: pixel (%d,%d) expected %v, got %v", tc.name, tc.x, tc.y, tc.want, got)
		}
	}
}

func TestPaintMeters_ShortBuffer(t *testing.T) {
	pix := make([]byte, 16)
	PaintMeters(pix, []float32{1})
	for i, b := range pix {
		if b != 0 {
			t.Fatalf("byte %d written to undersized buffer", i)
		}
	}
}
