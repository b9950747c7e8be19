package ui

import "image/color"

// Meter image layout in pixels.
const (
	MeterBarWidth = 10
	MeterGap      = 2
	MeterWidth    = MeterChannels*(MeterBarWidth+MeterGap) + MeterGap
	MeterHeight   = 100
)

var (
	meterBackground = color.RGBA{0x10, 0x10, 0x18, 0xff}
	meterTrack      = color.RGBA{0x28, 0x28, 0x34, 0xff}
	// First register bank, then the second
	meterBank0 = color.RGBA{0x40, 0xd0, 0x60, 0xff}
	meterBank1 = color.RGBA{0x40, 0x90, 0xe0, 0xff}
)

// PaintMeters draws one vertical bar per level into pix, an RGBA buffer
// of MeterWidth x MeterHeight. Levels are clamped to 0..1.
func PaintMeters(pix []byte, levels []float32) {
	if len(pix) < MeterWidth*MeterHeight*4 {
		return
	}
	fill(pix, 0, 0, MeterWidth, MeterHeight, meterBackground)

	for i := 0; i < MeterChannels; i++ {
		x := MeterGap + i*(MeterBarWidth+MeterGap)
		fill(pix, x, MeterGap, MeterBarWidth, MeterHeight-2*MeterGap, meterTrack)

		var l float32
		if i < len(levels) {
			l = min(max(levels[i], 0), 1)
		}
		h := int(l * float32(MeterHeight-2*MeterGap))
		c := meterBank0
		if i >= 9 {
			c = meterBank1
		}
		fill(pix, x, MeterHeight-MeterGap-h, MeterBarWidth, h, c)
	}
}

// fill paints a w x h rectangle at x, y.
func fill(pix []byte, x, y, w, h int, c color.RGBA) {
	for row := y; row < y+h; row++ {
		off := (row*MeterWidth + x) * 4
		for col := 0; col < w; col++ {
			pix[off] = c.R
			pix[off+1] = c.G
			pix[off+2] = c.B
			pix[off+3] = c.A
			off += 4
		}
	}
}
