// Package ebiten draws the player's channel meters with Ebiten.
package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/emopl/ui"
)

// MeterView scales a painted meter image to the window.
type MeterView struct {
	offscreen *ebiten.Image           // Native resolution meter image
	drawOpts  ebiten.DrawImageOptions // Pre-allocated to avoid per-frame allocation
}

// NewMeterView creates an empty view.
func NewMeterView() *MeterView {
	return &MeterView{}
}

// Layout implements ebiten.Game.
func (v *MeterView) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// Draw uploads pixels, an RGBA image of ui.MeterWidth x ui.MeterHeight,
// and draws it centred on screen preserving the aspect ratio.
func (v *MeterView) Draw(screen *ebiten.Image, pixels []byte) {
	if len(pixels) < ui.MeterWidth*ui.MeterHeight*4 {
		return
	}

	if v.offscreen == nil {
		v.offscreen = ebiten.NewImage(ui.MeterWidth, ui.MeterHeight)
	}
	v.offscreen.WritePixels(pixels[:ui.MeterWidth*ui.MeterHeight*4])

	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	nativeW := float64(ui.MeterWidth)
	nativeH := float64(ui.MeterHeight)

	scaleX := float64(screenW) / nativeW
	scaleY := float64(screenH) / nativeH
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	offsetX := (float64(screenW) - nativeW*scale) / 2
	offsetY := (float64(screenH) - nativeH*scale) / 2

	v.drawOpts = ebiten.DrawImageOptions{}
	v.drawOpts.GeoM.Scale(scale, scale)
	v.drawOpts.GeoM.Translate(offsetX, offsetY)
	v.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(v.offscreen, &v.drawOpts)
}
