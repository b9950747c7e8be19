package adapter

import (
	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/emopl/dro"
	"github.com/user-none/emopl/emu"
	"github.com/user-none/emopl/ui"
)

// Compile-time interface checks.
var _ emucore.Emulator = (*Player)(nil)
var _ emucore.SaveStater = (*Player)(nil)

// sampleRate is the output rate handed to the frontend.
const sampleRate = 48000

// Button bits in the SetInput mask.
const (
	buttonLoop    = 4
	buttonRestart = 7
)

// Player runs a DRO capture as a frontend core. Each frame renders one
// video frame's worth of audio and repaints the channel meters.
type Player struct {
	seq    *dro.Sequencer
	hw     dro.Hardware
	start  *dro.Snapshot // Power-on point for Restart
	region emucore.Region
	fps    int

	pcm     emu.PCMBuffer
	meter   [ui.MeterChannels]float32
	pixels  []byte
	buttons uint32 // Previous mask, for edge detection
}

// NewPlayer parses a capture and prepares it for playback.
func NewPlayer(data []byte, region emucore.Region) (*Player, error) {
	c, err := dro.Parse(data)
	if err != nil {
		return nil, err
	}

	seq := dro.NewSequencer(dro.NewSynth(c.Hardware, sampleRate), c, sampleRate)
	start, err := seq.Save()
	if err != nil {
		return nil, err
	}

	p := &Player{
		seq:    seq,
		hw:     c.Hardware,
		start:  start,
		pixels: make([]byte, ui.MeterWidth*ui.MeterHeight*4),
	}
	p.SetRegion(region)
	ui.PaintMeters(p.pixels, p.meter[:])
	return p, nil
}

// RunFrame renders one frame of audio and repaints the meters.
func (p *Player) RunFrame() {
	p.pcm.Reset()
	p.seq.RenderThrough(&p.pcm, sampleRate/p.fps)
	p.seq.Synth().Levels(p.meter[:])
	ui.PaintMeters(p.pixels, p.meter[:])
}

// SetInput handles the player buttons. Actions fire on press, not while
// held.
func (p *Player) SetInput(player int, buttons uint32) {
	if player != 0 {
		return
	}
	pressed := buttons &^ p.buttons
	p.buttons = buttons

	if pressed&(1<<buttonLoop) != 0 {
		p.seq.Loop = !p.seq.Loop
	}
	if pressed&(1<<buttonRestart) != 0 {
		// The start point was taken from this sequencer so it always fits
		_ = p.seq.Restore(p.start)
	}
}

// GetFramebuffer returns the meter image as RGBA.
func (p *Player) GetFramebuffer() []byte {
	return p.pixels
}

// GetFramebufferStride returns the bytes per row of the meter image.
func (p *Player) GetFramebufferStride() int {
	return ui.MeterWidth * 4
}

// GetActiveHeight returns the meter image height.
func (p *Player) GetActiveHeight() int {
	return ui.MeterHeight
}

// GetAudioSamples returns the last frame's audio as 16-bit stereo PCM.
func (p *Player) GetAudioSamples() []int16 {
	return p.pcm.Samples()
}

// GetRegion returns the frame rate region.
func (p *Player) GetRegion() emucore.Region {
	return p.region
}

// SetRegion selects 60 Hz (NTSC) or 50 Hz (PAL) frames. The audio rate
// does not change, only how much is rendered per frame.
func (p *Player) SetRegion(region emucore.Region) {
	p.region = region
	p.fps = 60
	if region == emucore.RegionPAL {
		p.fps = 50
	}
}

// GetTiming returns the frame rate and the meter height.
func (p *Player) GetTiming() emucore.Timing {
	return emucore.Timing{
		FPS:       p.fps,
		Scanlines: ui.MeterHeight,
	}
}

// Close releases any resources held by the player.
func (p *Player) Close() {}

// SetOption applies a core option change identified by key.
func (p *Player) SetOption(key string, value string) {
	switch key {
	case "loop":
		p.seq.Loop = value == "true"
	}
}

// SerializeSize returns the size of a save state for this capture.
func (p *Player) SerializeSize() int {
	return dro.SnapshotSize(p.hw)
}

// Serialize creates a save state of the synth and the playback position.
func (p *Player) Serialize() ([]byte, error) {
	snap, err := p.seq.Save()
	if err != nil {
		return nil, err
	}
	return snap.MarshalBinary()
}

// Deserialize restores a save state made by Serialize.
func (p *Player) Deserialize(data []byte) error {
	var snap dro.Snapshot
	if err := snap.UnmarshalBinary(data); err != nil {
		return err
	}
	return p.seq.Restore(&snap)
}

// VerifyState checks a save state without loading it.
func (p *Player) VerifyState(data []byte) error {
	return dro.VerifySnapshot(data)
}
