package adapter

import (
	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/emopl/dro"
	"github.com/user-none/emopl/emu"
	"github.com/user-none/emopl/ui"
)

// Compile-time interface check.
var _ emucore.CoreFactory = (*Factory)(nil)

// Factory implements emucore.CoreFactory for the DRO player.
type Factory struct{}

// SystemInfo returns system metadata for UI configuration.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	return emucore.SystemInfo{
		Name:            emu.Name,
		ConsoleName:     "AdLib / Sound Blaster",
		Extensions:      []string{".dro"},
		ScreenWidth:     ui.MeterWidth,
		MaxScreenHeight: ui.MeterHeight,
		AspectRatio:     float64(ui.MeterWidth) / float64(ui.MeterHeight),
		SampleRate:      sampleRate,
		Buttons: []emucore.Button{
			{Name: "Loop", ID: buttonLoop, DefaultKey: "J", DefaultPad: "A"},
			{Name: "Restart", ID: buttonRestart, DefaultKey: "Enter", DefaultPad: "Start"},
		},
		Players: 1,
		CoreOptions: []emucore.CoreOption{
			{
				Key:         "loop",
				Label:       "Loop Playback",
				Description: "Restart the capture when it ends",
				Type:        emucore.CoreOptionBool,
				Default:     "false",
			},
		},
		DataDirName:   emu.Name,
		CoreName:      emu.Name,
		CoreVersion:   emu.Version,
		SerializeSize: dro.MaxSnapshotSize,
	}
}

// CreateEmulator creates a player for the given capture. The region only
// picks the frame rate.
func (f *Factory) CreateEmulator(rom []byte, region emucore.Region) (emucore.Emulator, error) {
	p, err := NewPlayer(rom, region)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DetectRegion returns NTSC. Captures carry no region, and the bool is
// false as there is no database lookup.
func (f *Factory) DetectRegion(rom []byte) (emucore.Region, bool) {
	return emucore.RegionNTSC, false
}
