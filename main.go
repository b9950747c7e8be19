package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/emopl/cli"
	"github.com/user-none/emopl/dro"
	"github.com/user-none/emopl/ui"
)

func main() {
	droPath := flag.String("dro", "", "path to DRO capture (required)")
	rate := flag.Int("rate", 48000, "output sample rate in Hz")
	volume := flag.Float64("volume", 1.0, "playback volume, 0.0 to 1.0")
	loop := flag.Bool("loop", false, "restart the capture when it ends")
	flag.Parse()

	if *droPath == "" {
		log.Fatal("DRO path is required. Usage: emopl -dro <path>")
	}
	if *rate < 8000 || *rate > 192000 {
		log.Fatalf("Invalid rate: %d (use 8000 to 192000)", *rate)
	}
	if *volume < 0 || *volume > 1 {
		log.Fatalf("Invalid volume: %g (use 0.0 to 1.0)", *volume)
	}

	data, err := os.ReadFile(*droPath)
	if err != nil {
		log.Fatalf("Failed to load capture: %v", err)
	}
	capture, err := dro.Parse(data)
	if err != nil {
		log.Fatalf("Failed to parse capture: %v", err)
	}
	log.Printf("%s: DRO %d.%d, %s, %d writes, %d ms",
		filepath.Base(*droPath), capture.Major, capture.Minor, capture.Hardware,
		len(capture.Events), capture.Length())

	seq := dro.NewSequencer(dro.NewSynth(capture.Hardware, uint32(*rate)), capture, uint32(*rate))
	seq.Loop = *loop

	title := filepath.Base(*droPath)
	ebiten.SetWindowSize(ui.MeterWidth*3, ui.MeterHeight*3)
	ebiten.SetWindowTitle("emopl - " + title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cli.TicksPerSecond)

	runner := cli.NewRunner(seq, *rate, *volume, title)
	defer runner.Close()

	if err := ebiten.RunGame(runner); err != nil && err != ebiten.Termination {
		log.Fatal(err)
	}
}
