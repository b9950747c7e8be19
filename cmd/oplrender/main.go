// Command oplrender renders a DRO capture to raw signed 16-bit
// little-endian stereo PCM.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/user-none/emopl/dro"
	"github.com/user-none/emopl/emu"
	"golang.org/x/term"
)

// renderBlock is the number of frames rendered per write.
const renderBlock = 4096

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(6))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(8))
	valueStyle = lipgloss.NewStyle().Bold(true)
)

func main() {
	droPath := flag.String("dro", "", "path to DRO capture (required)")
	rate := flag.Int("rate", 44100, "output sample rate in Hz")
	outPath := flag.String("o", "-", "output file, - for stdout")
	seconds := flag.Float64("seconds", 0, "length to render, 0 for the capture length")
	loop := flag.Bool("loop", false, "restart the capture when it ends")
	quiet := flag.Bool("q", false, "do not print capture information")
	flag.Parse()

	if *droPath == "" {
		log.Fatal("DRO path is required. Usage: oplrender -dro <path> [-o out.raw]")
	}
	if *rate < 8000 || *rate > 192000 {
		log.Fatalf("Invalid rate: %d (use 8000 to 192000)", *rate)
	}

	data, err := os.ReadFile(*droPath)
	if err != nil {
		log.Fatalf("Failed to load capture: %v", err)
	}
	capture, err := dro.Parse(data)
	if err != nil {
		log.Fatalf("Failed to parse capture: %v", err)
	}

	var out io.Writer = os.Stdout
	if *outPath == "-" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			log.Fatal("Refusing to write PCM to a terminal, use -o or redirect stdout")
		}
	} else {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("Failed to create output: %v", err)
		}
		defer f.Close()
		out = f
	}

	frames := int(uint64(capture.Length()) * uint64(*rate) / 1000)
	if *seconds > 0 {
		frames = int(*seconds * float64(*rate))
	}

	if !*quiet {
		fmt.Fprintln(os.Stderr, banner(filepath.Base(*droPath), capture, *rate, frames))
	}

	seq := dro.NewSequencer(dro.NewSynth(capture.Hardware, uint32(*rate)), capture, uint32(*rate))
	seq.Loop = *loop

	bw := bufio.NewWriter(out)
	if _, err := render(bw, seq, frames); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
	if err := bw.Flush(); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
}

// render writes frames stereo frames of seq to w. Past the end of the
// capture the chip keeps running so releases are not cut off.
func render(w io.Writer, seq *dro.Sequencer, frames int) (int, error) {
	var pcm emu.PCMBuffer
	bytes := make([]byte, 0, renderBlock*4)
	written := 0
	for written < frames {
		n := min(renderBlock, frames-written)
		pcm.Reset()
		seq.RenderThrough(&pcm, n)

		bytes = bytes[:0]
		for _, s := range pcm.Samples() {
			bytes = append(bytes, byte(s), byte(s>>8))
		}
		if _, err := w.Write(bytes); err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

// banner describes the capture and the output.
func banner(name string, c *dro.Capture, rate, frames int) string {
	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-9s", label)) + valueStyle.Render(value)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(name),
		row("format", fmt.Sprintf("DRO %d.%d", c.Major, c.Minor)),
		row("hardware", c.Hardware.String()),
		row("writes", fmt.Sprintf("%d", len(c.Events))),
		row("length", fmt.Sprintf("%.3fs", float64(c.Length())/1000)),
		row("output", fmt.Sprintf("%d frames at %d Hz", frames, rate)),
	)
}
