// Package cli provides a windowed runner for the capture player.
// It plays audio on a dedicated goroutine and shows channel meters.
package cli

import (
	"log"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	emubridge "github.com/user-none/emopl/bridge/ebiten"
	"github.com/user-none/emopl/dro"
	"github.com/user-none/emopl/emu"
	"github.com/user-none/emopl/ui"
)

// TicksPerSecond is how often the playback goroutine renders a block.
const TicksPerSecond = 60

// volumeStep is the change per arrow key press.
const volumeStep = 0.1

// ADT buffer thresholds in milliseconds of audio.
const (
	adtMinMillis = 50
	adtMaxMillis = 100
)

// Runner plays a capture in a window.
// Playback runs on a dedicated goroutine with audio-driven timing.
// The Ebiten thread handles keys and draws from the shared levels.
type Runner struct {
	mu          sync.Mutex // Serialises register writes and generation
	seq         *dro.Sequencer
	rate        int
	audioPlayer *ui.AudioPlayer
	volume      float64
	title       string

	// Playback goroutine state
	control *ui.PlaybackControl
	levels  *ui.SharedLevels
	pcm     emu.PCMBuffer
	meter   [ui.MeterChannels]float32
	done    chan struct{}
	saved   *dro.Snapshot

	// Ebiten thread state
	view   *emubridge.MeterView
	pixels []byte
}

// NewRunner creates a Runner playing seq at rate and starts playback.
// Audio initialization failure is non-fatal; the meters still run.
func NewRunner(seq *dro.Sequencer, rate int, volume float64, title string) *Runner {
	player, err := ui.NewAudioPlayer(rate, volume)
	if err != nil {
		log.Printf("Warning: audio initialization failed: %v", err)
	}

	r := &Runner{
		seq:         seq,
		rate:        rate,
		audioPlayer: player,
		volume:      volume,
		title:       title,
		control:     ui.NewPlaybackControl(),
		levels:      &ui.SharedLevels{},
		done:        make(chan struct{}),
		view:        emubridge.NewMeterView(),
		pixels:      make([]byte, ui.MeterWidth*ui.MeterHeight*4),
	}

	go r.playbackLoop()

	return r
}

// Close stops playback and releases audio.
func (r *Runner) Close() {
	if r.control != nil {
		r.control.Stop()
		<-r.done
	}

	if r.audioPlayer != nil {
		r.audioPlayer.Close()
		r.audioPlayer = nil
	}
}

// renderTick renders one tick of audio and publishes the channel levels.
// Once the capture ends the chip keeps running so releases die away.
func (r *Runner) renderTick(frames int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pcm.Reset()
	r.seq.RenderThrough(&r.pcm, frames)
	r.seq.Synth().Levels(r.meter[:])
	r.levels.Update(r.meter[:], r.seq.Position(), r.seq.Loops(), r.seq.Done())
}

// playbackLoop runs on a dedicated goroutine with ADT.
func (r *Runner) playbackLoop() {
	defer close(r.done)

	frames := r.rate / TicksPerSecond
	tick := time.Second / TicksPerSecond
	minBuf := ui.BytesForMillis(r.rate, adtMinMillis)
	maxBuf := ui.BytesForMillis(r.rate, adtMaxMillis)
	last := time.Now()

	for {
		if !r.control.CheckPause() {
			return
		}

		r.renderTick(frames)

		level := -1
		if r.audioPlayer != nil {
			r.audioPlayer.QueueSamples(r.pcm.Samples())
			level = r.audioPlayer.GetBufferLevel()
		}

		sleep := ui.ADTSleep(tick, time.Since(last), level, minBuf, maxBuf)
		if sleep > time.Millisecond {
			time.Sleep(sleep)
		}
		last = time.Now()
	}
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if !ebiten.IsFocused() {
		return nil
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if r.control.IsPaused() {
			r.control.RequestResume()
		} else {
			r.control.RequestPause()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) {
		r.adjustVolume(volumeStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		r.adjustVolume(-volumeStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		r.saveSnapshot()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		r.loadSnapshot()
	}
	return nil
}

// adjustVolume changes the playback volume by delta, clamped to [0, 1].
func (r *Runner) adjustVolume(delta float64) {
	r.volume = min(max(r.volume+delta, 0), 1)
	if r.audioPlayer != nil {
		r.audioPlayer.SetVolume(r.volume)
	}
}

// saveSnapshot records the current playback point for loadSnapshot.
func (r *Runner) saveSnapshot() {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.seq.Save()
	if err != nil {
		log.Printf("Warning: snapshot failed: %v", err)
		return
	}
	r.saved = snap
}

// loadSnapshot jumps back to the point saved by saveSnapshot.
func (r *Runner) loadSnapshot() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saved == nil {
		return
	}
	if err := r.seq.Restore(r.saved); err != nil {
		log.Printf("Warning: restoring snapshot failed: %v", err)
		return
	}
	if r.audioPlayer != nil {
		r.audioPlayer.Flush()
	}
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	levels, pos, loops, done := r.levels.Read()
	ui.PaintMeters(r.pixels, levels)
	r.view.Draw(screen, r.pixels)
	ebitenutil.DebugPrintAt(screen, ui.StatusLine(r.title, pos, loops, done, r.control.IsPaused()), 4, 4)
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.view.Layout(outsideWidth, outsideHeight)
}
