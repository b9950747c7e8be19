package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// ringBufferMillis bounds queued audio; older frames are evicted past it.
const ringBufferMillis = 170

// AudioPlayer feeds rendered int16 stereo frames to the sound card. The
// sequencer side queues frames and oto drains them on its own goroutine.
type AudioPlayer struct {
	player     *oto.Player
	ringBuffer *AudioRingBuffer
}

// oto permits a single context per process. Its rate is pinned by the
// first NewAudioPlayer call and later players must ask for the same rate.
var (
	otoCtx      *oto.Context
	otoRate     int
	otoInitOnce sync.Once
	otoInitErr  error
)

// ensureOtoContext opens the shared context, or checks rate against it.
func ensureOtoContext(rate int) (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   rate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		var readyChan chan struct{}
		otoCtx, readyChan, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		otoRate = rate
		<-readyChan
	})
	if otoInitErr == nil && otoRate != rate {
		return nil, fmt.Errorf("audio context already running at %d Hz", otoRate)
	}
	return otoCtx, otoInitErr
}

// NewAudioPlayer starts playback of stereo frames at rate Hz.
func NewAudioPlayer(rate int, volume float64) (*AudioPlayer, error) {
	ctx, err := ensureOtoContext(rate)
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}

	rb := NewAudioRingBuffer(rate * ringBufferMillis / 1000)
	player := ctx.NewPlayer(rb)
	player.SetBufferSize(BytesForMillis(rate, 100))
	player.SetVolume(volume)
	player.Play()

	return &AudioPlayer{
		player:     player,
		ringBuffer: rb,
	}, nil
}

// BytesForMillis converts a duration in ms to bytes of stereo frames.
func BytesForMillis(rate, ms int) int {
	return rate * ms / 1000 * frameBytes
}

// QueueSamples queues interleaved left/right samples for playback.
func (a *AudioPlayer) QueueSamples(samples []int16) {
	if len(samples) == 0 {
		return
	}
	a.ringBuffer.Write(samples)
}

// GetBufferLevel is the audio still waiting to be heard, in bytes. It
// counts both the ring and oto's internal buffer and drives render pacing.
func (a *AudioPlayer) GetBufferLevel() int {
	return a.ringBuffer.Buffered() + a.player.BufferedSize()
}

// Flush drops frames that have not been handed to oto, e.g. after a seek.
func (a *AudioPlayer) Flush() {
	a.ringBuffer.Clear()
}

// SetVolume scales output, from 0 (mute) to 1 (unity).
func (a *AudioPlayer) SetVolume(vol float64) {
	a.player.SetVolume(vol)
}

// Close stops playback and releases the oto player.
func (a *AudioPlayer) Close() {
	if a.ringBuffer != nil {
		a.ringBuffer.Close()
	}
	if a.player != nil {
		a.player.Close()
	}
}
