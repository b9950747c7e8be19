package ui

import (
	"sync"
	"time"
)

// MeterChannels is the number of channels shown by the level meters.
const MeterChannels = 18

// SharedLevels holds channel levels written by the playback goroutine and
// read by Ebiten's Draw method. Separate write and read copies let the
// playback goroutine publish while Draw uses its snapshot.
type SharedLevels struct {
	mu       sync.Mutex
	write    [MeterChannels]float32
	read     [MeterChannels]float32
	position uint32 // Milliseconds into the capture
	loops    int
	done     bool
}

// Update publishes levels and the playback position.
func (sl *SharedLevels) Update(levels []float32, position uint32, loops int, done bool) {
	sl.mu.Lock()
	n := copy(sl.write[:], levels)
	clear(sl.write[n:])
	sl.position = position
	sl.loops = loops
	sl.done = done
	sl.mu.Unlock()
}

// Read returns a snapshot of the latest levels and position. The levels
// slice stays valid until the next Read.
func (sl *SharedLevels) Read() (levels []float32, position uint32, loops int, done bool) {
	sl.mu.Lock()
	sl.read = sl.write
	levels = sl.read[:]
	position = sl.position
	loops = sl.loops
	done = sl.done
	sl.mu.Unlock()
	return
}

// PlaybackControl manages pause/resume/stop coordination between the
// Ebiten thread and the playback goroutine.
type PlaybackControl struct {
	mu       sync.Mutex
	pauseReq bool
	paused   bool
	running  bool
	stopReq  bool
	ackCh    chan struct{}
}

// NewPlaybackControl creates a new playback control.
func NewPlaybackControl() *PlaybackControl {
	return &PlaybackControl{
		running: true,
		ackCh:   make(chan struct{}, 1),
	}
}

// RequestPause asks the playback goroutine to pause and blocks until it
// acknowledges the pause.
func (pc *PlaybackControl) RequestPause() {
	pc.mu.Lock()
	if pc.paused || pc.pauseReq {
		pc.mu.Unlock()
		return
	}
	pc.pauseReq = true
	pc.mu.Unlock()

	<-pc.ackCh
}

// RequestResume tells the playback goroutine to resume.
func (pc *PlaybackControl) RequestResume() {
	pc.mu.Lock()
	pc.pauseReq = false
	pc.paused = false
	pc.mu.Unlock()
}

// CheckPause is called by the playback goroutine between blocks. If a
// pause has been requested, it acknowledges and waits until resumed or
// stopped. Returns false if the goroutine should exit.
func (pc *PlaybackControl) CheckPause() bool {
	pc.mu.Lock()
	if !pc.running || pc.stopReq {
		pc.mu.Unlock()
		return false
	}
	if !pc.pauseReq {
		pc.mu.Unlock()
		return true
	}

	pc.paused = true
	pc.mu.Unlock()

	// Non-blocking send of ack (buffer size 1)
	select {
	case pc.ackCh <- struct{}{}:
	default:
	}

	for {
		pc.mu.Lock()
		if !pc.running || pc.stopReq {
			pc.mu.Unlock()
			return false
		}
		if !pc.pauseReq {
			pc.paused = false
			pc.mu.Unlock()
			return true
		}
		pc.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
}

// Stop signals the playback goroutine to exit.
func (pc *PlaybackControl) Stop() {
	pc.mu.Lock()
	pc.running = false
	pc.stopReq = true
	// Also clear pause so CheckPause unblocks
	pc.pauseReq = false
	pc.mu.Unlock()

	// Release a RequestPause waiting on a goroutine that already exited
	select {
	case pc.ackCh <- struct{}{}:
	default:
	}
}

// ShouldRun returns true if the goroutine should continue running.
func (pc *PlaybackControl) ShouldRun() bool {
	pc.mu.Lock()
	r := pc.running && !pc.stopReq
	pc.mu.Unlock()
	return r
}

// IsPaused returns true if the playback goroutine is currently paused.
func (pc *PlaybackControl) IsPaused() bool {
	pc.mu.Lock()
	p := pc.paused
	pc.mu.Unlock()
	return p
}
