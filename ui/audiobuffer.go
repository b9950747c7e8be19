package ui

import (
	"io"
	"sync"
)

// frameBytes is the size of one int16 stereo frame on the oto wire.
const frameBytes = 4

// AudioRingBuffer holds interleaved int16 stereo audio as whole frames.
// The playback goroutine queues frames with Write and oto pulls them back
// through Read as little-endian bytes. A frame is never split: an odd
// trailing sample on Write is ignored and Read only emits complete frames.
//
// When full, Write evicts the oldest frames so the render loop never waits
// on the audio device.
type AudioRingBuffer struct {
	mu     sync.Mutex
	ready  *sync.Cond
	frames [][2]int16
	head   int // next frame to play
	size   int // frames queued
	closed bool
}

// NewAudioRingBuffer returns a ring with room for n stereo frames.
func NewAudioRingBuffer(n int) *AudioRingBuffer {
	if n < 1 {
		n = 1
	}
	rb := &AudioRingBuffer{frames: make([][2]int16, n)}
	rb.ready = sync.NewCond(&rb.mu)
	return rb
}

// Write queues interleaved left/right samples.
func (rb *AudioRingBuffer) Write(samples []int16) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	count := len(samples) / 2
	if rb.closed || count == 0 {
		return
	}

	limit := len(rb.frames)
	if count > limit {
		samples = samples[(count-limit)*2:]
		count = limit
	}
	if drop := rb.size + count - limit; drop > 0 {
		rb.head = (rb.head + drop) % limit
		rb.size -= drop
	}

	tail := (rb.head + rb.size) % limit
	for i := 0; i < count; i++ {
		rb.frames[tail] = [2]int16{samples[i*2], samples[i*2+1]}
		if tail++; tail == limit {
			tail = 0
		}
	}
	rb.size += count
	rb.ready.Signal()
}

// Read fills p with as many whole frames as fit, waiting while the ring is
// empty. It returns io.EOF once the ring is closed and drained.
func (rb *AudioRingBuffer) Read(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.size == 0 {
		if rb.closed {
			return 0, io.EOF
		}
		rb.ready.Wait()
	}

	count := min(len(p)/frameBytes, rb.size)
	for i := 0; i < count; i++ {
		f := rb.frames[rb.head]
		o := i * frameBytes
		p[o] = byte(f[0])
		p[o+1] = byte(uint16(f[0]) >> 8)
		p[o+2] = byte(f[1])
		p[o+3] = byte(uint16(f[1]) >> 8)
		if rb.head++; rb.head == len(rb.frames) {
			rb.head = 0
		}
	}
	rb.size -= count
	return count * frameBytes, nil
}

// Buffered reports queued audio in bytes, matching oto's BufferedSize.
func (rb *AudioRingBuffer) Buffered() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size * frameBytes
}

// Clear drops every queued frame.
func (rb *AudioRingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.head = 0
	rb.size = 0
}

// Close stops accepting frames and wakes any blocked Read.
func (rb *AudioRingBuffer) Close() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.closed = true
	rb.ready.Broadcast()
}
