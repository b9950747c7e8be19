package emu

// PCMBuffer is a MixerSink that collects rendered blocks as interleaved
// 16-bit stereo. Mono blocks are duplicated to both sides.
type PCMBuffer struct {
	samples []int16
}

// AddSamplesMono appends count mono samples from buf.
func (b *PCMBuffer) AddSamplesMono(count int, buf []int32) {
	for i := 0; i < count; i++ {
		s := int16(clampInt32(buf[i], -32768, 32767))
		b.samples = append(b.samples, s, s)
	}
}

// AddSamplesStereo appends count stereo frames from buf.
func (b *PCMBuffer) AddSamplesStereo(count int, buf []int32) {
	for i := 0; i < count*2; i++ {
		b.samples = append(b.samples, int16(clampInt32(buf[i], -32768, 32767)))
	}
}

// Samples returns the collected samples. The slice is valid until Reset.
func (b *PCMBuffer) Samples() []int16 {
	return b.samples
}

// Frames returns the number of stereo frames collected.
func (b *PCMBuffer) Frames() int {
	return len(b.samples) / 2
}

// Reset empties the buffer, keeping its storage.
func (b *PCMBuffer) Reset() {
	b.samples = b.samples[:0]
}

// clampInt32 clamps v to [min, max].
func clampInt32(v, min, max int32) int32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
