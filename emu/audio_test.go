package emu

import "testing"

func TestPCMBuffer_Mono(t *testing.T) {
	var b PCMBuffer
	b.AddSamplesMono(3, []int32{100, -40000, 40000, 999})
	want := []int16{100, 100, -32768, -32768, 32767, 32767}
	got := b.Samples()
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}
	if b.Frames() != 3 {
		t.Errorf("expected 3 frames, got %d", b.Frames())
	}
}

func TestPCMBuffer_Stereo(t *testing.T) {
	var b PCMBuffer
	b.AddSamplesStereo(2, []int32{1, -2, 70000, -70000})
	want := []int16{1, -2, 32767, -32768}
	got := b.Samples()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestPCMBuffer_Reset(t *testing.T) {
	var b PCMBuffer
	b.AddSamplesMono(10, make([]int32, 10))
	b.Reset()
	if b.Frames() != 0 {
		t.Errorf("expected empty buffer, got %d frames", b.Frames())
	}
	b.AddSamplesStereo(1, []int32{5, 6})
	if s := b.Samples(); len(s) != 2 || s[0] != 5 || s[1] != 6 {
		t.Errorf("expected [5 6], got %v", s)
	}
}

func TestClampInt32(t *testing.T) {
	tests := []struct {
		v, want int32
	}{
		{0, 0},
		{-32769, -32768},
		{32768, 32767},
		{-32768, -32768},
	}
	for _, tc := range tests {
		if got := clampInt32(tc.v, -32768, 32767); got != tc.want {
			t.Errorf("clampInt32(%d): expected %d, got %d", tc.v, tc.want, got)
		}
	}
}
