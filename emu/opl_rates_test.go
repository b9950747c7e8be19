package emu

import "testing"

func TestRates_Deterministic(t *testing.T) {
	for _, rate := range []uint32{22050, 44100, 48000, 49716} {
		a := NewRateTable(rate)
		b := NewRateTable(rate)
		if *a != *b {
			t.Errorf("rate %d: two calibrations differ", rate)
		}
	}
}

func TestRates_NativeRate(t *testing.T) {
	r := NewRateTable(49716)
	if r.freqMul[1] != 4096 {
		t.Errorf("freqMul[1]: expected 4096, got %d", r.freqMul[1])
	}
	if r.freqMul[0] != 2048 {
		t.Errorf("freqMul[0]: expected 2048, got %d", r.freqMul[0])
	}
	if r.lfoAdd != 4096 || r.noiseAdd != 4096 {
		t.Errorf("lfo/noise add: expected 4096, got %d/%d", r.lfoAdd, r.noiseAdd)
	}
}

func TestRates_LinearNonDecreasing(t *testing.T) {
	r := NewRateTable(48000)
	if r.linearRates[0] == 0 {
		t.Fatal("linearRates[0] is zero")
	}
	for i := 1; i < len(r.linearRates); i++ {
		if r.linearRates[i] < r.linearRates[i-1] {
			t.Errorf("linearRates[%d]=%d < linearRates[%d]=%d",
				i, r.linearRates[i], i-1, r.linearRates[i-1])
		}
	}
}

func TestRates_InstantAttack(t *testing.T) {
	r := NewRateTable(44100)
	for i := 62; i < 76; i++ {
		if r.attackRates[i] != 8<<rateShift {
			t.Errorf("attackRates[%d]: expected 0x%X, got 0x%X", i, 8<<rateShift, r.attackRates[i])
		}
	}
	// One step from full attenuation reaches zero
	if got := simulateAttack(8<<rateShift, 10); got != 1 {
		t.Errorf("instant attack: expected 1 sample, got %d", got)
	}
}

// The search keeps the best of its passes, so it can never do worse than
// the closed-form starting guess.
func TestRates_AttackSearchImprovesOnGuess(t *testing.T) {
	for _, rate := range []uint32{22050, 48000, 49716} {
		r := NewRateTable(rate)
		for i := uint8(0); i < 62; i++ {
			got, want := r.attackLength(i)

			index, shift := envelopeSelect(i)
			guess := uint32(r.scale * float64(uint32(envelopeIncreaseTable[index])<<(rateShift-shift-3)))
			initial := simulateAttack(guess, want*2)

			if abs32(got-want) > abs32(initial-want) {
				t.Errorf("rate %d attack %d: calibrated off by %d, guess off by %d",
					rate, i, got-want, initial-want)
			}
		}
	}
}

func TestRates_AttackFasterAtHigherRate(t *testing.T) {
	r := NewRateTable(49716)
	// Compare whole rate steps with equal key scale
	for rate := 2; rate < 15; rate++ {
		slow, _ := r.attackLength(uint8((rate - 1) * 4))
		fast, _ := r.attackLength(uint8(rate * 4))
		if fast > slow {
			t.Errorf("attack rate %d takes %d samples, rate %d takes %d", rate, fast, rate-1, slow)
		}
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
