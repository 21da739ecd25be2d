package rng

import "testing"

func TestSequenceCycles(t *testing.T) {
	s := NewSequence([]uint32{1, 2}, []float64{0.25})
	for i, expected := range []uint32{1, 2, 1, 2} {
		if v := s.Int32(); v != expected {
			t.Fatalf("Draw %v: expected %v. Got: %v", i, expected, v)
		}
	}
	if s.Float64() != 0.25 || s.Float64() != 0.25 {
		t.Fatalf("Float64 should repeat the single value")
	}
	if NewSequence(nil, nil).Int32() != 0 {
		t.Fatalf("An empty sequence should yield 0")
	}
}

func TestRandDeterministic(t *testing.T) {
	a, b := New(7), New(7)
	for i := 0; i < 10; i++ {
		if a.Int32() != b.Int32() {
			t.Fatalf("Sources with the same seed should produce the same values")
		}
	}
	f := a.Float64()
	if f < 0 || f >= 1 {
		t.Fatalf("Float64 should be in [0, 1). Got: %v", f)
	}
}
