package core

import (
	"errors"
	"testing"
	"time"
)

func TestRandomContextResetReplaysSequence(t *testing.T) {
	rc := NewRandomContext(42)
	first := []float64{rc.Gaussian(0, 1), rc.Exponential(2), float64(rc.UniformInt(1, 100))}
	name := rc.Name()

	rc.Reset(42)
	second := []float64{rc.Gaussian(0, 1), rc.Exponential(2), float64(rc.UniformInt(1, 100))}
	if rc.Name() != name {
		t.Fatalf("faker not reset")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("draw %d differs after reset: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestRandomContextSeedsDiffer(t *testing.T) {
	a := NewRandomContext(1)
	b := NewRandomContext(2)
	same := 0
	for i := 0; i < 20; i++ {
		if a.Gaussian(0, 1) == b.Gaussian(0, 1) {
			same++
		}
	}
	if same == 20 {
		t.Fatalf("different seeds produced identical streams")
	}
}

func TestUniformIntInclusive(t *testing.T) {
	rc := NewRandomContext(7)
	seen := map[int]bool{}
	for i := 0; i < 2000; i++ {
		v := rc.UniformInt(10, 15)
		if v < 10 || v > 15 {
			t.Fatalf("value %d out of [10,15]", v)
		}
		seen[v] = true
	}
	if len(seen) != 6 {
		t.Fatalf("expected all 6 values, saw %d", len(seen))
	}
}

func TestSelectWeightedSkipsZeroWeights(t *testing.T) {
	rc := NewRandomContext(3)
	for i := 0; i < 500; i++ {
		if idx := rc.SelectWeighted([]float64{0, 1, 0}); idx != 1 {
			t.Fatalf("selected index %d with zero weight", idx)
		}
	}
}

func TestChooseDistinct(t *testing.T) {
	rc := NewRandomContext(9)
	items := []string{"a", "b", "c"}
	for i := 0; i < 200; i++ {
		x, y := ChooseDistinct(rc, items)
		if x == y {
			t.Fatalf("ChooseDistinct returned %q twice", x)
		}
	}
}

func TestRound(t *testing.T) {
	cases := []struct {
		in     float64
		places int
		want   float64
	}{
		{50.12345, 3, 50.123},
		{2.005, 1, 2.0},
		{98.456, 2, 98.46},
		{1234.56, 0, 1235},
	}
	for _, tc := range cases {
		if got := Round(tc.in, tc.places); got != tc.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tc.in, tc.places, got, tc.want)
		}
	}
}

func TestParseDataTypes(t *testing.T) {
	all, err := ParseDataTypes(nil)
	if err != nil || len(all) != 9 {
		t.Fatalf("expected 9 types, got %d (%v)", len(all), err)
	}

	got, err := ParseDataTypes([]string{"qc", "manufacturing", "qc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != DataTypeManufacturing || got[1] != DataTypeQC {
		t.Fatalf("unexpected order: %v", got)
	}

	_, err = ParseDataTypes([]string{"qc", "bogus"})
	if !errors.Is(err, ErrUnknownDataType) {
		t.Fatalf("expected ErrUnknownDataType, got %v", err)
	}
}

func TestDaysBetween(t *testing.T) {
	a := Date(2024, time.February, 28)
	b := Date(2024, time.March, 1)
	if d := DaysBetween(a, b); d != 2 {
		t.Fatalf("expected 2 days across leap day, got %d", d)
	}
	if _, err := ParseDate("2024-13-01"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}
