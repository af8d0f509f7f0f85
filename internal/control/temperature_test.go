package control

import (
	"math"
	"testing"
)

func TestMapTemperatureEndpoints(t *testing.T) {
	cases := []struct {
		vrefMV, signalMV float64
		want             float64
	}{
		{5000, 0, -10},    // below 10%: clamped
		{5000, 500, -10},  // exactly 10%
		{5000, 4500, 300}, // exactly 90%
		{5000, 5000, 300}, // above 90%: clamped
	}
	for _, c := range cases {
		got := MapTemperature(c.vrefMV, c.signalMV)
		if got != c.want {
			t.Errorf("MapTemperature(%v, %v): got %v, want %v", c.vrefMV, c.signalMV, got, c.want)
		}
	}
}

func TestMapTemperatureLinear(t *testing.T) {
	// Midpoint of the band (50% of vref) maps to the midpoint of the span.
	got := MapTemperature(5000, 2500)
	want := 145.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("midpoint: got %v, want %v", got, want)
	}

	// Independent of vref magnitude for the same fractional position.
	got = MapTemperature(4000, 2000)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("midpoint at 4V vref: got %v, want %v", got, want)
	}
}

func TestMapTemperatureRoundTrip(t *testing.T) {
	for _, temp := range []float64{-5, 0, 100, 160, 180, 250, 295} {
		mv := mvForTemp(5000, temp)
		got := MapTemperature(5000, float64(mv))
		if math.Abs(got-temp) > 0.2 {
			t.Errorf("round trip %vC: got %v", temp, got)
		}
	}
}
