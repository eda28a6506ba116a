package actuator

import (
	"io"
	"log/slog"
	"math"
	"testing"
)

func TestAngleToDuty(t *testing.T) {
	tests := []struct {
		name string
		deg  float64
		want float64
	}{
		{"zero degrees", 0, 2.5},
		{"center", 90, 7.5},
		{"full travel", 180, 12.5},
		{"clamped below", -30, 2.5},
		{"clamped above", 210, 12.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AngleToDuty(tt.deg); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AngleToDuty(%v) = %v, want %v", tt.deg, got, tt.want)
			}
		})
	}
}

func TestAngleToPulseUS(t *testing.T) {
	tests := []struct {
		deg  float64
		want int
	}{
		{0, 500},
		{90, 1500},
		{180, 2500},
		{-10, 500},
		{999, 2500},
	}

	for _, tt := range tests {
		if got := AngleToPulseUS(tt.deg); got != tt.want {
			t.Errorf("AngleToPulseUS(%v) = %d, want %d", tt.deg, got, tt.want)
		}
	}
}

func TestSimulatorRecordsCommands(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sim := NewSimulator(log)

	if sim.Angle() != 90 {
		t.Errorf("initial angle = %v, want centered at 90", sim.Angle())
	}

	if err := sim.SetAngle(120); err != nil {
		t.Fatal(err)
	}
	if sim.Angle() != 120 {
		t.Errorf("angle = %v, want 120", sim.Angle())
	}

	if err := sim.SetAngle(-45); err != nil {
		t.Fatal(err)
	}
	if sim.Angle() != 0 {
		t.Errorf("angle = %v, want clamped to 0", sim.Angle())
	}

	if err := sim.SetHazard(true); err != nil {
		t.Fatal(err)
	}
	if !sim.Hazard() {
		t.Error("hazard led not recorded as on")
	}
	if err := sim.SetHazard(false); err != nil {
		t.Fatal(err)
	}
	if sim.Hazard() {
		t.Error("hazard led not recorded as off")
	}
}
