// Package actuator drives the physical hazard indicator: a pointing servo
// and a hazard LED. Three backends implement the same interface: hardware
// GPIO PWM, a serial servo board, and a simulator for development machines.
package actuator

import "math"

// Servo timing. 0 degrees is a 500us pulse (2.5% duty at 50Hz), 180 degrees
// is 2500us (12.5%).
const (
	ServoFreqHz = 50
	DutyMinPct  = 2.5
	DutyMaxPct  = 12.5
)

// Actuator positions the indicator servo and switches the hazard LED.
// Implementations are bound at startup; commands are best-effort and a write
// failure never stops the pipeline.
type Actuator interface {
	// SetAngle points the servo. The angle is clamped to 0-180 degrees.
	SetAngle(deg float64) error
	// SetHazard switches the hazard LED.
	SetHazard(on bool) error
	Close() error
}

// ClampAngle limits a servo command to the physical 0-180 degree range.
func ClampAngle(deg float64) float64 {
	return math.Max(0, math.Min(180, deg))
}

// AngleToDuty converts a servo angle to a PWM duty cycle percentage.
func AngleToDuty(deg float64) float64 {
	return DutyMinPct + (ClampAngle(deg)/180.0)*(DutyMaxPct-DutyMinPct)
}

// AngleToPulseUS converts a servo angle to a pulse width in microseconds for
// boards that speak pulse widths instead of duty cycles. The 50Hz period is
// 20000us, so the duty range maps to 500-2500us.
func AngleToPulseUS(deg float64) int {
	return int(math.Round(AngleToDuty(deg) / 100.0 * 20000.0))
}
