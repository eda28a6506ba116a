package actuator

import "log/slog"

// Simulator stands in for real hardware on development machines. It records
// the last commanded angle and LED state and logs every command.
type Simulator struct {
	angle  float64
	hazard bool
	log    *slog.Logger
}

// NewSimulator builds a simulator centered at 90 degrees with the LED off.
func NewSimulator(log *slog.Logger) *Simulator {
	return &Simulator{angle: 90, log: log}
}

// SetAngle implements Actuator.
func (s *Simulator) SetAngle(deg float64) error {
	s.angle = ClampAngle(deg)
	s.log.Debug("simulated servo", "angle", s.angle, "duty_pct", AngleToDuty(s.angle))
	return nil
}

// SetHazard implements Actuator.
func (s *Simulator) SetHazard(on bool) error {
	if on != s.hazard {
		s.log.Info("simulated hazard led", "on", on)
	}
	s.hazard = on
	return nil
}

// Angle returns the last commanded angle, clamped.
func (s *Simulator) Angle() float64 { return s.angle }

// Hazard returns the last commanded LED state.
func (s *Simulator) Hazard() bool { return s.hazard }

// Close implements Actuator.
func (s *Simulator) Close() error { return nil }
