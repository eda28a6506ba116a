package actuator

import (
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Default BCM pin names, matching the deployed wiring.
const (
	DefaultServoPin = "GPIO13"
	DefaultLEDPin   = "GPIO18"
)

// GPIO drives the servo with PWM and the LED as a digital output through
// periph.io.
//
// The servo needs its own power supply. Only the control wire goes to the
// pin header, with the grounds tied together; powering the servo from the
// controller board browns it out.
type GPIO struct {
	servo gpio.PinIO
	led   gpio.PinIO
	log   *slog.Logger
}

// NewGPIO initializes the host drivers and claims both pins. Any failure
// here means the hardware is absent or busy and the caller should fall back
// to another backend.
func NewGPIO(servoPin, ledPin string, log *slog.Logger) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpio host init: %w", err)
	}
	servo := gpioreg.ByName(servoPin)
	if servo == nil {
		return nil, fmt.Errorf("no such pin %q", servoPin)
	}
	led := gpioreg.ByName(ledPin)
	if led == nil {
		return nil, fmt.Errorf("no such pin %q", ledPin)
	}
	if err := led.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("led pin %s: %w", ledPin, err)
	}

	a := &GPIO{servo: servo, led: led, log: log}
	// Center the indicator so a restart never leaves it pointing at a stale
	// target.
	if err := a.SetAngle(90); err != nil {
		return nil, err
	}
	log.Info("gpio actuator ready", "servo", servoPin, "led", ledPin)
	return a, nil
}

// SetAngle implements Actuator.
func (a *GPIO) SetAngle(deg float64) error {
	duty := gpio.Duty(AngleToDuty(deg) / 100.0 * float64(gpio.DutyMax))
	if err := a.servo.PWM(duty, ServoFreqHz*physic.Hertz); err != nil {
		return fmt.Errorf("servo pwm: %w", err)
	}
	return nil
}

// SetHazard implements Actuator.
func (a *GPIO) SetHazard(on bool) error {
	level := gpio.Low
	if on {
		level = gpio.High
	}
	if err := a.led.Out(level); err != nil {
		return fmt.Errorf("hazard led: %w", err)
	}
	return nil
}

// Close switches the LED off and stops the servo signal.
func (a *GPIO) Close() error {
	if err := a.led.Out(gpio.Low); err != nil {
		a.log.Warn("could not clear hazard led on shutdown", "error", err)
	}
	return a.servo.Halt()
}
