package actuator

import (
	"fmt"
	"log/slog"

	"go.bug.st/serial"
)

// Default channels on the servo board.
const (
	DefaultServoChannel = 0
	DefaultLEDChannel   = 1
)

// Serial drives an SSC-32 style servo board over a USB serial link. The
// board speaks plain ASCII: "#<ch>P<pulse_us>\r" positions a servo, and
// "#<ch>H" / "#<ch>L" switch a discrete output.
type Serial struct {
	port         serial.Port
	portName     string
	servoChannel int
	ledChannel   int
	log          *slog.Logger
}

// NewSerial opens the board and centers the servo. An unopenable port means
// no board is attached; the caller falls back to another backend.
func NewSerial(portName string, servoChannel, ledChannel int, log *slog.Logger) (*Serial, error) {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: 115200})
	if err != nil {
		return nil, fmt.Errorf("open servo board %s: %w", portName, err)
	}
	a := &Serial{
		port:         port,
		portName:     portName,
		servoChannel: servoChannel,
		ledChannel:   ledChannel,
		log:          log,
	}
	if err := a.SetAngle(90); err != nil {
		port.Close()
		return nil, err
	}
	log.Info("serial actuator ready", "port", portName,
		"servo_channel", servoChannel, "led_channel", ledChannel)
	return a, nil
}

// SetAngle implements Actuator.
func (a *Serial) SetAngle(deg float64) error {
	if _, err := fmt.Fprintf(a.port, "#%dP%d\r", a.servoChannel, AngleToPulseUS(deg)); err != nil {
		return fmt.Errorf("servo board %s write: %w", a.portName, err)
	}
	return nil
}

// SetHazard implements Actuator.
func (a *Serial) SetHazard(on bool) error {
	level := "L"
	if on {
		level = "H"
	}
	if _, err := fmt.Fprintf(a.port, "#%d%s\r", a.ledChannel, level); err != nil {
		return fmt.Errorf("servo board %s write: %w", a.portName, err)
	}
	return nil
}

// Close clears the LED and releases the port.
func (a *Serial) Close() error {
	if err := a.SetHazard(false); err != nil {
		a.log.Warn("could not clear hazard output on shutdown", "error", err)
	}
	return a.port.Close()
}
