// Package hazard implements the hysteretic SAFE/HAZARD state machine that
// smooths noisy per-frame detector output. The thresholds are asymmetric:
// quick to raise the alarm, slower to stand down.
package hazard

// State is the debounced hazard state.
type State int

const (
	StateSafe State = iota
	StateHazard
)

func (s State) String() string {
	switch s {
	case StateSafe:
		return "SAFE"
	case StateHazard:
		return "HAZARD"
	default:
		return "UNKNOWN"
	}
}

// Default debounce thresholds, in consecutive frames.
const (
	DefaultEnterThreshold = 3
	DefaultExitThreshold  = 5
)

// Machine debounces per-frame hazard classifications. At most one of the two
// streak counters is nonzero at any time; every observation of the opposite
// kind resets the other streak. A transition happens only exactly when a
// streak reaches its threshold.
type Machine struct {
	state        State
	enter        int
	exit         int
	hazardStreak int
	safeStreak   int
}

// NewMachine creates a state machine starting in SAFE. Thresholds below 1 are
// clamped to 1.
func NewMachine(enterThreshold, exitThreshold int) *Machine {
	if enterThreshold < 1 {
		enterThreshold = 1
	}
	if exitThreshold < 1 {
		exitThreshold = 1
	}
	return &Machine{state: StateSafe, enter: enterThreshold, exit: exitThreshold}
}

// Update feeds one frame classification into the machine and returns the
// state after the update.
func (m *Machine) Update(isHazardFrame bool) State {
	if isHazardFrame {
		m.hazardStreak++
		m.safeStreak = 0
		if m.state == StateSafe && m.hazardStreak >= m.enter {
			m.state = StateHazard
		}
	} else {
		m.safeStreak++
		m.hazardStreak = 0
		if m.state == StateHazard && m.safeStreak >= m.exit {
			m.state = StateSafe
		}
	}
	return m.state
}

// State returns the current state without feeding an observation.
func (m *Machine) State() State { return m.state }

// HazardStreak returns the current consecutive hazard-frame count.
func (m *Machine) HazardStreak() int { return m.hazardStreak }

// SafeStreak returns the current consecutive clear-frame count.
func (m *Machine) SafeStreak() int { return m.safeStreak }

// Reset zeroes both streak counters and keeps the current state.
func (m *Machine) Reset() {
	m.hazardStreak = 0
	m.safeStreak = 0
}

// ResetTo zeroes both streak counters and forces the given state. Subsequent
// updates behave as a fresh start from that state.
func (m *Machine) ResetTo(s State) {
	m.state = s
	m.Reset()
}
