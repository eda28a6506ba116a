package hazard

import "testing"

// h and s make the observation sequences readable.
const (
	h = true
	s = false
)

func TestUpdateSequences(t *testing.T) {
	tests := []struct {
		name     string
		enter    int
		exit     int
		sequence []bool
		want     State
	}{
		{
			name:     "single blip stays safe",
			enter:    3,
			exit:     5,
			sequence: []bool{h},
			want:     StateSafe,
		},
		{
			name:     "interrupted streak stays safe",
			enter:    3,
			exit:     5,
			sequence: []bool{h, h, s, h, h},
			want:     StateSafe,
		},
		{
			name:     "streak restarted after interruption trips",
			enter:    3,
			exit:     5,
			sequence: []bool{h, h, s, h, h, h},
			want:     StateHazard,
		},
		{
			name:     "sustained hazard trips",
			enter:    3,
			exit:     5,
			sequence: []bool{h, h, h, h},
			want:     StateHazard,
		},
		{
			name:     "hazard holds through short clear spells",
			enter:    3,
			exit:     5,
			sequence: []bool{h, h, h, s, s, s, s, h},
			want:     StateHazard,
		},
		{
			name:     "hazard stands down after full clear streak",
			enter:    3,
			exit:     5,
			sequence: []bool{h, h, h, s, s, s, s, s},
			want:     StateSafe,
		},
		{
			name:     "threshold one trips immediately",
			enter:    1,
			exit:     1,
			sequence: []bool{h},
			want:     StateHazard,
		},
		{
			name:     "zero thresholds clamp to one",
			enter:    0,
			exit:     -3,
			sequence: []bool{h, s},
			want:     StateSafe,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(tt.enter, tt.exit)
			var got State
			for _, frame := range tt.sequence {
				got = m.Update(frame)
			}
			if got != tt.want {
				t.Errorf("after %v got %v, want %v", tt.sequence, got, tt.want)
			}
		})
	}
}

func TestTransitionExactlyAtThreshold(t *testing.T) {
	m := NewMachine(3, 5)

	if got := m.Update(h); got != StateSafe {
		t.Fatalf("after 1 hazard frame: got %v, want SAFE", got)
	}
	if got := m.Update(h); got != StateSafe {
		t.Fatalf("after 2 hazard frames: got %v, want SAFE", got)
	}
	if got := m.Update(h); got != StateHazard {
		t.Fatalf("after 3 hazard frames: got %v, want HAZARD", got)
	}

	// Standing down needs the full exit streak.
	for i := 1; i <= 4; i++ {
		if got := m.Update(s); got != StateHazard {
			t.Fatalf("after %d clear frames: got %v, want HAZARD", i, got)
		}
	}
	if got := m.Update(s); got != StateSafe {
		t.Fatalf("after 5 clear frames: got %v, want SAFE", got)
	}
}

func TestStreaksAreMutuallyExclusive(t *testing.T) {
	m := NewMachine(3, 5)

	m.Update(h)
	m.Update(h)
	if m.HazardStreak() != 2 || m.SafeStreak() != 0 {
		t.Fatalf("streaks = (%d, %d), want (2, 0)", m.HazardStreak(), m.SafeStreak())
	}

	m.Update(s)
	if m.HazardStreak() != 0 || m.SafeStreak() != 1 {
		t.Fatalf("streaks = (%d, %d), want (0, 1)", m.HazardStreak(), m.SafeStreak())
	}
}

func TestReset(t *testing.T) {
	m := NewMachine(3, 5)
	m.Update(h)
	m.Update(h)

	m.Reset()
	if m.State() != StateSafe {
		t.Fatalf("Reset changed state to %v", m.State())
	}
	if m.HazardStreak() != 0 || m.SafeStreak() != 0 {
		t.Fatalf("Reset left streaks (%d, %d)", m.HazardStreak(), m.SafeStreak())
	}

	// The interrupted streak must not carry over.
	m.Update(h)
	if got := m.Update(h); got != StateSafe {
		t.Fatalf("got %v after 2 hazard frames post-reset, want SAFE", got)
	}
}

func TestResetTo(t *testing.T) {
	m := NewMachine(3, 5)
	m.Update(h)

	m.ResetTo(StateHazard)
	if m.State() != StateHazard {
		t.Fatalf("ResetTo(HAZARD) left state %v", m.State())
	}
	if m.HazardStreak() != 0 || m.SafeStreak() != 0 {
		t.Fatalf("ResetTo left streaks (%d, %d)", m.HazardStreak(), m.SafeStreak())
	}

	// Fresh start from HAZARD: the full exit streak is required.
	for i := 1; i <= 4; i++ {
		if got := m.Update(s); got != StateHazard {
			t.Fatalf("after %d clear frames post-reset: got %v, want HAZARD", i, got)
		}
	}
	if got := m.Update(s); got != StateSafe {
		t.Fatalf("after 5 clear frames post-reset: got %v, want SAFE", got)
	}
}
