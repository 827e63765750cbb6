package personality

import (
	"context"
	"testing"
	"time"

	"github.com/cortexhq/cortex/internal/analytics"
)

// fakePersister records saves without a real database
type fakePersister struct {
	stored string
	saves  int
}

func (f *fakePersister) PersonalityState(ctx context.Context) (string, error) {
	return f.stored, nil
}

func (f *fakePersister) SavePersonalityState(ctx context.Context, state string) error {
	f.stored = state
	f.saves++
	return nil
}

// TestDefaultState verifies a fresh manager starts in Chill
func TestDefaultState(t *testing.T) {
	m := NewManager(&fakePersister{})

	if m.State() != StateChill {
		t.Errorf("fresh state = %q, want %q", m.State(), StateChill)
	}
	if props := m.CurrentProperties(); props.AlertSensitivity != 0.5 || props.Theme != "Chill" {
		t.Errorf("Chill properties = %+v", props)
	}
}

// TestLoadRestoresPersistedState tests restart behavior
func TestLoadRestoresPersistedState(t *testing.T) {
	p := &fakePersister{stored: StateStudy}
	m := NewManager(p)

	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.State() != StateStudy {
		t.Errorf("loaded state = %q, want %q", m.State(), StateStudy)
	}
}

// TestLoadIgnoresUnknownState verifies schema-drift tolerance
func TestLoadIgnoresUnknownState(t *testing.T) {
	p := &fakePersister{stored: "Party"}
	m := NewManager(p)

	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.State() != StateChill {
		t.Errorf("state after unknown load = %q, want the default", m.State())
	}
}

// TestSetState tests transitions, persistence, and validation
func TestSetState(t *testing.T) {
	p := &fakePersister{}
	m := NewManager(p)
	ctx := context.Background()

	if err := m.SetState(ctx, StateSocial); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	if m.State() != StateSocial || p.stored != StateSocial {
		t.Errorf("state = %q, persisted = %q", m.State(), p.stored)
	}
	if props := m.CurrentProperties(); props.AlertSensitivity != 0.9 {
		t.Errorf("Social sensitivity = %v, want 0.9", props.AlertSensitivity)
	}

	// Re-setting the same state skips the write
	saves := p.saves
	if err := m.SetState(ctx, StateSocial); err != nil {
		t.Fatalf("SetState (same) failed: %v", err)
	}
	if p.saves != saves {
		t.Error("no-op transition hit the database")
	}

	if err := m.SetState(ctx, "Frantic"); err == nil {
		t.Error("SetState accepted an unknown state")
	}
	if m.State() != StateSocial {
		t.Error("failed SetState changed the state")
	}
}

// TestUpdateQuietNightDriftsToSleep tests the auto-transition rule
func TestUpdateQuietNightDriftsToSleep(t *testing.T) {
	m := NewManager(&fakePersister{})
	ctx := context.Background()

	quiet := map[string]analytics.RoomEstimate{
		"sound_dbfs": {Metric: "sound_dbfs", Value: -55, Sources: 2},
	}
	night := time.Date(2026, 8, 1, 2, 30, 0, 0, time.UTC)
	day := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)

	// Quiet daytime: no transition
	if err := m.Update(ctx, quiet, day); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if m.State() != StateChill {
		t.Errorf("quiet day moved state to %q", m.State())
	}

	// Quiet night: Sleep
	if err := m.Update(ctx, quiet, night); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if m.State() != StateSleep {
		t.Errorf("quiet night state = %q, want %q", m.State(), StateSleep)
	}

	// Loud night: no transition
	m2 := NewManager(&fakePersister{})
	loud := map[string]analytics.RoomEstimate{
		"sound_dbfs": {Metric: "sound_dbfs", Value: -20, Sources: 2},
	}
	m2.Update(ctx, loud, night)
	if m2.State() != StateChill {
		t.Errorf("loud night moved state to %q", m2.State())
	}

	// No microphone anywhere: no transition
	m3 := NewManager(&fakePersister{})
	m3.Update(ctx, map[string]analytics.RoomEstimate{}, night)
	if m3.State() != StateChill {
		t.Errorf("no sound data moved state to %q", m3.State())
	}
}

// TestValidStates pins the state set
func TestValidStates(t *testing.T) {
	states := ValidStates()
	want := []string{"Chill", "Sleep", "Social", "Study"}
	if len(states) != len(want) {
		t.Fatalf("ValidStates = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("ValidStates[%d] = %q, want %q", i, states[i], want[i])
		}
	}
}
