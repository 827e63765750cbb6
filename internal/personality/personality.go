// Package personality implements the hub's adaptive mood state machine.
//
// The state shapes how the hub behaves downstream: alert sensitivity scales
// spike notifications, and the theme drives whatever display is attached.
// State survives restarts through the store.
package personality

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cortexhq/cortex/internal/analytics"
	"github.com/cortexhq/cortex/internal/logging"
)

// Hub states.
const (
	StateStudy  = "Study"
	StateChill  = "Chill" // default
	StateSleep  = "Sleep"
	StateSocial = "Social"
)

// Properties describe how a state modulates hub behavior.
type Properties struct {
	AlertSensitivity float64 `json:"alert_sensitivity"`
	Theme            string  `json:"theme"`
}

var stateConfig = map[string]Properties{
	StateStudy:  {AlertSensitivity: 0.8, Theme: "Study"},
	StateChill:  {AlertSensitivity: 0.5, Theme: "Chill"},
	StateSleep:  {AlertSensitivity: 0.2, Theme: "Sleep"},
	StateSocial: {AlertSensitivity: 0.9, Theme: "Social"},
}

// ValidStates returns the known state names, sorted.
func ValidStates() []string {
	states := make([]string, 0, len(stateConfig))
	for s := range stateConfig {
		states = append(states, s)
	}
	sort.Strings(states)
	return states
}

// IsValidState reports whether a state name is known.
func IsValidState(state string) bool {
	_, ok := stateConfig[state]
	return ok
}

// Persister is the slice of the store the state machine needs.
type Persister interface {
	PersonalityState(ctx context.Context) (string, error)
	SavePersonalityState(ctx context.Context, state string) error
}

// Manager is the hub's personality state machine.
type Manager struct {
	persister Persister

	mu    sync.RWMutex
	state string
}

// NewManager creates a state machine in the default Chill state.
func NewManager(persister Persister) *Manager {
	return &Manager{
		persister: persister,
		state:     StateChill,
	}
}

// Load restores the persisted state. A fresh database leaves the default in
// place; an unknown persisted name (from a newer or older schema) does too.
func (m *Manager) Load(ctx context.Context) error {
	state, err := m.persister.PersonalityState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load personality state: %w", err)
	}

	if state != "" && IsValidState(state) {
		m.mu.Lock()
		m.state = state
		m.mu.Unlock()
	}

	logging.Info("Personality state loaded: %s", m.State())
	return nil
}

// State returns the current state name.
func (m *Manager) State() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CurrentProperties returns the properties of the current state.
func (m *Manager) CurrentProperties() Properties {
	return stateConfig[m.State()]
}

// SetState transitions to a new state and persists it. Setting the current
// state again is a no-op and skips the database write.
func (m *Manager) SetState(ctx context.Context, state string) error {
	if !IsValidState(state) {
		return fmt.Errorf("invalid personality state %q: valid states are %v", state, ValidStates())
	}

	m.mu.Lock()
	if state == m.state {
		m.mu.Unlock()
		return nil
	}
	m.state = state
	m.mu.Unlock()

	if err := m.persister.SavePersonalityState(ctx, state); err != nil {
		return err
	}

	logging.Info("Personality state changed to: %s", state)
	return nil
}

// nightStart and nightEnd bound the hours treated as night for the
// auto-sleep rule.
const (
	nightStart = 23 // 11pm
	nightEnd   = 7  // 7am
)

// Update runs the automatic transition rules against the fused room view.
// Today there is one rule: a quiet room at night drifts the hub into Sleep.
// Anything richer (weekly rhythm, occupancy trends) layers on here later.
func (m *Manager) Update(ctx context.Context, fused map[string]analytics.RoomEstimate, now time.Time) error {
	hour := now.Hour()
	isNight := hour >= nightStart || hour < nightEnd

	sound, hasSound := fused["sound_dbfs"]
	isQuiet := hasSound && sound.Value < -40

	if isNight && isQuiet && m.State() != StateSleep {
		logging.Debug("Quiet night detected (%.1f dBFS at %02d:00), drifting to Sleep",
			sound.Value, hour)
		return m.SetState(ctx, StateSleep)
	}

	return nil
}
