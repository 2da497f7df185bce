package action

import (
	"sync"

	"github.com/pleimann/camel-touch/internal/config"
	"github.com/pleimann/camel-touch/internal/gesture"
)

// Action is what runs when a gesture is recognized
type Action struct {
	Keys    []string // Key strings written to the wrapped TUI, in order
	Command string   // Shell command run with sh -c
}

// Empty reports whether the action does nothing
func (a Action) Empty() bool {
	return len(a.Keys) == 0 && a.Command == ""
}

// Mapper maps gestures to actions based on configuration
type Mapper struct {
	mu      sync.RWMutex
	actions map[string]Action // gesture.Key() -> action
}

// NewMapper creates a new action mapper from configuration
func NewMapper(cfg *config.Config) *Mapper {
	return &Mapper{actions: buildActions(cfg)}
}

func buildActions(cfg *config.Config) map[string]Action {
	actions := make(map[string]Action, len(cfg.Gestures))
	for name, a := range cfg.Gestures {
		gt, err := gesture.ParseGestureType(name)
		if err != nil {
			continue
		}
		actions[gesture.Gesture{Type: gt}.Key()] = Action{
			Keys:    append([]string(nil), a.Keys...),
			Command: a.Command,
		}
	}
	return actions
}

// Map returns the action for a gesture and whether one is configured
func (m *Mapper) Map(g gesture.Gesture) (Action, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.actions[g.Key()]
	if !ok || a.Empty() {
		return Action{}, false
	}
	return a, true
}

// Reload updates the mapper with new configuration
func (m *Mapper) Reload(cfg *config.Config) {
	actions := buildActions(cfg)

	m.mu.Lock()
	m.actions = actions
	m.mu.Unlock()
}
