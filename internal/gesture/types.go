package gesture

import (
	"fmt"
	"strings"
)

// GestureType represents the type of static gesture detected
type GestureType int

const (
	GestureTwoFingerTap GestureType = iota + 1
	GestureRollover
)

func (g GestureType) String() string {
	switch g {
	case GestureTwoFingerTap:
		return "two_finger_tap"
	case GestureRollover:
		return "rollover"
	default:
		return fmt.Sprintf("unknown(%d)", g)
	}
}

// ParseGestureType maps a configuration name back to a GestureType
func ParseGestureType(name string) (GestureType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "two_finger_tap":
		return GestureTwoFingerTap, nil
	case "rollover":
		return GestureRollover, nil
	default:
		return 0, fmt.Errorf("unknown gesture: %q", name)
	}
}

// Gesture represents a recognized static gesture
type Gesture struct {
	Type    GestureType
	Devices []int // Device ids of the two contacts involved
	Tick    Tick  // Tick at which the gesture was recognized
}

func (g Gesture) String() string {
	return fmt.Sprintf("%s(%v)", g.Type, g.Devices)
}

// Key returns the lookup key for action mappings
func (g Gesture) Key() string {
	return g.Type.String()
}

// SystemGesture is a gesture recognized by the platform gesture engine
// (drag, flick, ...) rather than by the static detector.
type SystemGesture int

const (
	SystemGestureOther SystemGesture = iota
	SystemGestureDrag
	SystemGestureRightDrag
	SystemGestureFlick
	// SystemGestureCancel reports that the platform lost track of a contact
	SystemGestureCancel
)

func (s SystemGesture) String() string {
	switch s {
	case SystemGestureOther:
		return "other"
	case SystemGestureDrag:
		return "drag"
	case SystemGestureRightDrag:
		return "right_drag"
	case SystemGestureFlick:
		return "flick"
	case SystemGestureCancel:
		return "cancel"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Preempts reports whether the system gesture takes over an interaction,
// preventing static gesture recognition for it.
func (s SystemGesture) Preempts() bool {
	switch s {
	case SystemGestureDrag, SystemGestureRightDrag, SystemGestureFlick, SystemGestureCancel:
		return true
	}
	return false
}

// EventKind is the kind of a contact lifecycle event
type EventKind int

const (
	ContactDown EventKind = iota + 1
	ContactUp
	RecognizedGesture
)

func (k EventKind) String() string {
	switch k {
	case ContactDown:
		return "down"
	case ContactUp:
		return "up"
	case RecognizedGesture:
		return "gesture"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ContactEvent is one contact lifecycle event fed to the detector
type ContactEvent struct {
	DeviceID  int
	Kind      EventKind
	Gesture   SystemGesture // Only meaningful for RecognizedGesture
	Timestamp Tick
}

func (e ContactEvent) String() string {
	if e.Kind == RecognizedGesture {
		return fmt.Sprintf("%s:%s(%d)@%d", e.Kind, e.Gesture, e.DeviceID, e.Timestamp)
	}
	return fmt.Sprintf("%s(%d)@%d", e.Kind, e.DeviceID, e.Timestamp)
}

// NewDownEvent creates a contact down event
func NewDownEvent(deviceID int, ts Tick) ContactEvent {
	return ContactEvent{DeviceID: deviceID, Kind: ContactDown, Timestamp: ts}
}

// NewUpEvent creates a contact up event
func NewUpEvent(deviceID int, ts Tick) ContactEvent {
	return ContactEvent{DeviceID: deviceID, Kind: ContactUp, Timestamp: ts}
}

// NewSystemGestureEvent creates a recognized system gesture event
func NewSystemGestureEvent(deviceID int, g SystemGesture, ts Tick) ContactEvent {
	return ContactEvent{DeviceID: deviceID, Kind: RecognizedGesture, Gesture: g, Timestamp: ts}
}
