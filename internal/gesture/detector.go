package gesture

import (
	"fmt"
)

// Timing windows for static gesture recognition, in milliseconds. They are
// independent values and are not derived from each other.
const (
	TwoFingerTapWindowMs = 150
	RolloverWindowMs     = 1158
)

// State is a state of the static gesture detector
type State int

const (
	StateIdle State = iota
	StateOneFingerDown
	StateTwoFingersDown
	StateOneFingerInStaticGesture
	StateTwoFingersInSystemGesture
	StateOneFingerInSystemGesture
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOneFingerDown:
		return "one_finger_down"
	case StateTwoFingersDown:
		return "two_fingers_down"
	case StateOneFingerInStaticGesture:
		return "one_finger_in_static_gesture"
	case StateTwoFingersInSystemGesture:
		return "two_fingers_in_system_gesture"
	case StateOneFingerInSystemGesture:
		return "one_finger_in_system_gesture"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// deviceID is a device identifier that may be unset
type deviceID struct {
	id  int
	set bool
}

func (d deviceID) matches(id int) bool {
	return d.set && d.id == id
}

// Option configures a Detector
type Option func(*Detector)

// WithRollover enables the experimental rollover gesture
func WithRollover(enabled bool) Option {
	return func(d *Detector) {
		d.rollover = enabled
	}
}

// Detector classifies two-finger touch sequences into static gestures.
// It is not safe for concurrent use; Engine serializes access.
type Detector struct {
	state     State
	first     deviceID
	second    deviceID
	firstDown Tick
	firstUp   Tick

	rollover bool
}

// NewDetector creates a new static gesture detector in the idle state
func NewDetector(opts ...Option) *Detector {
	d := &Detector{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns the current detector state
func (d *Detector) State() State {
	return d.state
}

// FirstDevice returns the first tracked device id. Nothing is tracked while idle.
func (d *Detector) FirstDevice() (int, bool) {
	if d.state == StateIdle {
		return 0, false
	}
	return d.first.id, d.first.set
}

// SecondDevice returns the second tracked device id. Nothing is tracked while idle.
func (d *Detector) SecondDevice() (int, bool) {
	if d.state == StateIdle {
		return 0, false
	}
	return d.second.id, d.second.set
}

// SetRollover toggles the experimental rollover gesture
func (d *Detector) SetRollover(enabled bool) {
	d.rollover = enabled
}

// ProcessEvent advances the state machine and returns the gesture recognized
// by the event, if any. Only ContactUp events can complete a gesture.
func (d *Detector) ProcessEvent(ev ContactEvent) (Gesture, bool) {
	switch ev.Kind {
	case ContactDown:
		d.handleDown(ev)
	case ContactUp:
		return d.handleUp(ev)
	case RecognizedGesture:
		d.handleSystemGesture(ev)
	}
	return Gesture{}, false
}

func (d *Detector) handleDown(ev ContactEvent) {
	switch d.state {
	case StateIdle:
		d.reset()
		d.first = deviceID{id: ev.DeviceID, set: true}
		d.firstDown = ev.Timestamp
		d.state = StateOneFingerDown
	case StateOneFingerDown:
		d.second = deviceID{id: ev.DeviceID, set: true}
		d.state = StateTwoFingersDown
	}
	// Any further contact is ignored while two are tracked
}

func (d *Detector) handleUp(ev ContactEvent) (Gesture, bool) {
	switch d.state {
	case StateTwoFingersDown:
		if d.isTracked(ev.DeviceID) {
			d.firstUp = ev.Timestamp
			d.state = StateOneFingerInStaticGesture
		}
	case StateOneFingerDown:
		if d.isTracked(ev.DeviceID) {
			d.state = StateIdle
		}
	case StateOneFingerInStaticGesture:
		// The remaining finger lifted; the session is over either way
		d.state = StateIdle
		now := ev.Timestamp
		if d.isTwoFingerTap(now) {
			return d.gesture(GestureTwoFingerTap, now), true
		}
		if d.rollover && d.isRollover(now) {
			return d.gesture(GestureRollover, now), true
		}
	case StateTwoFingersInSystemGesture:
		if d.isTracked(ev.DeviceID) {
			d.state = StateOneFingerInSystemGesture
		}
	case StateOneFingerInSystemGesture:
		if d.isTracked(ev.DeviceID) {
			d.state = StateIdle
		}
	}
	return Gesture{}, false
}

func (d *Detector) handleSystemGesture(ev ContactEvent) {
	if !ev.Gesture.Preempts() {
		return
	}
	switch d.state {
	case StateTwoFingersDown:
		d.state = StateTwoFingersInSystemGesture
	case StateOneFingerInStaticGesture, StateOneFingerDown:
		d.state = StateOneFingerInSystemGesture
	}
}

func (d *Detector) isTwoFingerTap(now Tick) bool {
	sinceFirstUp := now.Sub(d.firstUp)
	sinceFirstDown := now.Sub(d.firstDown)
	return sinceFirstUp < TwoFingerTapWindowMs && sinceFirstDown < RolloverWindowMs
}

// isRollover is experimental and only consulted when rollover is enabled.
func (d *Detector) isRollover(now Tick) bool {
	return now.Sub(d.firstDown) < RolloverWindowMs
}

func (d *Detector) isTracked(id int) bool {
	return d.first.matches(id) || d.second.matches(id)
}

func (d *Detector) gesture(t GestureType, now Tick) Gesture {
	return Gesture{
		Type:    t,
		Devices: []int{d.first.id, d.second.id},
		Tick:    now,
	}
}

func (d *Detector) reset() {
	d.first = deviceID{}
	d.second = deviceID{}
	d.firstDown = 0
	d.firstUp = 0
}
