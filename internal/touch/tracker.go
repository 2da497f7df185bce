package touch

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pleimann/camel-touch/internal/gesture"
)

// Contact is one finger touching the surface at an instant
type Contact struct {
	ID int
	X  int32
	Y  int32
}

// Frame is the set of contacts touching at one device timestamp
type Frame struct {
	Timestamp gesture.Tick
	Contacts  []Contact

	// Resync marks a frame read after the device dropped events. Contacts
	// tracked before it are cancelled rather than diffed against it.
	Resync bool
}

// Config holds the thresholds used to recognize system gestures
type Config struct {
	DragSlop         int           // Distance a contact may wander before it counts as a drag
	HoldThreshold    time.Duration // Stillness before a drag becomes a right drag
	FlickMaxDuration time.Duration // Longest stroke that can be a flick
	FlickMinVelocity float64       // Minimum average stroke speed, in units per ms
}

// contactState tracks one contact across frames
type contactState struct {
	downX, downY int32
	lastX, lastY int32
	downTime     gesture.Tick
	dragged      bool
}

// Tracker diffs successive frames into contact lifecycle events and
// recognizes drags and flicks.
type Tracker struct {
	mu       sync.Mutex
	cfg      Config
	contacts map[int]*contactState
}

// NewTracker creates a new contact tracker
func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		cfg:      cfg,
		contacts: make(map[int]*contactState),
	}
}

// Active returns the number of contacts currently tracked
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.contacts)
}

// SetConfig replaces the recognition thresholds
func (t *Tracker) SetConfig(cfg Config) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg = cfg
}

// Update consumes a frame and returns the resulting events. Drags of
// contacts still down come first, then releases, then new contacts.
func (t *Tracker) Update(frame Frame) []gesture.ContactEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	var events []gesture.ContactEvent
	ts := frame.Timestamp

	if frame.Resync {
		events = t.cancelAll(ts)
	}

	current := make(map[int]Contact, len(frame.Contacts))
	for _, c := range frame.Contacts {
		current[c.ID] = c
	}

	for _, id := range sortedIDs(t.contacts) {
		c, ok := current[id]
		if !ok {
			continue
		}
		st := t.contacts[id]
		st.lastX, st.lastY = c.X, c.Y
		if st.dragged || distance(st.downX, st.downY, c.X, c.Y) <= float64(t.cfg.DragSlop) {
			continue
		}
		st.dragged = true
		kind := gesture.SystemGestureDrag
		if t.cfg.HoldThreshold > 0 && elapsed(ts, st.downTime) >= t.cfg.HoldThreshold {
			kind = gesture.SystemGestureRightDrag
		}
		events = append(events, gesture.NewSystemGestureEvent(id, kind, ts))
	}

	for _, id := range sortedIDs(t.contacts) {
		if _, ok := current[id]; ok {
			continue
		}
		st := t.contacts[id]
		if t.isFlick(st, ts) {
			events = append(events, gesture.NewSystemGestureEvent(id, gesture.SystemGestureFlick, ts))
		}
		events = append(events, gesture.NewUpEvent(id, ts))
		delete(t.contacts, id)
	}

	var added []int
	for id := range current {
		if _, ok := t.contacts[id]; !ok {
			added = append(added, id)
		}
	}
	sort.Ints(added)
	for _, id := range added {
		c := current[id]
		t.contacts[id] = &contactState{
			downX: c.X, downY: c.Y,
			lastX: c.X, lastY: c.Y,
			downTime: ts,
		}
		events = append(events, gesture.NewDownEvent(id, ts))
	}

	return events
}

// Run converts frames into events until the frame channel closes or the
// context is done. It does not close events.
func (t *Tracker) Run(ctx context.Context, frames <-chan Frame, events chan<- gesture.ContactEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			for _, ev := range t.Update(f) {
				select {
				case events <- ev:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

// cancelAll lifts every tracked contact, marking each as cancelled so no
// static gesture is recognized from the lost session
func (t *Tracker) cancelAll(ts gesture.Tick) []gesture.ContactEvent {
	var events []gesture.ContactEvent
	for _, id := range sortedIDs(t.contacts) {
		events = append(events,
			gesture.NewSystemGestureEvent(id, gesture.SystemGestureCancel, ts),
			gesture.NewUpEvent(id, ts))
	}
	t.contacts = make(map[int]*contactState)
	return events
}

func (t *Tracker) isFlick(st *contactState, ts gesture.Tick) bool {
	if t.cfg.FlickMinVelocity <= 0 {
		return false
	}
	d := elapsed(ts, st.downTime)
	if d > t.cfg.FlickMaxDuration {
		return false
	}
	ms := float64(d.Milliseconds())
	if ms < 1 {
		ms = 1
	}
	dist := distance(st.downX, st.downY, st.lastX, st.lastY)
	return dist > float64(t.cfg.DragSlop) && dist/ms >= t.cfg.FlickMinVelocity
}

func elapsed(now, since gesture.Tick) time.Duration {
	d := now.Sub(since)
	if d < 0 {
		return 0
	}
	return time.Duration(d) * time.Millisecond
}

func distance(x0, y0, x1, y1 int32) float64 {
	return math.Hypot(float64(x1-x0), float64(y1-y0))
}

func sortedIDs(m map[int]*contactState) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
