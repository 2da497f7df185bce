package input

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	"github.com/lunixbochs/struc"

	"github.com/pleimann/camel-touch/internal/gesture"
	"github.com/pleimann/camel-touch/internal/touch"
	"github.com/pleimann/camel-touch/internal/utils"
)

// Event types
const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_ABS = 0x03
)

// SYN codes
const (
	SYN_REPORT  = 0x00
	SYN_DROPPED = 0x03
)

// Keys
const (
	BTN_TOUCH = 0x14A
)

// ABS axes
const (
	ABS_X              = 0x00
	ABS_Y              = 0x01
	ABS_MT_SLOT        = 0x2F
	ABS_MT_POSITION_X  = 0x35
	ABS_MT_POSITION_Y  = 0x36
	ABS_MT_TRACKING_ID = 0x39
)

// EventSize is the size of struct input_event with a 64-bit timeval
const EventSize = 24

// InputEvent mirrors the kernel's struct input_event on 64-bit platforms
type InputEvent struct {
	Sec   int64  `struc:"int64"`
	Usec  int64  `struc:"int64"`
	Type  uint16 `struc:"uint16"`
	Code  uint16 `struc:"uint16"`
	Value int32  `struc:"int32"`
}

var evdevOptions = &struc.Options{Order: binary.LittleEndian}

// Tick returns the event time as a millisecond tick
func (e InputEvent) Tick() gesture.Tick {
	return gesture.TickFromTime(time.Unix(e.Sec, e.Usec*1000))
}

// ParseInputEvent decodes one input_event record
func ParseInputEvent(data []byte) (*InputEvent, error) {
	if len(data) < EventSize {
		return nil, fmt.Errorf("event data too short: %d bytes", len(data))
	}
	var ev InputEvent
	if err := struc.UnpackWithOptions(bytes.NewReader(data[:EventSize]), &ev, evdevOptions); err != nil {
		return nil, fmt.Errorf("failed to decode input event: %w", err)
	}
	return &ev, nil
}

// Encode serializes the event in kernel layout
func (e InputEvent) Encode() []byte {
	var buf bytes.Buffer
	_ = struc.PackWithOptions(&buf, &e, evdevOptions)
	return buf.Bytes()
}

// eventStream splits a byte stream into input_event records, keeping
// partial records for the next chunk
type eventStream struct {
	buf []byte
}

func (s *eventStream) feed(chunk []byte, cb func(InputEvent)) error {
	s.buf = append(s.buf, chunk...)
	for len(s.buf) >= EventSize {
		ev, err := ParseInputEvent(s.buf[:EventSize])
		s.buf = s.buf[EventSize:]
		if err != nil {
			return err
		}
		cb(*ev)
	}
	return nil
}

type slot struct {
	trackingID int
	active     bool
	x, y       int32
}

// MTSlot is the device's current view of one multi-touch slot. A negative
// TrackingID means the slot is empty.
type MTSlot struct {
	TrackingID int32
	X, Y       int32
}

// SlotQuery reads every multi-touch slot from the device
type SlotQuery func() ([]MTSlot, error)

// SlotDecoder assembles multi-touch protocol B events into frames. Devices
// without MT axes fall back to a single contact driven by BTN_TOUCH.
type SlotDecoder struct {
	slots   map[int]*slot
	current int
	single  slot
	hasMT   bool
	dropped bool
	query   SlotQuery
}

// NewSlotDecoder creates a new slot decoder
func NewSlotDecoder() *SlotDecoder {
	return &SlotDecoder{slots: make(map[int]*slot)}
}

func (d *SlotDecoder) currentSlot() *slot {
	s, ok := d.slots[d.current]
	if !ok {
		s = &slot{}
		d.slots[d.current] = s
	}
	return s
}

// SetSlotQuery installs the function used to reload slot state after the
// kernel reports dropped events
func (d *SlotDecoder) SetSlotQuery(q SlotQuery) {
	d.query = q
}

// Feed consumes one event and returns a frame on every SYN_REPORT
func (d *SlotDecoder) Feed(ev InputEvent) (touch.Frame, bool) {
	if ev.Type == EV_SYN {
		switch ev.Code {
		case SYN_DROPPED:
			d.dropped = true
		case SYN_REPORT:
			if d.dropped {
				d.dropped = false
				return d.resync(ev.Tick()), true
			}
			return d.frame(ev.Tick()), true
		}
		return touch.Frame{}, false
	}

	if d.dropped {
		return touch.Frame{}, false
	}

	switch ev.Type {
	case EV_ABS:
		d.feedAbs(ev)
	case EV_KEY:
		if ev.Code == BTN_TOUCH {
			d.single.active = ev.Value != 0
		}
	}
	return touch.Frame{}, false
}

func (d *SlotDecoder) feedAbs(ev InputEvent) {
	switch ev.Code {
	case ABS_MT_SLOT:
		d.hasMT = true
		d.current = int(ev.Value)
	case ABS_MT_TRACKING_ID:
		d.hasMT = true
		s := d.currentSlot()
		if ev.Value < 0 {
			s.active = false
		} else {
			s.active = true
			s.trackingID = int(ev.Value)
		}
	case ABS_MT_POSITION_X:
		d.hasMT = true
		d.currentSlot().x = ev.Value
	case ABS_MT_POSITION_Y:
		d.hasMT = true
		d.currentSlot().y = ev.Value
	case ABS_X:
		d.single.x = ev.Value
	case ABS_Y:
		d.single.y = ev.Value
	}
}

// resync discards everything learned before the overrun and rebuilds the
// slots from the device when a query is installed
func (d *SlotDecoder) resync(ts gesture.Tick) touch.Frame {
	d.slots = make(map[int]*slot)
	d.single = slot{}
	d.current = 0

	if d.query != nil {
		state, err := d.query()
		if err != nil {
			utils.Verbose("evdev: slot resync failed: %v", err)
		}
		for i, st := range state {
			if st.TrackingID < 0 {
				continue
			}
			d.hasMT = true
			d.slots[i] = &slot{trackingID: int(st.TrackingID), active: true, x: st.X, y: st.Y}
		}
	}

	f := d.frame(ts)
	f.Resync = true
	return f
}

func (d *SlotDecoder) frame(ts gesture.Tick) touch.Frame {
	f := touch.Frame{Timestamp: ts}
	if !d.hasMT {
		if d.single.active {
			f.Contacts = []touch.Contact{{ID: 0, X: d.single.x, Y: d.single.y}}
		}
		return f
	}

	indexes := make([]int, 0, len(d.slots))
	for i, s := range d.slots {
		if s.active {
			indexes = append(indexes, i)
		}
	}
	sort.Ints(indexes)
	for _, i := range indexes {
		s := d.slots[i]
		f.Contacts = append(f.Contacts, touch.Contact{ID: s.trackingID, X: s.x, Y: s.y})
	}
	return f
}
