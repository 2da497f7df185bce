package input

import (
	"encoding/binary"
	"fmt"

	"github.com/pleimann/camel-touch/internal/gesture"
	"github.com/pleimann/camel-touch/internal/touch"
)

// Digitizer report layout (HID usage page 0x0D, hybrid mode)
//
//	Byte 0: Report ID
//	Per contact (MaxContacts records, 6 bytes each):
//	  Byte 0: Flags (bit 0 = tip switch)
//	  Byte 1: Contact identifier
//	  Byte 2-3: X (little-endian u16)
//	  Byte 4-5: Y (little-endian u16)
//	Then:
//	  Byte 0-1: Scan time (100us units, little-endian u16, wraps)
//	  Byte 2: Contact count
const (
	contactRecordSize = 6
	reportTrailerSize = 3

	flagTipSwitch byte = 0x01

	// UsagePageDigitizer is the HID usage page of touch digitizers
	UsagePageDigitizer uint16 = 0x0D
)

// DigitizerReport is one decoded digitizer input report
type DigitizerReport struct {
	ScanTime     uint16
	ContactCount int
	Contacts     []touch.Contact
}

// ReportSize returns the byte length of a report with maxContacts records
func ReportSize(maxContacts int) int {
	return 1 + maxContacts*contactRecordSize + reportTrailerSize
}

// ParseDigitizerReport parses a raw HID report. Only records with the tip
// switch set are returned as contacts.
func ParseDigitizerReport(data []byte, reportID byte, maxContacts int) (*DigitizerReport, error) {
	size := ReportSize(maxContacts)
	if len(data) < size {
		return nil, fmt.Errorf("report data too short: %d bytes, want %d", len(data), size)
	}
	if data[0] != reportID {
		return nil, fmt.Errorf("unexpected report ID: 0x%02X", data[0])
	}

	trailer := data[1+maxContacts*contactRecordSize:]
	r := &DigitizerReport{
		ScanTime:     binary.LittleEndian.Uint16(trailer[0:2]),
		ContactCount: int(trailer[2]),
	}
	if r.ContactCount > maxContacts {
		return nil, fmt.Errorf("contact count %d exceeds %d records", r.ContactCount, maxContacts)
	}

	for i := 0; i < r.ContactCount; i++ {
		rec := data[1+i*contactRecordSize : 1+(i+1)*contactRecordSize]
		if rec[0]&flagTipSwitch == 0 {
			continue
		}
		r.Contacts = append(r.Contacts, touch.Contact{
			ID: int(rec[1]),
			X:  int32(binary.LittleEndian.Uint16(rec[2:4])),
			Y:  int32(binary.LittleEndian.Uint16(rec[4:6])),
		})
	}
	return r, nil
}

// EncodeDigitizerReport builds a raw report, used by tests and tooling
func EncodeDigitizerReport(reportID byte, maxContacts int, scanTime uint16, contacts []touch.Contact) []byte {
	buf := make([]byte, ReportSize(maxContacts))
	buf[0] = reportID
	n := len(contacts)
	if n > maxContacts {
		n = maxContacts
	}
	for i := 0; i < n; i++ {
		rec := buf[1+i*contactRecordSize:]
		rec[0] = flagTipSwitch
		rec[1] = byte(contacts[i].ID)
		binary.LittleEndian.PutUint16(rec[2:4], uint16(contacts[i].X))
		binary.LittleEndian.PutUint16(rec[4:6], uint16(contacts[i].Y))
	}
	trailer := buf[1+maxContacts*contactRecordSize:]
	binary.LittleEndian.PutUint16(trailer[0:2], scanTime)
	trailer[2] = byte(n)
	return buf
}

// ScanClock converts the wrapping 16-bit scan time into a millisecond tick
type ScanClock struct {
	started   bool
	last      uint16
	tick      gesture.Tick
	remainder uint32 // leftover 100us units
}

// Advance consumes a report's scan time and returns the current tick
func (c *ScanClock) Advance(scan uint16) gesture.Tick {
	if !c.started {
		c.started = true
		c.last = scan
		return c.tick
	}
	units := uint32(scan-c.last) + c.remainder
	c.last = scan
	c.tick = c.tick.Add(units / 10)
	c.remainder = units % 10
	return c.tick
}

// Frame converts the report into a frame stamped by the clock
func (r *DigitizerReport) Frame(clock *ScanClock) touch.Frame {
	return touch.Frame{Timestamp: clock.Advance(r.ScanTime), Contacts: r.Contacts}
}
