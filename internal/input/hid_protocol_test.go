package input

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pleimann/camel-touch/internal/gesture"
	"github.com/pleimann/camel-touch/internal/touch"
)

func TestParseDigitizerReport(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    *DigitizerReport
		wantErr bool
	}{
		{
			name: "two contacts",
			data: EncodeDigitizerReport(0x01, 5, 1234, []touch.Contact{
				{ID: 3, X: 100, Y: 200},
				{ID: 7, X: 65535, Y: 1},
			}),
			want: &DigitizerReport{
				ScanTime:     1234,
				ContactCount: 2,
				Contacts: []touch.Contact{
					{ID: 3, X: 100, Y: 200},
					{ID: 7, X: 65535, Y: 1},
				},
			},
		},
		{
			name: "empty report",
			data: EncodeDigitizerReport(0x01, 5, 0, nil),
			want: &DigitizerReport{ScanTime: 0, ContactCount: 0},
		},
		{
			name: "lifted contact is skipped",
			data: func() []byte {
				buf := EncodeDigitizerReport(0x01, 2, 10, []touch.Contact{{ID: 1}, {ID: 2, X: 5, Y: 6}})
				buf[1] = 0x00 // clear tip switch of the first record
				return buf
			}(),
			want: &DigitizerReport{
				ScanTime:     10,
				ContactCount: 2,
				Contacts:     []touch.Contact{{ID: 2, X: 5, Y: 6}},
			},
		},
		{
			name:    "data too short",
			data:    []byte{0x01, 0x01, 0x00},
			wantErr: true,
		},
		{
			name: "wrong report ID",
			data: func() []byte {
				buf := EncodeDigitizerReport(0x01, 5, 0, nil)
				buf[0] = 0xFF
				return buf
			}(),
			wantErr: true,
		},
		{
			name: "contact count exceeds records",
			data: func() []byte {
				buf := EncodeDigitizerReport(0x01, 5, 0, nil)
				buf[len(buf)-1] = 9
				return buf
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maxContacts := 5
			if tt.name == "lifted contact is skipped" {
				maxContacts = 2
			}
			got, err := ParseDigitizerReport(tt.data, 0x01, maxContacts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReportLayout(t *testing.T) {
	buf := EncodeDigitizerReport(0x02, 3, 0xBEEF, []touch.Contact{{ID: 9, X: 0x0102, Y: 0x0304}})

	require.Len(t, buf, 1+3*6+3)
	assert.Equal(t, byte(0x02), buf[0])
	assert.Equal(t, byte(0x01), buf[1], "tip switch")
	assert.Equal(t, byte(9), buf[2])
	assert.Equal(t, uint16(0x0102), binary.LittleEndian.Uint16(buf[3:5]))
	assert.Equal(t, uint16(0x0304), binary.LittleEndian.Uint16(buf[5:7]))
	assert.Equal(t, uint16(0xBEEF), binary.LittleEndian.Uint16(buf[19:21]))
	assert.Equal(t, byte(1), buf[21])
}

func TestScanClock(t *testing.T) {
	var c ScanClock

	assert.Equal(t, gesture.Tick(0), c.Advance(500), "first report anchors at zero")
	assert.Equal(t, gesture.Tick(1), c.Advance(515), "15 units is 1ms with 5 left over")
	assert.Equal(t, gesture.Tick(2), c.Advance(520), "remainder carries into the next report")
	assert.Equal(t, gesture.Tick(2), c.Advance(520))
}

func TestScanClockWraps(t *testing.T) {
	var c ScanClock

	c.Advance(65500)
	// 65500 -> 100 is 136 units across the wrap
	assert.Equal(t, gesture.Tick(13), c.Advance(100))
}

func TestReportFrame(t *testing.T) {
	var c ScanClock
	r := &DigitizerReport{ScanTime: 0, Contacts: []touch.Contact{{ID: 1}}}
	f := r.Frame(&c)
	assert.Equal(t, gesture.Tick(0), f.Timestamp)
	assert.Len(t, f.Contacts, 1)

	r2 := &DigitizerReport{ScanTime: 1500}
	assert.Equal(t, gesture.Tick(150), r2.Frame(&c).Timestamp)
}
