//go:build linux

package input

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/pleimann/camel-touch/internal/touch"
	"github.com/pleimann/camel-touch/internal/utils"
)

// ioctl request encoding (Linux _IOC macro)
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, typ, nr, size uint32) uint {
	return uint((dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift))
}

// EVIOCGRAB = _IOW('E', 0x90, int)
func evioCGrab() uint {
	return ioc(iocWrite, 'E', 0x90, uint32(unsafe.Sizeof(int32(0))))
}

// EVIOCGNAME(len) = _IOC(_IOC_READ, 'E', 0x06, len)
func evioCGName(size int) uint {
	return ioc(iocRead, 'E', 0x06, uint32(size))
}

// EVIOCGMTSLOTS(len) = _IOC(_IOC_READ, 'E', 0x0a, len)
func evioCGMTSlots(size int) uint {
	return ioc(iocRead, 'E', 0x0a, uint32(size))
}

// EVIOCGABS(abs) = _IOR('E', 0x40 + abs, struct input_absinfo)
func evioCGAbs(abs uint32) uint {
	return ioc(iocRead, 'E', 0x40+abs, uint32(unsafe.Sizeof(absInfo{})))
}

// EVIOCSCLOCKID = _IOW('E', 0xa0, int)
func evioCSClockID() uint {
	return ioc(iocWrite, 'E', 0xa0, uint32(unsafe.Sizeof(int32(0))))
}

// absInfo mirrors struct input_absinfo
type absInfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// EvdevSource reads multi-touch frames from a Linux event device
type EvdevSource struct {
	path    string
	name    string
	file    *os.File
	grabbed bool

	mu     sync.Mutex
	closed bool
}

// OpenEvdev opens an event device, optionally grabbing it exclusively so
// other consumers stop seeing its events
func OpenEvdev(path string, grab bool) (*EvdevSource, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		if errors.Is(err, unix.EACCES) {
			return nil, fmt.Errorf("failed to open %s: %w\n"+
				"  Add your user to the 'input' group or run with elevated privileges", path, err)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	// Timestamp events with CLOCK_MONOTONIC
	if err := unix.IoctlSetPointerInt(fd, evioCSClockID(), unix.CLOCK_MONOTONIC); err != nil {
		utils.Warn("evdev: %s keeps realtime timestamps: %v", path, err)
	}

	if grab {
		if err := unix.IoctlSetInt(fd, evioCGrab(), 1); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("failed to grab %s: %w", path, err)
		}
	}

	s := &EvdevSource{
		path:    path,
		name:    deviceName(fd),
		file:    os.NewFile(uintptr(fd), path),
		grabbed: grab,
	}
	utils.Verbose("evdev: opened %s (%s), grab=%v", path, s.name, grab)
	return s, nil
}

func deviceName(fd int) string {
	buf := make([]byte, 256)
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(evioCGName(len(buf))), uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return ""
	}
	return strings.TrimRight(string(buf), "\x00")
}

func ioctlPtr(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// readMTSlots reads the tracking id and position of every slot
func readMTSlots(fd int) ([]MTSlot, error) {
	var info absInfo
	if err := ioctlPtr(fd, evioCGAbs(ABS_MT_SLOT), unsafe.Pointer(&info)); err != nil {
		return nil, fmt.Errorf("EVIOCGABS(ABS_MT_SLOT): %w", err)
	}
	n := int(info.Maximum) + 1
	if n <= 0 {
		return nil, nil
	}

	// struct input_mt_request_layout { __u32 code; __s32 values[n]; }
	req := make([]int32, n+1)
	size := len(req) * 4
	codes := []uint32{ABS_MT_TRACKING_ID, ABS_MT_POSITION_X, ABS_MT_POSITION_Y}
	values := make([][]int32, len(codes))
	for i, code := range codes {
		req[0] = int32(code)
		if err := ioctlPtr(fd, evioCGMTSlots(size), unsafe.Pointer(&req[0])); err != nil {
			return nil, fmt.Errorf("EVIOCGMTSLOTS(0x%02x): %w", code, err)
		}
		values[i] = append([]int32(nil), req[1:]...)
	}

	slots := make([]MTSlot, n)
	for i := range slots {
		slots[i] = MTSlot{TrackingID: values[0][i], X: values[1][i], Y: values[2][i]}
	}
	return slots, nil
}

// querySlots reads slot state through the open file
func (s *EvdevSource) querySlots() ([]MTSlot, error) {
	conn, err := s.file.SyscallConn()
	if err != nil {
		return nil, err
	}
	var (
		slots []MTSlot
		qerr  error
	)
	if err := conn.Control(func(fd uintptr) {
		slots, qerr = readMTSlots(int(fd))
	}); err != nil {
		return nil, err
	}
	return slots, qerr
}

// Name returns the kernel's name for the device, or its path
func (s *EvdevSource) Name() string {
	if s.name == "" {
		return s.path
	}
	return s.name
}

// Close releases the grab and closes the device
func (s *EvdevSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.grabbed {
		if conn, err := s.file.SyscallConn(); err == nil {
			conn.Control(func(fd uintptr) {
				_ = unix.IoctlSetInt(int(fd), evioCGrab(), 0)
			})
		}
	}
	return s.file.Close()
}

// ReadFrames continuously reads events and sends assembled frames to the channel
func (s *EvdevSource) ReadFrames(ctx context.Context, frames chan<- touch.Frame) error {
	// Closing the file unblocks a pending read
	stop := context.AfterFunc(ctx, func() {
		s.Close()
	})
	defer stop()

	decoder := NewSlotDecoder()
	decoder.SetSlotQuery(s.querySlots)
	var stream eventStream
	buf := make([]byte, EventSize*64)

	for {
		n, err := s.file.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read error: %w", err)
		}

		var pending []touch.Frame
		err = stream.feed(buf[:n], func(ev InputEvent) {
			if f, ok := decoder.Feed(ev); ok {
				pending = append(pending, f)
			}
		})
		if err != nil {
			utils.Verbose("evdev: %v", err)
		}

		for _, f := range pending {
			select {
			case frames <- f:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
