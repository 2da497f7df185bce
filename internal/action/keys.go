package action

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// KeyPress represents a parsed key with modifiers
type KeyPress struct {
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool
	Key   string // Base key name, e.g. "c", "enter", "f1"
}

// Canonical names for aliased keys
var keyAliases = map[string]string{
	"return": "enter",
	"escape": "esc",
	"del":    "delete",
	"ins":    "insert",
	"pgup":   "pageup",
	"pgdn":   "pagedown",
}

// Terminal sequences for named keys (xterm conventions)
var namedKeys = map[string]string{
	"enter":     "\r",
	"tab":       "\t",
	"esc":       "\x1b",
	"space":     " ",
	"backspace": "\x7f",
	"delete":    "\x1b[3~",
	"insert":    "\x1b[2~",
	"home":      "\x1b[H",
	"end":       "\x1b[F",
	"pageup":    "\x1b[5~",
	"pagedown":  "\x1b[6~",
	"up":        "\x1b[A",
	"down":      "\x1b[B",
	"right":     "\x1b[C",
	"left":      "\x1b[D",
	"f1":        "\x1bOP",
	"f2":        "\x1bOQ",
	"f3":        "\x1bOR",
	"f4":        "\x1bOS",
	"f5":        "\x1b[15~",
	"f6":        "\x1b[17~",
	"f7":        "\x1b[18~",
	"f8":        "\x1b[19~",
	"f9":        "\x1b[20~",
	"f10":       "\x1b[21~",
	"f11":       "\x1b[23~",
	"f12":       "\x1b[24~",
}

// ParseKey parses a key string like "ctrl+shift+c" into a KeyPress
func ParseKey(s string) (KeyPress, error) {
	var kp KeyPress

	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	// "ctrl++" names the plus key itself
	if len(parts) > 1 && parts[len(parts)-1] == "" && parts[len(parts)-2] == "" {
		parts = append(parts[:len(parts)-2], "+")
	}

	for _, mod := range parts[:len(parts)-1] {
		switch strings.TrimSpace(mod) {
		case "ctrl", "control":
			kp.Ctrl = true
		case "alt", "option":
			kp.Alt = true
		case "shift":
			kp.Shift = true
		case "meta", "cmd", "command", "win", "super":
			kp.Meta = true
		case "":
		default:
			return KeyPress{}, fmt.Errorf("unknown modifier: %s", mod)
		}
	}

	key := strings.TrimSpace(parts[len(parts)-1])
	if key == "" {
		return KeyPress{}, fmt.Errorf("no key specified")
	}
	if alias, ok := keyAliases[key]; ok {
		key = alias
	}
	if _, ok := namedKeys[key]; !ok && utf8.RuneCountInString(key) != 1 {
		return KeyPress{}, fmt.Errorf("invalid key: %s", key)
	}

	kp.Key = key
	return kp, nil
}

// ctrlByte maps a character to its C0 control code
func ctrlByte(c byte) (byte, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return c - 'a' + 1, true
	case c >= '@' && c <= '_':
		// @ [ \ ] ^ _ and upper case letters
		return c - '@', true
	case c == '?':
		return 0x7f, true
	case c == ' ':
		return 0x00, true
	}
	return 0, false
}

// ToBytes converts a KeyPress to the bytes to write to a PTY
func (kp KeyPress) ToBytes() []byte {
	if seq, ok := namedKeys[kp.Key]; ok {
		if kp.Alt && len(seq) == 1 {
			return []byte("\x1b" + seq)
		}
		if kp.Shift && kp.Key == "tab" {
			return []byte("\x1b[Z")
		}
		return []byte(seq)
	}

	if len(kp.Key) != 1 {
		// Multi-byte rune
		if kp.Alt {
			return append([]byte{0x1b}, kp.Key...)
		}
		return []byte(kp.Key)
	}

	c := kp.Key[0]
	if kp.Shift && c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}

	var out []byte
	if kp.Alt {
		out = append(out, 0x1b)
	}
	if kp.Ctrl && !kp.Meta {
		if b, ok := ctrlByte(c); ok {
			return append(out, b)
		}
	}
	return append(out, c)
}

func (kp KeyPress) String() string {
	var parts []string
	if kp.Ctrl {
		parts = append(parts, "ctrl")
	}
	if kp.Alt {
		parts = append(parts, "alt")
	}
	if kp.Shift {
		parts = append(parts, "shift")
	}
	if kp.Meta {
		parts = append(parts, "meta")
	}
	return strings.Join(append(parts, kp.Key), "+")
}
