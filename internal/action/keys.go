package action

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const esc = 0x1b

// KeyPress is a parsed key with modifiers
type KeyPress struct {
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool
	Key   string // base key, e.g. "c", "enter", "f1"
}

// Terminal byte sequences for named keys, keyed by canonical name
var namedKeys = map[string][]byte{
	"enter":     {'\r'},
	"tab":       {'\t'},
	"esc":       {esc},
	"space":     {' '},
	"backspace": {0x7f},
	"delete":    {esc, '[', '3', '~'},
	"insert":    {esc, '[', '2', '~'},
	"home":      {esc, '[', 'H'},
	"end":       {esc, '[', 'F'},
	"pageup":    {esc, '[', '5', '~'},
	"pagedown":  {esc, '[', '6', '~'},
	"up":        {esc, '[', 'A'},
	"down":      {esc, '[', 'B'},
	"right":     {esc, '[', 'C'},
	"left":      {esc, '[', 'D'},
	"f1":        {esc, 'O', 'P'},
	"f2":        {esc, 'O', 'Q'},
	"f3":        {esc, 'O', 'R'},
	"f4":        {esc, 'O', 'S'},
	"f5":        {esc, '[', '1', '5', '~'},
	"f6":        {esc, '[', '1', '7', '~'},
	"f7":        {esc, '[', '1', '8', '~'},
	"f8":        {esc, '[', '1', '9', '~'},
	"f9":        {esc, '[', '2', '0', '~'},
	"f10":       {esc, '[', '2', '1', '~'},
	"f11":       {esc, '[', '2', '3', '~'},
	"f12":       {esc, '[', '2', '4', '~'},
}

var keyAliases = map[string]string{
	"return": "enter",
	"escape": "esc",
	"del":    "delete",
	"ins":    "insert",
	"pgup":   "pageup",
	"pgdn":   "pagedown",
}

// Control bytes for ctrl+punctuation
var ctrlPunct = map[byte]byte{
	'[':  esc,
	'\\': 0x1c,
	']':  0x1d,
	'^':  0x1e,
	'_':  0x1f,
	'?':  0x7f,
}

// ParseKey parses a key string like "ctrl+shift+c". Modifier and key names
// are case-insensitive; aliases resolve to their canonical key name.
func ParseKey(s string) (KeyPress, error) {
	var kp KeyPress

	parts := strings.Split(strings.ToLower(s), "+")
	last := len(parts) - 1
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if i == last {
			kp.Key = part
			break
		}

		switch part {
		case "ctrl", "control":
			kp.Ctrl = true
		case "alt", "option":
			kp.Alt = true
		case "shift":
			kp.Shift = true
		case "meta", "cmd", "command", "win", "super":
			kp.Meta = true
		default:
			return KeyPress{}, fmt.Errorf("unknown modifier: %s", part)
		}
	}

	if kp.Key == "" {
		return KeyPress{}, fmt.Errorf("no key specified")
	}
	if canonical, ok := keyAliases[kp.Key]; ok {
		kp.Key = canonical
	}
	if _, ok := namedKeys[kp.Key]; !ok && utf8.RuneCountInString(kp.Key) != 1 {
		return KeyPress{}, fmt.Errorf("invalid key: %s", kp.Key)
	}

	return kp, nil
}

func (kp KeyPress) String() string {
	var b strings.Builder
	for _, m := range []struct {
		on   bool
		name string
	}{{kp.Ctrl, "ctrl"}, {kp.Alt, "alt"}, {kp.Shift, "shift"}, {kp.Meta, "meta"}} {
		if m.on {
			b.WriteString(m.name)
			b.WriteByte('+')
		}
	}
	b.WriteString(kp.Key)
	return b.String()
}

// ToBytes returns the bytes a terminal sends for the key
func (kp KeyPress) ToBytes() []byte {
	single := len(kp.Key) == 1

	if kp.Ctrl && !kp.Alt && !kp.Meta && single {
		c := kp.Key[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []byte{c - 'a' + 1}
		case c >= 'A' && c <= 'Z':
			return []byte{c - 'A' + 1}
		}
		if b, ok := ctrlPunct[c]; ok {
			return []byte{b}
		}
	}

	if seq, ok := namedKeys[kp.Key]; ok {
		out := make([]byte, len(seq))
		copy(out, seq)
		return out
	}

	if !single {
		// Multi-byte runes are sent as typed
		return []byte(kp.Key)
	}

	c := kp.Key[0]
	if kp.Shift && c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if kp.Alt {
		return []byte{esc, c}
	}
	return []byte{c}
}
