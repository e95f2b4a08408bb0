package memory

import (
	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/bit"
)

// JoypadKey represents a key on the Gameboy joypad. JoypadNone is the zero
// value, used as a sentinel for "no key" by callers that map some other
// input space onto JoypadKey (see jeebie.gbActionToJoypadKey).
type JoypadKey uint8

const (
	JoypadNone JoypadKey = iota
	JoypadRight
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

// Joypad is the standalone P1 device: it tracks the pressed/released state
// of the 8 logical buttons and answers reads against whichever group the
// last write selected, firing the Joypad interrupt on a press transition.
//
// Bits 4-5 of P1 are the selection lines: writing 0 to a line selects that
// button group (active low, matching real hardware). Bits 0-3 read 0 for a
// pressed button, 1 for a released one; bits 6-7 always read 1.
type Joypad struct {
	buttons uint8 // bit i clear => pressed, for A/B/Select/Start (bits 0-3)
	dpad    uint8 // bit i clear => pressed, for Right/Left/Up/Down (bits 0-3)
	select_ uint8 // raw bits 4-5 as last written

	// InterruptHandler is called on a press transition while the
	// corresponding group is selected, wired to request the Joypad interrupt.
	InterruptHandler func()
}

// NewJoypad creates a Joypad with no buttons pressed.
func NewJoypad() *Joypad {
	return &Joypad{
		buttons: 0x0F,
		dpad:    0x0F,
		select_: 0x30,
	}
}

// Read returns the full P1 register value for the currently selected group.
func (j *Joypad) Read() uint8 {
	result := uint8(0b11000000) | j.select_

	selectDpad := !bit.IsSet(4, j.select_)
	selectButtons := !bit.IsSet(5, j.select_)

	switch {
	case selectButtons && !selectDpad:
		result |= j.buttons & 0x0F
	case selectDpad && !selectButtons:
		result |= j.dpad & 0x0F
	case selectButtons && selectDpad:
		result |= j.buttons & j.dpad & 0x0F
	default:
		result |= 0x0F
	}

	return result
}

// Write updates the selection lines (bits 4-5); the rest of P1 is read-only.
func (j *Joypad) Write(value uint8) {
	j.select_ = value & 0b00110000
}

// Press marks a key as pressed, firing the Joypad interrupt if that key's
// group is currently selected.
func (j *Joypad) Press(key JoypadKey) {
	wasSelectedAndUp := j.isSelectedAndReleased(key)

	switch key {
	case JoypadRight:
		j.dpad = bit.Reset(0, j.dpad)
	case JoypadLeft:
		j.dpad = bit.Reset(1, j.dpad)
	case JoypadUp:
		j.dpad = bit.Reset(2, j.dpad)
	case JoypadDown:
		j.dpad = bit.Reset(3, j.dpad)
	case JoypadA:
		j.buttons = bit.Reset(0, j.buttons)
	case JoypadB:
		j.buttons = bit.Reset(1, j.buttons)
	case JoypadSelect:
		j.buttons = bit.Reset(2, j.buttons)
	case JoypadStart:
		j.buttons = bit.Reset(3, j.buttons)
	}

	if wasSelectedAndUp && j.InterruptHandler != nil {
		j.InterruptHandler()
	}
}

// isSelectedAndReleased reports whether key's group is selected and the key
// is not already pressed, i.e. whether Press would be a real transition.
func (j *Joypad) isSelectedAndReleased(key JoypadKey) bool {
	isDpad := key == JoypadRight || key == JoypadLeft || key == JoypadUp || key == JoypadDown
	if isDpad && bit.IsSet(4, j.select_) {
		return false
	}
	if !isDpad && bit.IsSet(5, j.select_) {
		return false
	}

	var group uint8
	var pos uint8
	if isDpad {
		group, pos = j.dpad, dpadBit(key)
	} else {
		group, pos = j.buttons, buttonBit(key)
	}
	return bit.IsSet(pos, group)
}

func dpadBit(key JoypadKey) uint8 {
	switch key {
	case JoypadRight:
		return 0
	case JoypadLeft:
		return 1
	case JoypadUp:
		return 2
	default:
		return 3
	}
}

func buttonBit(key JoypadKey) uint8 {
	switch key {
	case JoypadA:
		return 0
	case JoypadB:
		return 1
	case JoypadSelect:
		return 2
	default:
		return 3
	}
}

// Release marks a key as released.
func (j *Joypad) Release(key JoypadKey) {
	switch key {
	case JoypadRight:
		j.dpad = bit.Set(0, j.dpad)
	case JoypadLeft:
		j.dpad = bit.Set(1, j.dpad)
	case JoypadUp:
		j.dpad = bit.Set(2, j.dpad)
	case JoypadDown:
		j.dpad = bit.Set(3, j.dpad)
	case JoypadA:
		j.buttons = bit.Set(0, j.buttons)
	case JoypadB:
		j.buttons = bit.Set(1, j.buttons)
	case JoypadSelect:
		j.buttons = bit.Set(2, j.buttons)
	case JoypadStart:
		j.buttons = bit.Set(3, j.buttons)
	}
}

// HandleRequest implements Device, claiming only the P1 register.
func (j *Joypad) HandleRequest(reqType RequestType, address uint16, value *byte) bool {
	if address != addr.P1 {
		return false
	}

	switch reqType {
	case ReadRequest:
		*value = j.Read()
	case WriteRequest:
		j.Write(*value)
	}
	return true
}
