// Package emuerr defines the error kinds that the emulator core raises when
// it hits a condition it refuses to paper over: an opcode with no defined
// behaviour, an address nothing claimed, a device written to read-only.
//
// The core never tries to recover from these itself - it panics with an
// *Error and leaves the decision (halt, log and skip, drop into a debugger)
// to whatever is driving it.
package emuerr

import "fmt"

// Kind identifies the category of a core error.
type Kind string

const (
	// IllegalOpcode marks an opcode byte the DMG instruction set never
	// defines (e.g. 0xD3, 0xDB, 0xDD).
	IllegalOpcode Kind = "illegal opcode"
	// UnknownOpcode marks an opcode the dispatch table has no entry for.
	UnknownOpcode Kind = "unknown opcode"
	// UnmappedAddress marks a bus address no attached device claims.
	UnmappedAddress Kind = "unmapped address"
	// ReadOnlyViolation marks a write to an address backed by a read-only device.
	ReadOnlyViolation Kind = "read-only violation"
	// WriteOnlyViolation marks a read from an address backed by a write-only device.
	WriteOnlyViolation Kind = "write-only violation"
	// OverlappingDevices marks two devices attached to the bus claiming the same address.
	OverlappingDevices Kind = "overlapping devices"
	// NotImplemented marks a defined but unimplemented code path.
	NotImplemented Kind = "not implemented"
)

// Error is a core error tagged with a Kind so callers can switch on the
// category without parsing the message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
