package memory

import (
	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/audio"
)

// RequestType distinguishes a read from a write when a Device is asked to
// handle a bus request.
type RequestType int

const (
	ReadRequest RequestType = iota
	WriteRequest
)

// Device is anything that can be attached to the bus to claim a set of I/O
// addresses. HandleRequest is asked about every address in 0xFF00-0xFFFF
// (the I/O registers, HRAM and IE); it returns false to let the bus fall
// through to the next
// device, or to the MMIO fallback storage if no device claims the address.
//
// For a ReadRequest, a claiming device writes the result through value.
// For a WriteRequest, value holds the byte being written.
type Device interface {
	HandleRequest(reqType RequestType, address uint16, value *byte) bool
}

// deviceCache resolves an I/O address to the device that claimed it, so
// repeated accesses (the common case - DIV/LY/etc are polled every few
// cycles) skip the linear device scan after the first hit.
const (
	cacheUnknown = -2 // never looked up
	cacheNone    = -1 // looked up, no device claimed it
)

// timerDevice adapts Timer to Device, claiming DIV/TIMA/TMA/TAC.
type timerDevice struct{ t *Timer }

func (d timerDevice) HandleRequest(reqType RequestType, address uint16, value *byte) bool {
	switch address {
	case addr.DIV, addr.TIMA, addr.TMA, addr.TAC:
	default:
		return false
	}

	if reqType == ReadRequest {
		*value = d.t.Read(address)
	} else {
		d.t.Write(address, *value)
	}
	return true
}

// serialDevice adapts SerialPort to Device, claiming SB/SC.
type serialDevice struct{ s SerialPort }

func (d serialDevice) HandleRequest(reqType RequestType, address uint16, value *byte) bool {
	if address != addr.SB && address != addr.SC {
		return false
	}

	if reqType == ReadRequest {
		*value = d.s.Read(address)
	} else {
		d.s.Write(address, *value)
	}
	return true
}

// apuDevice adapts audio.APU to Device, claiming the whole audio register
// block. Sound generation itself is out of scope, but the registers must
// still read/write like real hardware rather than raising on access.
type apuDevice struct{ a *audio.APU }

func (d apuDevice) HandleRequest(reqType RequestType, address uint16, value *byte) bool {
	if address < addr.AudioStart || address > addr.AudioEnd {
		return false
	}

	if reqType == ReadRequest {
		*value = d.a.ReadRegister(address)
	} else {
		d.a.WriteRegister(address, *value)
	}
	return true
}

// ifDevice claims the interrupt flag register, forcing the unused upper 3
// bits to read as 1 the way real hardware does.
type ifDevice struct{ m *MMU }

func (d ifDevice) HandleRequest(reqType RequestType, address uint16, value *byte) bool {
	if address != addr.IF {
		return false
	}

	if reqType == ReadRequest {
		*value = d.m.memory[address] | 0xE0
	} else {
		d.m.memory[address] = *value | 0xE0
	}
	return true
}

// lcdDevice claims LY and STAT, enforcing the direction real hardware
// imposes on them: LY is entirely PPU-owned (any CPU write resets it to 0
// rather than storing the written value), and STAT's low 3 bits (current
// mode plus LYC coincidence) are PPU-owned and read-only from the CPU side,
// leaving only the interrupt-enable bits (3-6) CPU-writable. The PPU itself
// bypasses this gate through MMU.SetLY/MMU.SetSTAT, which write the backing
// storage directly.
type lcdDevice struct{ m *MMU }

func (d lcdDevice) HandleRequest(reqType RequestType, address uint16, value *byte) bool {
	switch address {
	case addr.LY:
		if reqType == ReadRequest {
			*value = d.m.memory[addr.LY]
			return true
		}
		// Real hardware resets LY to 0 on any CPU write, regardless of the
		// value written.
		d.m.memory[addr.LY] = 0
		return true
	case addr.STAT:
		if reqType == ReadRequest {
			*value = d.m.memory[addr.STAT] | 0x80
			return true
		}
		current := d.m.memory[addr.STAT]
		d.m.memory[addr.STAT] = (current & 0x07) | (*value & 0xF8)
		return true
	}
	return false
}

// dmaDevice claims the OAM DMA trigger register, copying 160 bytes from the
// written source page into OAM the moment DMA is started.
type dmaDevice struct{ m *MMU }

func (d dmaDevice) HandleRequest(reqType RequestType, address uint16, value *byte) bool {
	if address != addr.DMA {
		return false
	}

	if reqType == ReadRequest {
		*value = d.m.memory[address]
		return true
	}

	sourceAddr := uint16(*value) << 8
	for i := uint16(0); i < 160; i++ {
		d.m.memory[0xFE00+i] = d.m.Read(sourceAddr + i)
	}
	d.m.memory[address] = *value
	return true
}
