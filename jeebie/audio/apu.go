package audio

import (
	"sync"

	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/bit"
)

// APU is a register file for the Game Boy's Audio Processing Unit. Sound
// generation is out of scope (see spec Non-goals): no channel is actually
// mixed or sampled. What's implemented is the part games and test ROMs
// actually probe - registers read back what was last written (only NR52
// applies hardware read masks), and powering off via NR52 clears every
// register except NR52 itself and Wave RAM.
// Reference: https://gbdev.io/pandocs/Audio_Registers.html
type APU struct {
	// mu protects register state during concurrent write operations.
	mu sync.Mutex

	enabled   bool       // Master audio enable (NR52 bit 7)
	registers [0x30]byte // Audio registers FF10-FF3F (48 bytes)
}

// New creates a new APU instance with initial register values.
func New() *APU {
	apu := &APU{enabled: true}
	apu.initRegisters()
	return apu
}

func (a *APU) initRegisters() {
	a.registers[0x10] = 0x80 // NR10: Sweep off
	a.registers[0x11] = 0xBF // NR11: Duty 50%, length counter loaded with max
	a.registers[0x12] = 0xF3 // NR12: Max volume, decrease, period 3
	a.registers[0x14] = 0xBF // NR14: Counter mode, frequency MSB

	a.registers[0x16] = 0x3F // NR21: Duty 0%, length counter max
	a.registers[0x19] = 0xBF // NR24: Counter mode, frequency MSB

	a.registers[0x1A] = 0x7F // NR30: DAC off
	a.registers[0x1B] = 0xFF // NR31: Length counter max
	a.registers[0x1C] = 0x9F // NR32: Volume 0
	a.registers[0x1E] = 0xBF // NR34: Counter mode

	a.registers[0x20] = 0xFF // NR41: Length counter max
	a.registers[0x23] = 0xBF // NR44: Counter mode

	a.registers[0x24] = 0x77 // NR50: Max volume both channels
	a.registers[0x25] = 0xF3 // NR51: All channels to both outputs
	a.registers[0x26] = 0xF1 // NR52: All sound on (channel status bits are always read as off, since no channel ever actually runs)
}

// ReadRegister reads an audio register. Apart from NR52, whose unused bits
// read as 1 and whose channel-status bits read as 0, every register
// (write-only frequency/control bytes included) reads back exactly the value
// last written; no other read mask is applied.
func (a *APU) ReadRegister(address uint16) uint8 {
	if address < addr.AudioStart || address > addr.AudioEnd {
		return 0xFF
	}

	index := address - addr.AudioStart

	switch address {
	case addr.NR52:
		// Bits 4-6 are unused and always read as 1. Channel status bits
		// (0-3) always read as off: no channel is ever actually triggered.
		return (a.registers[index] & 0x80) | 0x70
	case addr.WaveRAMStart, addr.WaveRAMStart + 1, addr.WaveRAMStart + 2, addr.WaveRAMStart + 3,
		addr.WaveRAMStart + 4, addr.WaveRAMStart + 5, addr.WaveRAMStart + 6, addr.WaveRAMStart + 7,
		addr.WaveRAMStart + 8, addr.WaveRAMStart + 9, addr.WaveRAMStart + 10, addr.WaveRAMStart + 11,
		addr.WaveRAMStart + 12, addr.WaveRAMStart + 13, addr.WaveRAMStart + 14, addr.WaveRAMStart + 15:
		return a.registers[index]
	default:
		return a.registers[index]
	}
}

// WriteRegister writes to an audio register.
func (a *APU) WriteRegister(address uint16, value uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if address < addr.AudioStart || address > addr.AudioEnd {
		return
	}

	isWaveRAM := address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd

	// Real hardware ignores writes to the sound-control registers while
	// powered off, but Wave RAM stays writable regardless.
	if !a.enabled && !isWaveRAM {
		return
	}

	index := address - addr.AudioStart

	if address == addr.NR52 {
		wasEnabled := a.enabled
		a.enabled = bit.IsSet(7, value)
		if !a.enabled && wasEnabled {
			for i := range a.registers {
				if uint16(i) != index && uint16(i) < addr.WaveRAMStart-addr.AudioStart {
					a.registers[i] = 0
				}
			}
		}
		a.registers[index] = value & 0x80
		return
	}

	a.registers[index] = value
}
