package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-jeebie/jeebie/addr"
)

func TestAPU_RegistersStoreWrittenValues(t *testing.T) {
	apu := New()
	apu.WriteRegister(addr.NR52, 0x80) // power on

	apu.WriteRegister(addr.NR11, 0xBF)
	assert.Equal(t, uint8(0xBF), apu.ReadRegister(addr.NR11))

	apu.WriteRegister(addr.NR50, 0x77)
	assert.Equal(t, uint8(0x77), apu.ReadRegister(addr.NR50))
}

func TestAPU_NR52UnusedBitsAlwaysReadSet(t *testing.T) {
	apu := New()
	apu.WriteRegister(addr.NR52, 0x80)

	assert.Equal(t, uint8(0xF0), apu.ReadRegister(addr.NR52), "bits 4-6 unused (read 1), channel status bits read off")
}

func TestAPU_WaveRAMReadWrite(t *testing.T) {
	apu := New()

	apu.WriteRegister(addr.WaveRAMStart, 0xAB)
	assert.Equal(t, uint8(0xAB), apu.ReadRegister(addr.WaveRAMStart))
}

func TestAPU_PowerOffClearsRegistersButNotWaveRAM(t *testing.T) {
	apu := New()

	apu.WriteRegister(addr.NR52, 0x80)
	apu.WriteRegister(addr.NR10, 0x5E)
	apu.WriteRegister(addr.NR50, 0x77)
	apu.WriteRegister(addr.WaveRAMStart, 0xAA)

	apu.WriteRegister(addr.NR52, 0x00) // power off
	assert.False(t, apu.enabled)
	assert.Equal(t, uint8(0), apu.ReadRegister(addr.NR10))
	assert.Equal(t, uint8(0xAA), apu.ReadRegister(addr.WaveRAMStart), "wave RAM survives power-off")

	// Writes to sound-control registers are ignored while powered off.
	apu.WriteRegister(addr.NR50, 0x55)
	assert.Equal(t, uint8(0), apu.ReadRegister(addr.NR50))

	// Wave RAM stays writable while powered off.
	apu.WriteRegister(addr.WaveRAMStart+1, 0xCC)
	assert.Equal(t, uint8(0xCC), apu.ReadRegister(addr.WaveRAMStart+1))

	apu.WriteRegister(addr.NR52, 0x80) // power back on
	assert.True(t, apu.enabled)
	apu.WriteRegister(addr.NR50, 0x66)
	assert.Equal(t, uint8(0x66), apu.ReadRegister(addr.NR50))
}
