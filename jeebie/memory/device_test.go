package memory

import (
	"testing"

	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/emuerr"
)

func TestMMUDispatchesJoypadThroughP1(t *testing.T) {
	m := New()

	m.Write(addr.P1, 0b00010000) // select buttons
	m.HandleKeyPress(JoypadA)

	got := m.Read(addr.P1) & 0x0F
	want := uint8(0b1110)
	if got != want {
		t.Errorf("Read(P1) & 0x0F = 0x%02X; want 0x%02X", got, want)
	}
}

func TestMMUDispatchesTimerRegisters(t *testing.T) {
	m := New()

	m.Write(addr.TMA, 0x42)
	if got := m.Read(addr.TMA); got != 0x42 {
		t.Errorf("Read(TMA) = 0x%02X; want 0x42", got)
	}

	m.Write(addr.TAC, 0x07)
	if got := m.Read(addr.TAC); got != 0x07 {
		t.Errorf("Read(TAC) = 0x%02X; want 0x07", got)
	}
}

func TestMMUInterruptFlagUpperBitsAlwaysSet(t *testing.T) {
	m := New()

	m.Write(addr.IF, 0x00)
	got := m.Read(addr.IF)
	want := uint8(0xE0)
	if got != want {
		t.Errorf("Read(IF) = 0x%02X; want 0x%02X", got, want)
	}
}

func TestMMURequestInterruptSetsCorrectBit(t *testing.T) {
	m := New()

	m.RequestInterrupt(addr.TimerInterrupt)
	got := m.Read(addr.IF) & 0x07
	want := uint8(1 << 2)
	if got != want {
		t.Errorf("Read(IF) & 0x07 = 0x%02X; want 0x%02X", got, want)
	}
}

func TestMMUDMATransferCopiesToOAM(t *testing.T) {
	m := New()

	sourcePage := uint16(0xC000) // WRAM page, directly writable
	for i := uint16(0); i < 160; i++ {
		m.Write(sourcePage+i, uint8(i))
	}

	m.Write(addr.DMA, uint8(sourcePage>>8))

	for i := uint16(0); i < 160; i++ {
		got := m.Read(0xFE00 + i)
		want := uint8(i)
		if got != want {
			t.Errorf("OAM[%d] = 0x%02X; want 0x%02X", i, got, want)
		}
	}
}

func TestMMUDeviceCacheDoesNotLeakAcrossAddresses(t *testing.T) {
	m := New()

	// Warm the cache for TMA, then make sure the neighboring IF register
	// still dispatches to its own device rather than reusing TMA's slot.
	m.Read(addr.TMA)
	m.Write(addr.IF, 0x01)

	got := m.Read(addr.IF) & 0x1F
	want := uint8(0x01)
	if got != want {
		t.Errorf("Read(IF) & 0x1F = 0x%02X; want 0x%02X", got, want)
	}
}

func TestMMUFallsBackToRawStorageForUnclaimedIO(t *testing.T) {
	m := New()

	m.Write(addr.LCDC, 0x91)
	if got := m.Read(addr.LCDC); got != 0x91 {
		t.Errorf("Read(LCDC) = 0x%02X; want 0x91", got)
	}
}

func TestMMUSafeRead8NeverPanics(t *testing.T) {
	m := New()

	for _, a := range []uint16{0x0000, 0x8000, 0xA000, 0xC000, 0xE000, 0xFE00, 0xFF00, 0xFF80, 0xFFFF} {
		got, ok := m.SafeRead8(a)
		if !ok {
			t.Errorf("SafeRead8(0x%04X) reported failure for a mapped address", a)
		}
		if want := m.Read(a); got != want {
			t.Errorf("SafeRead8(0x%04X) = 0x%02X; want 0x%02X (matching Read)", a, got, want)
		}
	}
}

func TestMMURead16Write16AreLittleEndian(t *testing.T) {
	m := New()

	m.Write16(0xC000, 0x1234)
	if got := m.Read(0xC000); got != 0x34 {
		t.Errorf("low byte = 0x%02X; want 0x34", got)
	}
	if got := m.Read(0xC001); got != 0x12 {
		t.Errorf("high byte = 0x%02X; want 0x12", got)
	}
	if got := m.Read16(0xC000); got != 0x1234 {
		t.Errorf("Read16(0xC000) = 0x%04X; want 0x1234", got)
	}
}

func TestMMULYWriteAlwaysResetsToZero(t *testing.T) {
	m := New()

	m.SetLY(99)
	m.Write(addr.LY, 0x42)

	if got := m.Read(addr.LY); got != 0 {
		t.Errorf("Read(LY) after CPU write = 0x%02X; want 0x00", got)
	}
}

func TestMMUSTATLowBitsAreReadOnlyFromCPUWrites(t *testing.T) {
	m := New()

	m.SetSTAT(0x02) // mode 2, coincidence clear, no enable bits set
	m.Write(addr.STAT, 0xF8|0x01)

	got := m.Read(addr.STAT)
	if got&0x07 != 0x02 {
		t.Errorf("STAT low bits = 0x%02X; want unchanged 0x02", got&0x07)
	}
	if got&0xF8 != 0xF8 {
		t.Errorf("STAT high bits = 0x%02X; want 0xF8 (CPU-writable bits applied)", got&0xF8)
	}
}

func TestMMUOverlappingDevicesPanics(t *testing.T) {
	m := New()
	// Attach a second device that (incorrectly) also claims DIV.
	m.AttachDevice(timerDevice{&m.timer})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic when two devices claim the same address")
		}
		err, ok := r.(*emuerr.Error)
		if !ok {
			t.Fatalf("expected *emuerr.Error, got %T: %v", r, r)
		}
		if err.Kind != emuerr.OverlappingDevices {
			t.Errorf("Kind = %v; want %v", err.Kind, emuerr.OverlappingDevices)
		}
	}()

	m.Read(addr.DIV)
}
