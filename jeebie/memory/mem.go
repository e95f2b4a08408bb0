package memory

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/audio"
	"github.com/valerio/go-jeebie/jeebie/bit"
	"github.com/valerio/go-jeebie/jeebie/emuerr"
	"github.com/valerio/go-jeebie/jeebie/serial"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionUnused
	regionIO
	regionHRAM
)

// SerialPort is the minimal interface for a serial device connected to SB/SC.
// Implementations MUST only accept reads/writes to addr.SB and addr.SC.
type SerialPort interface {
	Write(address uint16, value byte)
	Read(address uint16) byte
	Tick(cycles int)
	Reset()
}

// MMU allows access to all memory mapped I/O and data/registers. ROM and
// ExtRAM go to the cartridge's MBC; VRAM, WRAM, Echo and OAM (including the
// unusable 0xFEA0-0xFEFF) are served directly from the flat memory array.
// Every address in 0xFF00-0xFFFF (I/O registers, HRAM and IE) is first
// offered to the attached Devices, dispatched through devices and cached by
// deviceCache so repeated accesses to the same register skip the scan; an
// address no device claims falls back to the flat memory array.
type MMU struct {
	cart      *Cartridge
	mbc       MBC
	memory    []byte
	APU       *audio.APU
	regionMap [256]memRegion

	joypad *Joypad
	serial SerialPort
	timer  Timer

	devices     []Device
	deviceCache [256]int
}

// New creates a new memory unity with default data, i.e. nothing cartridge loaded.
// Equivalent to turning on a Gameboy without a cartridge in.
func New() *MMU {
	mmu := &MMU{
		memory: make([]byte, 0x10000),
		cart:   NewCartridge(),
		APU:    audio.New(),
		joypad: NewJoypad(),
	}
	mmu.serial = serial.NewLogSink(func() { mmu.RequestInterrupt(addr.SerialInterrupt) })
	mmu.timer.TimerInterruptHandler = func() { mmu.RequestInterrupt(addr.TimerInterrupt) }
	mmu.joypad.InterruptHandler = func() { mmu.RequestInterrupt(addr.JoypadInterrupt) }

	initRegionMap(mmu)

	for i := range mmu.deviceCache {
		mmu.deviceCache[i] = cacheUnknown
	}

	mmu.AttachDevice(mmu.joypad)
	mmu.AttachDevice(serialDevice{mmu.serial})
	mmu.AttachDevice(timerDevice{&mmu.timer})
	mmu.AttachDevice(apuDevice{mmu.APU})
	mmu.AttachDevice(ifDevice{mmu})
	mmu.AttachDevice(dmaDevice{mmu})
	mmu.AttachDevice(lcdDevice{mmu})

	return mmu
}

// AttachDevice registers a Device to claim I/O register addresses. Devices
// are scanned in attach order on a cache miss, so more commonly-accessed or
// more narrowly-scoped devices should be attached first.
func (m *MMU) AttachDevice(d Device) {
	m.devices = append(m.devices, d)
	for i := range m.deviceCache {
		m.deviceCache[i] = cacheUnknown
	}
}

// Joypad exposes the attached Joypad device so callers (e.g. an input
// manager) can drive button state without going through bus addresses.
func (m *MMU) Joypad() *Joypad {
	return m.joypad
}

// Tick advances any i/o that needs it, if any.
func (m *MMU) Tick(cycles int) {
	m.timer.Tick(cycles)
	if m.serial != nil {
		m.serial.Tick(cycles)
	}
}

// SetTimerSeed initializes the internal timer divider seed and DIV register.
func (m *MMU) SetTimerSeed(seed uint16) {
	m.timer.SetSeed(seed)
}

// SaveRAM returns the attached cartridge's battery-backed RAM, suitable for
// writing to a .sav file, or nil if the cartridge has no MBC or no battery.
func (m *MMU) SaveRAM() []byte {
	battery, ok := m.mbc.(BatteryBacked)
	if !ok {
		return nil
	}
	return battery.SaveRAM()
}

// LoadRAM restores battery-backed RAM previously returned by SaveRAM. A
// no-op if the cartridge has no MBC or no battery.
func (m *MMU) LoadRAM(data []byte) {
	if battery, ok := m.mbc.(BatteryBacked); ok {
		battery.LoadRAM(data)
	}
}

// NewWithCartridge creates a new memory unit with the provided cartridge data loaded.
// Equivalent to turning on a Gameboy with a cartridge in.
func NewWithCartridge(cart *Cartridge) *MMU {
	mmu := New()
	mmu.cart = cart

	switch cart.mbcType {
	case NoMBCType:
		mmu.mbc = NewNoMBC(cart.data)
	case MBC1Type:
		mmu.mbc = NewMBC1(cart.data, cart.hasBattery, cart.ramBankCount)
	case MBC1MultiType:
		mmu.mbc = NewMBC1(cart.data, cart.hasBattery, cart.ramBankCount) // FIXME: add support for multicart
	case MBC2Type:
		mmu.mbc = NewMBC2(cart.data, cart.hasBattery)
	case MBC3Type:
		mbc3 := NewMBC3(cart.data, cart.ramBankCount, cart.hasRTC, nil)
		mbc3.hasBattery = cart.hasBattery
		mmu.mbc = mbc3
	case MBC5Type:
		mmu.mbc = NewMBC5(cart.data, cart.hasBattery, cart.hasRumble, cart.ramBankCount)
	case MBCUnknownType:
		panic("unsupported MBC type: unknown")
	default:
		panic(fmt.Sprintf("unsupported MBC type: %d", cart.mbcType))
	}

	return mmu
}

func initRegionMap(m *MMU) {
	// ROM: 0x0000-0x7FFF
	for i := 0x00; i <= 0x7F; i++ {
		m.regionMap[i] = regionROM
	}
	// VRAM: 0x8000-0x9FFF
	for i := 0x80; i <= 0x9F; i++ {
		m.regionMap[i] = regionVRAM
	}
	// External RAM: 0xA000-0xBFFF
	for i := 0xA0; i <= 0xBF; i++ {
		m.regionMap[i] = regionExtRAM
	}
	// Work RAM: 0xC000-0xDFFF
	for i := 0xC0; i <= 0xDF; i++ {
		m.regionMap[i] = regionWRAM
	}
	// Echo RAM: 0xE000-0xFDFF
	for i := 0xE0; i <= 0xFD; i++ {
		m.regionMap[i] = regionEcho
	}
	// OAM: 0xFE00-0xFE9F, Unused: 0xFEA0-0xFEFF
	m.regionMap[0xFE] = regionOAM
	// IO + HRAM: 0xFF00-0xFFFF
	m.regionMap[0xFF] = regionIO
}

// RequestInterrupt sets the interrupt flag (IF register) of the chosen interrupt to 1.
func (m *MMU) RequestInterrupt(interrupt addr.Interrupt) {
	interruptFlags := m.Read(addr.IF)

	var bitPos uint8
	switch interrupt {
	case addr.VBlankInterrupt:
		bitPos = 0
	case addr.LCDSTATInterrupt:
		bitPos = 1
	case addr.TimerInterrupt:
		bitPos = 2
	case addr.SerialInterrupt:
		bitPos = 3
	case addr.JoypadInterrupt:
		bitPos = 4
	default:
		panic(fmt.Sprintf("Unknown interrupt: 0x%02X", uint8(interrupt)))
	}

	newFlags := bit.Set(bitPos, interruptFlags)

	m.Write(addr.IF, newFlags)
}

func (m *MMU) ReadBit(index uint8, address uint16) bool {
	return bit.IsSet(index, m.Read(address))
}

func (m *MMU) SetBit(index uint8, address uint16, set bool) {
	value := m.Read(address)
	if set {
		value = bit.Set(index, value)
	} else {
		value = bit.Reset(index, value)
	}
	m.Write(address, value)
}

func (m *MMU) Read(address uint16) byte {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		if m.mbc == nil {
			slog.Warn("Reading from ROM/external RAM with no cartridge", "addr", fmt.Sprintf("0x%04X", address))
			return 0xFF
		}
		return m.mbc.Read(address)
	case regionVRAM, regionWRAM:
		return m.memory[address]
	case regionEcho:
		return m.memory[address-0x2000]
	case regionOAM:
		return m.memory[address]
	case regionIO:
		var value byte
		if m.dispatchDevice(ReadRequest, address, &value) {
			return value
		}
		return m.memory[address]
	default:
		panic(emuerr.New(emuerr.UnmappedAddress, "read at 0x%04X", address))
	}
}

// SafeRead8 reads a single byte like Read, but never panics: it exists for
// debuggers and disassemblers walking arbitrary, possibly-unmapped
// addresses, which must never crash the process they're attached to. The
// bool return is false only if address falls outside every known region,
// which the region table never actually produces today since it maps the
// whole address space - kept for the same reason Read keeps its panic
// branch, in case a future region is added without full coverage.
func (m *MMU) SafeRead8(address uint16) (byte, bool) {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		if m.mbc == nil {
			return 0xFF, true
		}
		return m.mbc.Read(address), true
	case regionVRAM, regionWRAM, regionOAM:
		return m.memory[address], true
	case regionEcho:
		return m.memory[address-0x2000], true
	case regionIO:
		var value byte
		if m.dispatchDevice(ReadRequest, address, &value) {
			return value, true
		}
		return m.memory[address], true
	default:
		return 0, false
	}
}

// Read16 reads a little-endian 16-bit value as two 8-bit bus accesses, low
// byte at address, high byte at address+1 - the DMG/Z80 convention used by
// every multi-byte register and stack operation.
func (m *MMU) Read16(address uint16) uint16 {
	low := m.Read(address)
	high := m.Read(address + 1)
	return bit.Combine(high, low)
}

// Write16 writes a little-endian 16-bit value as two 8-bit bus accesses.
func (m *MMU) Write16(address uint16, value uint16) {
	m.Write(address, bit.Low(value))
	m.Write(address+1, bit.High(value))
}

func (m *MMU) Write(address uint16, value byte) {
	switch m.regionMap[address>>8] {
	case regionROM:
		if m.mbc == nil {
			slog.Warn("Writing to ROM with no cartridge", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
			return
		}
		m.mbc.Write(address, value)
	case regionVRAM:
		m.memory[address] = value
	case regionExtRAM:
		if m.mbc == nil {
			slog.Warn("Writing to external RAM with no cartridge", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
			return
		}
		m.mbc.Write(address, value)
	case regionWRAM:
		m.memory[address] = value
	case regionEcho:
		m.memory[address-0x2000] = value
	case regionOAM:
		m.memory[address] = value
	case regionIO:
		if !m.dispatchDevice(WriteRequest, address, &value) {
			m.memory[address] = value
		}
	default:
		panic(emuerr.New(emuerr.UnmappedAddress, "write at 0x%04X", address))
	}
}

// dispatchDevice routes a request within the I/O register space to whichever
// attached Device claims address, caching the result by address so that
// hot registers (LY, DIV, ...) skip the device scan after the first access.
// Returns false if no device claims the address, meaning the caller should
// fall back to the raw MMIO byte array.
//
// On a cache miss every attached device is probed, not just until the first
// match: two devices claiming the same address is a wiring bug, and the
// only way to catch it is to keep scanning after the first claimant instead
// of returning immediately.
func (m *MMU) dispatchDevice(reqType RequestType, address uint16, value *byte) bool {
	cacheSlot := address & 0xFF

	if cached := m.deviceCache[cacheSlot]; cached != cacheUnknown {
		if cached == cacheNone {
			return false
		}
		return m.devices[cached].HandleRequest(reqType, address, value)
	}

	claimant := cacheNone
	for i, d := range m.devices {
		if d.HandleRequest(reqType, address, value) {
			if claimant != cacheNone {
				panic(emuerr.New(emuerr.OverlappingDevices, "address 0x%04X claimed by devices %d and %d", address, claimant, i))
			}
			claimant = i
		}
	}

	m.deviceCache[cacheSlot] = claimant
	return claimant != cacheNone
}

// SetLY sets the LY register directly, bypassing the CPU-facing write gate
// that would otherwise reset it to 0 - the PPU is the sole legitimate writer
// of the current scanline.
func (m *MMU) SetLY(line uint8) {
	m.memory[addr.LY] = line
}

// SetSTAT sets the full STAT byte directly, bypassing the CPU-facing write
// gate that protects the PPU-owned mode and coincidence bits - used by the
// PPU whenever it changes mode or re-evaluates the LYC coincidence flag.
func (m *MMU) SetSTAT(value uint8) {
	m.memory[addr.STAT] = value
}

// HandleKeyPress marks key as pressed on the attached joypad.
func (m *MMU) HandleKeyPress(key JoypadKey) {
	m.joypad.Press(key)
}

// HandleKeyRelease marks key as released on the attached joypad.
func (m *MMU) HandleKeyRelease(key JoypadKey) {
	m.joypad.Release(key)
}
