package memory

import "github.com/valerio/go-jeebie/jeebie/util"

const titleLength = 11

const (
	entryPointAddress       = 0x100
	logoAddress             = 0x104
	titleAddress            = 0x134
	manufacturerCodeAddress = 0x13F
	cgbFlagAddress          = 0x143
	newLicenseCodeAddress   = 0x144
	sgbFlagAddress          = 0x146
	cartridgeTypeAddress    = 0x147
	romSizeAddress          = 0x148
	ramSizeAddress          = 0x149
	destinationCodeAddress  = 0x14A
	oldLicenseCodeAddress   = 0x14B
	versionNumberAddress    = 0x14C
	headerChecksumAddress   = 0x14D
	globalChecksumAddress   = 0x14E
)

// MBCType identifies which memory bank controller a cartridge's header
// declares, selecting the MBC implementation NewWithCartridge wires up.
type MBCType uint8

const (
	NoMBCType MBCType = iota
	MBC1Type
	MBC1MultiType
	MBC2Type
	MBC3Type
	MBC5Type
	MBCUnknownType
)

// Cartridge type byte values at cartridgeTypeAddress (0x147), per the
// Game Boy header layout: https://gbdev.io/pandocs/The_Cartridge_Header.html
const (
	cartTypeROMOnly            = 0x00
	cartTypeMBC1               = 0x01
	cartTypeMBC1RAM            = 0x02
	cartTypeMBC1RAMBattery     = 0x03
	cartTypeMBC2               = 0x05
	cartTypeMBC2Battery        = 0x06
	cartTypeROMRAM             = 0x08
	cartTypeROMRAMBattery      = 0x09
	cartTypeMMM01              = 0x0B
	cartTypeMMM01RAM           = 0x0C
	cartTypeMMM01RAMBattery    = 0x0D
	cartTypeMBC3TimerBattery   = 0x0F
	cartTypeMBC3TimerRAMBat    = 0x10
	cartTypeMBC3               = 0x11
	cartTypeMBC3RAM            = 0x12
	cartTypeMBC3RAMBattery     = 0x13
	cartTypeMBC5               = 0x19
	cartTypeMBC5RAM            = 0x1A
	cartTypeMBC5RAMBattery     = 0x1B
	cartTypeMBC5Rumble         = 0x1C
	cartTypeMBC5RumbleRAM      = 0x1D
	cartTypeMBC5RumbleRAMBat   = 0x1E
	cartTypeMBC6               = 0x20
	cartTypeMBC7SensorRumble   = 0x22
	cartTypePocketCamera       = 0xFC
	cartTypeBandaiTAMA5        = 0xFD
	cartTypeHuC3               = 0xFE
	cartTypeHuC1RAMBattery     = 0xFF
)

// multicartROMSize is the romSizeAddress value (1MiB, 64 banks) used by the
// known MBC1 multi-game carts; games below this size are regular MBC1.
const multicartROMSize = 0x05

type Cartridge struct {
	data           []byte
	title          string
	headerChecksum uint16
	globalChecksum uint16
	version        uint8
	cartType       uint8
	romSize        uint8
	ramSize        uint8

	mbcType      MBCType
	hasBattery   bool
	hasRTC       bool
	hasRumble    bool
	ramBankCount uint8
}

// NewCartridge creates an empty cartridge, useful only for debugging purposes.
func NewCartridge() *Cartridge {
	return &Cartridge{
		data:    make([]byte, 0x10000),
		mbcType: NoMBCType,
	}
}

// NewCartridgeWithData initializes a new Cartridge from a slice of bytes,
// parsing the header at 0x100-0x14F to determine title, checksums and which
// memory bank controller (if any) the rest of the bus must route through.
func NewCartridgeWithData(bytes []byte) *Cartridge {
	titleBytes := bytes[titleAddress : titleAddress+titleLength]

	cart := &Cartridge{
		data:           make([]byte, len(bytes)),
		title:          cleanGameboyTitle(titleBytes),
		headerChecksum: util.CombineBytes(bytes[headerChecksumAddress+1], bytes[headerChecksumAddress]),
		globalChecksum: util.CombineBytes(bytes[globalChecksumAddress+1], bytes[globalChecksumAddress]),
		version:        bytes[versionNumberAddress],
		cartType:       bytes[cartridgeTypeAddress],
		romSize:        bytes[romSizeAddress],
		ramSize:        bytes[ramSizeAddress],
	}

	cart.mbcType, cart.hasBattery, cart.hasRTC, cart.hasRumble = decodeCartType(cart.cartType, cart.romSize)
	cart.ramBankCount = decodeRAMBankCount(cart.ramSize)

	copy(cart.data, bytes)

	return cart
}

// decodeCartType maps the raw cartridgeTypeAddress byte to the MBC
// implementation it requires and the extra hardware (battery-backed RAM,
// real-time clock, rumble motor) that implementation needs to know about.
func decodeCartType(cartType uint8, romSize uint8) (mbc MBCType, hasBattery, hasRTC, hasRumble bool) {
	switch cartType {
	case cartTypeROMOnly, cartTypeROMRAM, cartTypeROMRAMBattery:
		return NoMBCType, cartType == cartTypeROMRAMBattery, false, false
	case cartTypeMBC1, cartTypeMBC1RAM, cartTypeMBC1RAMBattery:
		if romSize >= multicartROMSize {
			return MBC1MultiType, cartType == cartTypeMBC1RAMBattery, false, false
		}
		return MBC1Type, cartType == cartTypeMBC1RAMBattery, false, false
	case cartTypeMBC2, cartTypeMBC2Battery:
		return MBC2Type, cartType == cartTypeMBC2Battery, false, false
	case cartTypeMBC3TimerBattery, cartTypeMBC3TimerRAMBat:
		return MBC3Type, true, true, false
	case cartTypeMBC3, cartTypeMBC3RAM, cartTypeMBC3RAMBattery:
		return MBC3Type, cartType == cartTypeMBC3RAMBattery, false, false
	case cartTypeMBC5, cartTypeMBC5RAM, cartTypeMBC5RAMBattery:
		return MBC5Type, cartType == cartTypeMBC5RAMBattery, false, false
	case cartTypeMBC5Rumble, cartTypeMBC5RumbleRAM, cartTypeMBC5RumbleRAMBat:
		return MBC5Type, cartType == cartTypeMBC5RumbleRAMBat, false, true
	default:
		// MMM01, MBC6, MBC7, Pocket Camera, TAMA5, HuC1/HuC3 and anything
		// else undocumented: no implementation backs these yet.
		return MBCUnknownType, false, false, false
	}
}

// decodeRAMBankCount maps the raw ramSizeAddress byte to a count of 8KiB
// external RAM banks. 0x01 (2KiB, a single partial bank) is rounded up to
// one full bank since every MBC implementation here allocates by bank.
func decodeRAMBankCount(ramSize uint8) uint8 {
	switch ramSize {
	case 0x00:
		return 0
	case 0x01, 0x02:
		return 1
	case 0x03:
		return 4
	case 0x04:
		return 16
	case 0x05:
		return 8
	default:
		return 0
	}
}

// ReadByte reads a byte at the specified address. Does not check bounds, so the caller must make sure the
// address is valid for the cartridge.
func (c Cartridge) ReadByte(addr uint16) uint8 {
	return c.data[addr]
}

// WriteByte attempts a write to the specified address. Writing to a cartridge has sense if the cartridge
// has extra RAM or for some special operations, like switching ROM banks.
func (c Cartridge) WriteByte(addr uint16, value uint8) uint8 {
	return c.data[addr]
}

// Title returns the cleaned-up game title from the cartridge header.
func (c Cartridge) Title() string {
	return c.title
}

// HasBattery reports whether the cartridge's RAM is battery-backed, i.e.
// whether save data should survive a power-off.
func (c Cartridge) HasBattery() bool {
	return c.hasBattery
}
