package video

import (
	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/bit"
	"github.com/valerio/go-jeebie/jeebie/memory"
)

// GpuMode tracks which phase of a scanline the PPU is currently in.
type GpuMode int

const (
	oamScanMode  GpuMode = iota // mode 2: scanning OAM for sprites on this line
	vramReadMode                // mode 3: reading VRAM to render the line
	hblankMode                  // mode 0: idle between lines
	vblankMode                  // mode 1: idle between frames
)

const (
	oamScanlineCycles  = 80
	vramScanlineCycles = 172
	hblankCycles       = 204
	scanlineCycles     = oamScanlineCycles + vramScanlineCycles + hblankCycles

	visibleLines  = 144
	linesPerFrame = 154
)

// statModeBits maps our internal mode enum to the bit pattern the STAT
// register exposes at bits 0-1 (see https://gbdev.io/pandocs/STAT.html).
func statModeBits(mode GpuMode) uint8 {
	switch mode {
	case hblankMode:
		return 0
	case vblankMode:
		return 1
	case oamScanMode:
		return 2
	default:
		return 3
	}
}

// GPU renders the DMG's 160x144 LCD one scanline at a time, driven by Tick
// from the main emulation loop. Background, window and sprites are
// recomposed every scanline rather than cached, mirroring how the real PPU
// has no persistent framebuffer of its own between fetches.
type GPU struct {
	mmu         *memory.MMU
	framebuffer *FrameBuffer
	oam         *OAM

	line         int
	mode         GpuMode
	cycles       int
	pixelCounter int
	frameCount   uint64

	// lcdWasEnabled tracks LCDC bit 7 as of the previous Tick, so the
	// enabled-to-disabled transition can be detected exactly once rather
	// than re-run on every tick the LCD stays off.
	lcdWasEnabled bool

	// bgColorIndex holds the pre-palette background/window color index (0-3)
	// for the scanline currently being drawn, so sprite compositing can
	// decide whether the background priority bit hides a sprite pixel.
	bgColorIndex [FramebufferWidth]byte
}

// NewGpu creates a GPU wired to the given memory bus.
func NewGpu(mmu *memory.MMU) *GPU {
	return &GPU{
		mmu:           mmu,
		framebuffer:   NewFrameBuffer(),
		oam:           NewOAM(mmu),
		mode:          oamScanMode,
		lcdWasEnabled: true,
	}
}

// GetFrameBuffer returns the buffer holding the most recently rendered frame.
func (g *GPU) GetFrameBuffer() *FrameBuffer {
	return g.framebuffer
}

// GetFrameCount returns the number of frames fully rendered so far, i.e. the
// number of times the PPU has entered VBlank.
func (g *GPU) GetFrameCount() uint64 {
	return g.frameCount
}

// Tick advances the PPU's mode state machine by the given number of cycles,
// updating LY/STAT and firing VBlank/STAT interrupts as each phase completes.
// A full scanline is rendered the moment VRAM-read mode ends, before HBlank
// starts - matching the point at which real hardware has finished fetching
// every pixel for the line.
func (g *GPU) Tick(cycles int) {
	enabled := g.isLCDEnabled()

	if !enabled {
		if g.lcdWasEnabled {
			g.disableLCD()
		}
		g.lcdWasEnabled = false
		return
	}

	if !g.lcdWasEnabled {
		g.lcdWasEnabled = true
	}

	g.cycles += cycles

	switch g.mode {
	case oamScanMode:
		if g.cycles >= oamScanlineCycles {
			g.cycles -= oamScanlineCycles
			g.setMode(vramReadMode)
		}
	case vramReadMode:
		if g.cycles >= vramScanlineCycles {
			g.cycles -= vramScanlineCycles
			g.drawScanline()
			g.setMode(hblankMode)
		}
	case hblankMode:
		if g.cycles >= hblankCycles {
			g.cycles -= hblankCycles
			g.advanceLine()

			if g.line == visibleLines {
				g.setMode(vblankMode)
				g.frameCount++
				g.mmu.RequestInterrupt(addr.VBlankInterrupt)
			} else {
				g.setMode(oamScanMode)
			}
		}
	case vblankMode:
		if g.cycles >= scanlineCycles {
			g.cycles -= scanlineCycles
			g.advanceLine()

			if g.line >= linesPerFrame {
				g.line = 0
				g.writeLY()
				g.setMode(oamScanMode)
			}
		}
	}
}

// disableLCD runs once on the LCDC bit 7 enabled-to-disabled edge: real
// hardware freezes the PPU, reports STAT mode 1 (the VBlank idle mode)
// without actually firing a VBlank interrupt, resets LY to 0, and leaves the
// LCD showing a blank (white) screen until re-enabled. The state machine is
// primed back to OAM scan so the first tick after re-enabling resumes a
// fresh scanline rather than wherever it left off.
func (g *GPU) disableLCD() {
	g.cycles = 0
	g.line = 0
	g.mmu.SetLY(0)

	g.mode = oamScanMode
	stat := g.mmu.Read(addr.STAT)
	stat = (stat &^ 0x3) | statModeBits(vblankMode)
	g.mmu.SetSTAT(stat)

	g.framebuffer.Clear()
}

// advanceLine moves to the next scanline, updating LY and the LYC
// coincidence flag/interrupt.
func (g *GPU) advanceLine() {
	g.line++
	g.writeLY()
}

// writeLY stores the current line into the LY register and refreshes the
// LYC coincidence flag, firing a STAT interrupt on a new match.
func (g *GPU) writeLY() {
	g.mmu.SetLY(uint8(g.line))

	stat := g.mmu.Read(addr.STAT)
	lyc := g.mmu.Read(addr.LYC)
	coincidence := uint8(g.line) == lyc

	if coincidence {
		stat = bit.Set(2, stat)
	} else {
		stat = bit.Clear(2, stat)
	}
	g.mmu.SetSTAT(stat)

	if coincidence && bit.IsSet(6, stat) {
		g.mmu.RequestInterrupt(addr.LCDSTATInterrupt)
	}
}

// setMode updates the PPU mode, writes it into STAT and fires the
// corresponding STAT interrupt if the matching enable bit is set.
func (g *GPU) setMode(mode GpuMode) {
	g.mode = mode

	stat := g.mmu.Read(addr.STAT)
	stat = (stat &^ 0x3) | statModeBits(mode)
	g.mmu.SetSTAT(stat)

	var enableBit uint8
	switch mode {
	case hblankMode:
		enableBit = 3
	case vblankMode:
		enableBit = 4
	case oamScanMode:
		enableBit = 5
	default:
		return
	}

	if bit.IsSet(enableBit, stat) {
		g.mmu.RequestInterrupt(addr.LCDSTATInterrupt)
	}
}

// drawBackground renders four pixels of the background/window starting at
// pixelCounter into the current scanline. It's driven in a loop by callers
// that want to interleave rendering with the OAM/VRAM timing of Tick;
// drawScanline calls the same per-pixel logic for the whole line at once.
func (g *GPU) drawBackground() {
	if !g.isLCDEnabled() {
		return
	}

	for i := 0; i < 4; i++ {
		x := g.pixelCounter + i
		if x < 0 || x >= FramebufferWidth {
			continue
		}
		g.renderBackgroundPixel(x)
	}
}

// drawScanline renders the full 160-pixel current line: background, window
// and sprites, composited in hardware priority order.
func (g *GPU) drawScanline() {
	if !g.isLCDEnabled() {
		return
	}

	for x := 0; x < FramebufferWidth; x++ {
		g.renderBackgroundPixel(x)
	}

	g.drawSprites()
}

// renderBackgroundPixel computes and writes the background/window color for
// a single screen column of the current line, recording its pre-palette
// color index for later sprite priority checks.
func (g *GPU) renderBackgroundPixel(screenX int) {
	var tileMapBase uint16
	var tilePixelX, tilePixelY int

	if g.isWindowVisibleAt(screenX) {
		wx := int(g.mmu.Read(addr.WX)) - 7
		wy := int(g.mmu.Read(addr.WY))
		windowX := screenX - wx
		windowY := g.line - wy

		tileMapBase = g.windowTileMapBase()
		tileX := windowX / 8
		tileY := windowY / 8
		tilePixelX = windowX % 8
		tilePixelY = windowY % 8
		tileMapBase += uint16(tileY*32 + tileX)
	} else if g.isBGEnabled() {
		scx := int(g.mmu.Read(addr.SCX))
		scy := int(g.mmu.Read(addr.SCY))
		bgX := (screenX + scx) & 0xFF
		bgY := (g.line + scy) & 0xFF

		tileMapBase = g.bgTileMapBase()
		tileX := bgX / 8
		tileY := bgY / 8
		tilePixelX = bgX % 8
		tilePixelY = bgY % 8
		tileMapBase += uint16(tileY*32 + tileX)
	} else {
		g.bgColorIndex[screenX] = 0
		g.framebuffer.SetPixel(uint(screenX), uint(g.line), WhiteColor)
		return
	}

	tileNumber := g.mmu.Read(tileMapBase)
	tileDataAddr := g.tileDataAddress(tileNumber)
	rowAddr := tileDataAddr + uint16(tilePixelY*2)

	row := TileRow{
		Low:  g.mmu.Read(rowAddr),
		High: g.mmu.Read(rowAddr + 1),
	}
	colorIndex := byte(row.GetPixel(tilePixelX))

	g.bgColorIndex[screenX] = colorIndex

	bgp := g.mmu.Read(addr.BGP)
	g.framebuffer.SetPixel(uint(screenX), uint(g.line), paletteColor(bgp, colorIndex))
}

// isWindowVisibleAt reports whether the window covers the given screen
// column on the current line.
func (g *GPU) isWindowVisibleAt(screenX int) bool {
	if !g.isWindowEnabled() {
		return false
	}

	wy := int(g.mmu.Read(addr.WY))
	if g.line < wy {
		return false
	}

	wx := int(g.mmu.Read(addr.WX)) - 7
	return screenX >= wx
}

// tileDataAddress resolves a tile number to its base address in VRAM,
// honoring LCDC bit 4's signed/unsigned addressing mode.
func (g *GPU) tileDataAddress(tileNumber byte) uint16 {
	if g.isTileDataUnsigned() {
		return addr.TileData0 + uint16(tileNumber)*16
	}
	return uint16(int32(addr.TileData2) + int32(int8(tileNumber))*16)
}

// drawSprites composites the up-to-10 sprites visible on the current
// scanline over the background/window pixels already drawn.
func (g *GPU) drawSprites() {
	if !g.isSpritesEnabled() {
		return
	}

	sprites := g.oam.GetSpritesForScanline(g.line)

	for _, sprite := range sprites {
		rowInSprite := g.line - int(sprite.Y)
		if sprite.FlipY {
			rowInSprite = sprite.Height - 1 - rowInSprite
		}

		tileIndex := sprite.TileIndex
		if sprite.Height == 16 {
			tileIndex &^= 1
			if rowInSprite >= 8 {
				tileIndex |= 1
				rowInSprite -= 8
			}
		}

		tileDataAddr := addr.TileData0 + uint16(tileIndex)*16
		rowAddr := tileDataAddr + uint16(rowInSprite*2)
		row := TileRow{
			Low:  g.mmu.Read(rowAddr),
			High: g.mmu.Read(rowAddr + 1),
		}

		palette := g.mmu.Read(addr.OBP0)
		if sprite.PaletteOBP1 {
			palette = g.mmu.Read(addr.OBP1)
		}

		for px := 0; px < 8; px++ {
			if !sprite.HasPriorityForPixel(px) {
				continue
			}

			screenX := int(sprite.X) + px
			if screenX < 0 || screenX >= FramebufferWidth {
				continue
			}

			var colorIndex int
			if sprite.FlipX {
				colorIndex = row.GetPixelFlipped(px)
			} else {
				colorIndex = row.GetPixel(px)
			}

			if colorIndex == 0 {
				continue
			}

			if sprite.BehindBG && g.bgColorIndex[screenX] != 0 {
				continue
			}

			g.framebuffer.SetPixel(uint(screenX), uint(g.line), paletteColor(palette, byte(colorIndex)))
		}
	}
}

// paletteColor applies a palette register's 2-bit-per-shade mapping to a
// raw tile color index.
func paletteColor(palette byte, colorIndex byte) GBColor {
	shade := (palette >> (colorIndex * 2)) & 0x3
	return ByteToColor(shade)
}

// LCDC (LCD Control) register bits, see https://gbdev.io/pandocs/LCDC.html
const (
	lcdDisplayEnable       = 7
	windowTileMapSelect    = 6
	windowDisplayEnable    = 5
	bgWindowTileDataSelect = 4
	bgTileMapDisplaySelect = 3
	spriteSizeSelect       = 2
	spriteDisplayEnable    = 1
	bgDisplayEnable        = 0
)

func (g *GPU) lcdc() byte {
	return g.mmu.Read(addr.LCDC)
}

func (g *GPU) isLCDEnabled() bool       { return bit.IsSet(lcdDisplayEnable, g.lcdc()) }
func (g *GPU) isWindowEnabled() bool    { return bit.IsSet(windowDisplayEnable, g.lcdc()) }
func (g *GPU) isBGEnabled() bool        { return bit.IsSet(bgDisplayEnable, g.lcdc()) }
func (g *GPU) isSpritesEnabled() bool   { return bit.IsSet(spriteDisplayEnable, g.lcdc()) }
func (g *GPU) isTileDataUnsigned() bool { return bit.IsSet(bgWindowTileDataSelect, g.lcdc()) }

func (g *GPU) bgTileMapBase() uint16 {
	if bit.IsSet(bgTileMapDisplaySelect, g.lcdc()) {
		return addr.TileMap1
	}
	return addr.TileMap0
}

func (g *GPU) windowTileMapBase() uint16 {
	if bit.IsSet(windowTileMapSelect, g.lcdc()) {
		return addr.TileMap1
	}
	return addr.TileMap0
}
