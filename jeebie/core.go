package jeebie

import (
	"os"

	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/cpu"
	"github.com/valerio/go-jeebie/jeebie/debug"
	"github.com/valerio/go-jeebie/jeebie/input/action"
	"github.com/valerio/go-jeebie/jeebie/memory"
	"github.com/valerio/go-jeebie/jeebie/timing"
	"github.com/valerio/go-jeebie/jeebie/video"
)

// DMG is the root struct for a DMG (original Game Boy) emulator instance,
// tying together the CPU, the memory bus, and the PPU, and exposing the
// Emulator interface so it can be driven by any backend.
type DMG struct {
	cpu *cpu.CPU
	gpu *video.GPU
	mem *memory.MMU

	limiter timing.Limiter

	frameCount uint64
	// cycleBudget is the fractional cycle allowance carried between Advance
	// calls, mirroring cpu.CPU's own budget but covering the whole system
	// tick (CPU + memory bus + PPU) rather than the CPU in isolation.
	cycleBudget   float64
	debuggerState debug.DebuggerState
}

func newDMG(mem *memory.MMU) *DMG {
	d := &DMG{
		mem:     mem,
		limiter: timing.NewAdaptiveLimiter(),
	}
	d.cpu = cpu.New(mem)
	d.gpu = video.NewGpu(mem)
	return d
}

// New creates a new DMG instance with no cartridge loaded.
func New() *DMG {
	return newDMG(memory.NewWithCartridge(memory.NewCartridge()))
}

// NewWithFile creates a new DMG instance and loads the ROM file at path into it.
func NewWithFile(path string) (*DMG, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return newDMG(memory.NewWithCartridge(memory.NewCartridgeWithData(data))), nil
}

// tick runs a single CPU instruction and advances every other component by
// the cycles it consumed.
func (d *DMG) tick() int {
	cycles := d.cpu.Exec()
	d.mem.Tick(cycles)
	d.gpu.Tick(cycles)
	return cycles
}

// Advance runs the system - CPU, memory bus and PPU together, one
// instruction at a time - for up to seconds of emulated time at
// cpu.CyclesPerSecond, returning the number of cycles actually consumed.
// Like cpu.CPU.Advance, a call may overshoot the requested budget by at most
// one instruction's cycles; the remainder carries over in cycleBudget.
func (d *DMG) Advance(seconds float64) int {
	d.cycleBudget += seconds * cpu.CyclesPerSecond

	consumed := 0
	for d.cycleBudget > 0 {
		cycles := d.tick()
		consumed += cycles
		d.cycleBudget -= float64(cycles)
	}

	return consumed
}

// RunUntilFrame executes instructions until a full frame has been rendered,
// then blocks until it's time for the next frame.
func (d *DMG) RunUntilFrame() error {
	target := d.gpu.GetFrameCount() + 1

	for d.gpu.GetFrameCount() < target {
		d.tick()
	}

	d.frameCount++
	d.limiter.WaitForNextFrame()
	return nil
}

// GetCurrentFrame returns the most recently rendered frame.
func (d *DMG) GetCurrentFrame() *video.FrameBuffer {
	return d.gpu.GetFrameBuffer()
}

// HandleAction applies a single input action, routing Game Boy controls to
// the joypad and handling emulator-level actions directly.
func (d *DMG) HandleAction(act action.Action, pressed bool) {
	key := gbActionToJoypadKey(act)
	if key != memory.JoypadNone {
		if pressed {
			d.mem.HandleKeyPress(key)
		} else {
			d.mem.HandleKeyRelease(key)
		}
		return
	}

	switch act {
	case action.EmulatorPauseToggle:
		if pressed {
			if d.debuggerState == debug.DebuggerPaused {
				d.debuggerState = debug.DebuggerRunning
			} else {
				d.debuggerState = debug.DebuggerPaused
			}
		}
	case action.EmulatorStepInstruction:
		if pressed {
			d.tick()
		}
	}
}

func gbActionToJoypadKey(act action.Action) memory.JoypadKey {
	switch act {
	case action.GBButtonA:
		return memory.JoypadA
	case action.GBButtonB:
		return memory.JoypadB
	case action.GBButtonStart:
		return memory.JoypadStart
	case action.GBButtonSelect:
		return memory.JoypadSelect
	case action.GBDPadUp:
		return memory.JoypadUp
	case action.GBDPadDown:
		return memory.JoypadDown
	case action.GBDPadLeft:
		return memory.JoypadLeft
	case action.GBDPadRight:
		return memory.JoypadRight
	default:
		return memory.JoypadNone
	}
}

// ExtractDebugData snapshots CPU/OAM/VRAM/memory state for debug displays.
// Returns nil if the DMG has not been fully initialized yet.
func (d *DMG) ExtractDebugData() *debug.CompleteDebugData {
	if d.cpu == nil || d.mem == nil {
		return nil
	}

	return &debug.CompleteDebugData{
		OAM:             debug.ExtractOAMDataFromReader(d.mem, d.currentScanline(), d.spriteHeight()),
		VRAM:            debug.ExtractVRAMDataFromReader(d.mem),
		CPU:             d.cpuState(),
		Memory:          d.memorySnapshot(),
		DebuggerState:   d.debuggerState,
		InterruptEnable: d.mem.Read(addr.IE),
		InterruptFlags:  d.mem.Read(addr.IF),
	}
}

func (d *DMG) cpuState() *debug.CPUState {
	return &debug.CPUState{
		A:      d.cpu.GetA(),
		F:      d.cpu.GetF(),
		B:      d.cpu.GetB(),
		C:      d.cpu.GetC(),
		D:      d.cpu.GetD(),
		E:      d.cpu.GetE(),
		H:      d.cpu.GetH(),
		L:      d.cpu.GetL(),
		SP:     d.cpu.GetSP(),
		PC:     d.cpu.GetPC(),
		IME:    d.cpu.GetIME(),
		Cycles: d.cpu.GetCycles(),
	}
}

// memorySnapshotSize is the window of memory captured around the PC for
// disassembly views.
const memorySnapshotSize = 64

func (d *DMG) memorySnapshot() *debug.MemorySnapshot {
	pc := d.cpu.GetPC()

	start := pc
	if start > 16 {
		start -= 16
	} else {
		start = 0
	}

	size := memorySnapshotSize
	if uint32(start)+uint32(size) > 0x10000 {
		size = int(0x10000 - uint32(start))
	}

	bytes := make([]uint8, size)
	for i := range bytes {
		bytes[i] = d.mem.Read(start + uint16(i))
	}

	return &debug.MemorySnapshot{
		StartAddr: start,
		Bytes:     bytes,
	}
}

func (d *DMG) currentScanline() int {
	return int(d.mem.Read(addr.LY))
}

func (d *DMG) spriteHeight() int {
	lcdc := d.mem.Read(addr.LCDC)
	if lcdc&0x04 != 0 {
		return 16
	}
	return 8
}

// SetFrameLimiter overrides the pacing strategy used by RunUntilFrame. A nil
// limiter disables pacing, which benchmarks and headless runs rely on.
func (d *DMG) SetFrameLimiter(limiter timing.Limiter) {
	if limiter == nil {
		d.limiter = timing.NewNoOpLimiter()
	} else {
		d.limiter = limiter
	}
}

// ResetFrameTiming resets the frame limiter's internal clock, useful after a pause.
func (d *DMG) ResetFrameTiming() {
	d.limiter.Reset()
}

// GetFrameCount returns the number of frames rendered so far.
func (d *DMG) GetFrameCount() uint64 {
	return d.frameCount
}

// GetInstructionCount returns the number of CPU instructions executed so far.
func (d *DMG) GetInstructionCount() uint64 {
	return d.cpu.GetInstructionCount()
}

// SaveRAM returns the loaded cartridge's battery-backed RAM, or nil if it
// has no MBC or no battery.
func (d *DMG) SaveRAM() []byte {
	return d.mem.SaveRAM()
}

// LoadRAM restores battery-backed RAM previously returned by SaveRAM.
func (d *DMG) LoadRAM(data []byte) {
	d.mem.LoadRAM(data)
}

// HandleKeyPress marks key as pressed, kept for callers that talk to the
// joypad directly rather than going through Action routing.
func (d *DMG) HandleKeyPress(key memory.JoypadKey) {
	d.mem.HandleKeyPress(key)
}

// HandleKeyRelease marks key as released.
func (d *DMG) HandleKeyRelease(key memory.JoypadKey) {
	d.mem.HandleKeyRelease(key)
}

