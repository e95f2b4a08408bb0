package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-jeebie/jeebie/memory"
)

func TestCPU_AdvanceConsumesRequestedBudget(t *testing.T) {
	mmu := memory.New()
	c := New(mmu)

	seconds := float64(1000) / float64(CyclesPerSecond)
	consumed := c.Advance(seconds)

	// The call must consume at least the requested budget, overshooting by
	// at most one instruction's cycles (24 is the longest DMG opcode).
	assert.GreaterOrEqual(t, consumed, 1000)
	assert.LessOrEqual(t, float64(consumed), 1000+24.0)
}

func TestCPU_AdvanceCarriesFractionalResidual(t *testing.T) {
	mmu := memory.New()
	c := New(mmu)

	// A budget smaller than any real instruction cost still runs exactly one
	// instruction (or halted tick), leaving a negative residual behind.
	consumed := c.Advance(1.0 / float64(CyclesPerSecond))

	assert.Greater(t, consumed, 0)
	assert.Less(t, c.cycleBudget, float64(0))
}

func TestCPU_AdvanceAccumulatesInstructionCount(t *testing.T) {
	mmu := memory.New()
	c := New(mmu)

	before := c.GetInstructionCount()
	c.Advance(float64(10000) / float64(CyclesPerSecond))

	assert.Greater(t, c.GetInstructionCount(), before)
}

func TestCPU_AdvanceTicksHaltedCPUInFixedIncrements(t *testing.T) {
	mmu := memory.New()
	c := New(mmu)
	c.halted = true
	c.interruptsEnabled = false

	consumed := c.Advance(float64(40) / float64(CyclesPerSecond))

	// Every halted step costs exactly 4 cycles; the CPU must never decode an
	// instruction while halted with no pending interrupt.
	assert.Equal(t, 0, consumed%4)
	assert.True(t, c.halted)
}
