//go:build sdl2

package main

import (
	"github.com/valerio/go-jeebie/jeebie"
	"github.com/valerio/go-jeebie/jeebie/video"
)

// runSDL2 drives the emulator with an SDL2 window instead of the terminal,
// only available when built with the sdl2 tag (cgo + libSDL2 required).
func runSDL2(emu *jeebie.DMG) error {
	screen := video.NewScreen()
	defer screen.Destroy()

	for {
		if err := emu.RunUntilFrame(); err != nil {
			return err
		}
		screen.Draw(emu.GetCurrentFrame().ToSlice())
	}
}
