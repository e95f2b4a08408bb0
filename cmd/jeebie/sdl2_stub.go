//go:build !sdl2

package main

import (
	"errors"

	"github.com/valerio/go-jeebie/jeebie"
)

// runSDL2 is a stub used when the binary is built without the sdl2 tag, so
// --sdl2 fails with a clear message instead of a missing-symbol build error.
func runSDL2(emu *jeebie.DMG) error {
	return errors.New("built without sdl2 support: rebuild with -tags sdl2")
}
