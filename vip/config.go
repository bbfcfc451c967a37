// Package vip implements a host for the CHIP-8 interpreter: the clocks,
// keypad, display and buzzer that surround the CPU in the original COSMAC
// VIP, plus the frontends that present them.
package vip

import (
	"errors"
	"fmt"
	"image/color"
)

// TimerHz is the rate at which the delay and sound timers count down, and at
// which frames are published.
const TimerHz = 60

// Clock limits.
const (
	DefaultClockHz = 700
	MaxClockHz     = 1000000
)

// Config holds the settings of a Runner and its frontends.
type Config struct {
	// ClockHz is the number of instructions executed per second.
	ClockHz int

	// Scale is the number of window pixels per CHIP-8 pixel.
	Scale int

	Foreground color.RGBA
	Background color.RGBA

	// Seed is used to seed the random source of each Session.
	Seed int64

	// KeepOpen keeps the Runner alive after the machine halts, so that a
	// new ROM can be swapped in.
	KeepOpen bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		ClockHz:    DefaultClockHz,
		Scale:      10,
		Foreground: color.RGBA{0xff, 0xcc, 0x01, 0xff},
		Background: color.RGBA{0x99, 0x66, 0x01, 0xff},
		Seed:       1,
	}
}

// Validate reports whether c is usable.
func (c Config) Validate() error {
	var errs []error
	if c.ClockHz < 1 || c.ClockHz > MaxClockHz {
		errs = append(errs, fmt.Errorf("clock rate %d Hz out of range [1, %d]", c.ClockHz, MaxClockHz))
	}
	if c.Scale < 1 || c.Scale > 64 {
		errs = append(errs, fmt.Errorf("scale %d out of range [1, 64]", c.Scale))
	}
	if c.Foreground == c.Background {
		errs = append(errs, errors.New("foreground and background colours are the same"))
	}
	return errors.Join(errs...)
}

// palette returns the display palette, indexed by pixel value.
func (c Config) palette() color.Palette {
	return color.Palette{c.Background, c.Foreground}
}
