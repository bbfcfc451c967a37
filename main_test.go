package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"

	"github.com/nf/ch8/vip"
)

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseFlags([]string{"-hz", "1000", "-seed", "7", "-watch", "pong.ch8"}, &stderr)
	assert.NoError(t, err)
	assert.Equal(t, "pong.ch8", opts.rom)
	assert.Equal(t, 1000, opts.hz)
	assert.True(t, opts.watch)

	cfg := opts.config()
	assert.Equal(t, int64(7), cfg.Seed)
	assert.True(t, cfg.KeepOpen)
	assert.Equal(t, 1000, cfg.ClockHz)
	assert.NoError(t, cfg.Validate())

	opts, err = parseFlags([]string{"rom"}, &stderr)
	assert.NoError(t, err)
	assert.Equal(t, vip.DefaultClockHz, opts.hz)
	assert.True(t, opts.config().Seed != 0)
}

func TestParseFlagsUsage(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"a.ch8", "b.ch8"},
		{"-nosuchflag", "a.ch8"},
	} {
		var stderr bytes.Buffer
		_, err := parseFlags(args, &stderr)
		assert.Equal(t, errUsage, err, strings.Join(args, " "))
		assert.True(t, strings.Contains(stderr.String(), "usage: ch8"), strings.Join(args, " "))
	}

	_, err := parseFlags([]string{"-version"}, &bytes.Buffer{})
	assert.NoError(t, err)
}

func TestParseFlagsInvalid(t *testing.T) {
	for args, want := range map[string]string{
		"-term -headless 5 a.ch8": "-term and -headless are mutually exclusive",
		"-headless -1 a.ch8":      "invalid frame count -1",
		"-png out.png a.ch8":      "-png requires -headless",
	} {
		_, err := parseFlags(strings.Fields(args), &bytes.Buffer{})
		assert.Error(t, err, want, args)
	}
}

func TestRunHeadless(t *testing.T) {
	dir := t.TempDir()
	rom := filepath.Join(dir, "zero.ch8")
	assert.NoError(t, os.WriteFile(rom, []byte{0xd0, 0x15, 0x12, 0x02}, 0o644))

	opts, err := parseFlags([]string{
		"-headless", "3", "-hz", "5000",
		"-png", filepath.Join(dir, "zero.png"),
		"-wav", filepath.Join(dir, "zero.wav"),
		rom,
	}, &bytes.Buffer{})
	assert.NoError(t, err)

	var out bytes.Buffer
	cfg := opts.config()
	err = run(context.Background(), log.NewTestLogger(t), opts, cfg, vip.NewHeadless(opts.headless, &out))
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.String(), "####"+strings.Repeat(".", 60)+"\n"))

	for _, name := range []string{"zero.png", "zero.wav"} {
		fi, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
		assert.True(t, fi.Size() > 0, name)
	}
}

func TestRunMissingROM(t *testing.T) {
	opts, err := parseFlags([]string{"-headless", "1", filepath.Join(t.TempDir(), "none.ch8")}, &bytes.Buffer{})
	assert.NoError(t, err)
	err = run(context.Background(), log.NewNop(), opts, opts.config(), vip.NewHeadless(1, &bytes.Buffer{}))
	assert.True(t, os.IsNotExist(err))
}

type swapFunc func(rom []byte) error

func (f swapFunc) Swap(rom []byte) error { return f(rom) }

func TestWatchROM(t *testing.T) {
	dir := t.TempDir()
	rom := filepath.Join(dir, "game.ch8")
	assert.NoError(t, os.WriteFile(rom, []byte{0x12, 0x00}, 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	swapped := make(chan []byte, 1)
	err := watchROM(ctx, log.NewNop(), swapFunc(func(b []byte) error {
		select {
		case swapped <- b:
		default:
		}
		return nil
	}), rom)
	assert.NoError(t, err)

	assert.NoError(t, os.WriteFile(filepath.Join(dir, "other.ch8"), []byte{1}, 0o644))
	assert.NoError(t, os.WriteFile(rom, []byte{0x12, 0x02}, 0o644))
	select {
	case b := <-swapped:
		assert.Equal(t, []byte{0x12, 0x02}, b)
	case <-time.After(5 * time.Second):
		t.Fatal("rom was not reloaded")
	}
}
