package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"
	"github.com/retroenv/retrogolib/log"
)

// swapper is implemented by *vip.Runner.
type swapper interface {
	Swap(rom []byte) error
}

// watchROM reloads romFile into r each time it changes, until ctx is done.
// Bursts of events are coalesced.
func watchROM(ctx context.Context, logger *log.Logger, r swapper, romFile string) error {
	romFile = filepath.Clean(romFile)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Watch(filepath.Dir(romFile)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var reload <-chan time.Time
		for {
			select {
			case <-reload:
				reload = nil
				rom, err := os.ReadFile(romFile)
				if err != nil {
					logger.Error("reading rom", err)
					break
				}
				if err := r.Swap(rom); err != nil {
					logger.Error("reloading rom", err, log.String("file", romFile))
					break
				}
				logger.Info("reloaded rom", log.String("file", romFile), log.Int("size", len(rom)))
			case ev := <-watcher.Event:
				if filepath.Clean(ev.Name) == romFile && !ev.IsAttrib() && !ev.IsDelete() {
					reload = time.After(100 * time.Millisecond)
				}
			case err := <-watcher.Error:
				logger.Error("watcher", err)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
