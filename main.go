// Command ch8 executes CHIP-8 ROMs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"time"

	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"

	"github.com/nf/ch8/vip"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type options struct {
	rom string

	term     bool
	headless int
	png      string
	hz       int
	scale    int
	seed     int64
	wav      string
	watch    bool

	debug      bool
	quiet      bool
	cpuProfile string
	version    bool
}

var errUsage = errors.New("usage")

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var (
		opts options
		fs   = flag.NewFlagSet("ch8", flag.ContinueOnError)
	)
	fs.SetOutput(stderr)
	fs.BoolVar(&opts.term, "term", false, "run in the terminal instead of a window")
	fs.IntVar(&opts.headless, "headless", 0, "run for `n` frames without a display, then print the screen")
	fs.StringVar(&opts.png, "png", "", "with -headless, also write the final screen to PNG `file`")
	fs.IntVar(&opts.hz, "hz", vip.DefaultClockHz, "instructions executed per second")
	fs.IntVar(&opts.scale, "scale", vip.DefaultConfig().Scale, "window pixels per CHIP-8 pixel")
	fs.Int64Var(&opts.seed, "seed", 0, "random seed for Cxkk (0 picks one from the clock)")
	fs.StringVar(&opts.wav, "wav", "", "record the buzzer to WAV `file`")
	fs.BoolVar(&opts.watch, "watch", false, "reload the ROM when the file changes")
	fs.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&opts.quiet, "q", false, "only log errors")
	fs.StringVar(&opts.cpuProfile, "cpu_profile", "", "write CPU profile to `file`")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: ch8 [flags] <program.ch8>\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, errUsage
	}
	if opts.version {
		return opts, nil
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return opts, errUsage
	}
	opts.rom = fs.Arg(0)
	switch {
	case opts.term && opts.headless > 0:
		return opts, errors.New("-term and -headless are mutually exclusive")
	case opts.headless < 0:
		return opts, fmt.Errorf("invalid frame count %d", opts.headless)
	case opts.png != "" && opts.headless == 0:
		return opts, errors.New("-png requires -headless")
	}
	return opts, nil
}

// config returns the machine configuration selected by opts.
func (o options) config() vip.Config {
	cfg := vip.DefaultConfig()
	cfg.ClockHz = o.hz
	cfg.Scale = o.scale
	cfg.Seed = o.seed
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	cfg.KeepOpen = o.watch
	return cfg
}

func newLogger(debug, quiet bool, out io.Writer) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = out
	if debug {
		cfg.Level = log.DebugLevel
	}
	if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "ch8: %v\n", err)
		}
		os.Exit(2)
	}
	if opts.version {
		fmt.Println(buildinfo.Version(version, commit, date))
		return
	}

	logger := newLogger(opts.debug, opts.quiet, os.Stderr)
	logger.Info("ch8", log.String("version", buildinfo.Version(version, commit, date)))

	var cpuProfile io.Closer
	if prof := opts.cpuProfile; prof != "" {
		f, err := os.Create(prof)
		if err != nil {
			logger.Fatal("creating CPU profile file", log.Err(err))
		}
		pprof.StartCPUProfile(f)
		cpuProfile = f
	}

	var (
		cfg       = opts.config()
		fe        vip.Frontend
		runLogger = logger
	)
	switch {
	case opts.headless > 0:
		fe = vip.NewHeadless(opts.headless, os.Stdout)
	case opts.term:
		t := vip.NewTerminal(cfg)
		runLogger = newLogger(opts.debug, opts.quiet, t.LogWriter())
		fe = t
	default:
		fe = vip.NewGUI(cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, runLogger, opts, cfg, fe)
	stop()

	if f := cpuProfile; f != nil {
		pprof.StopCPUProfile()
		f.Close()
	}
	if err != nil {
		logger.Fatal("exiting", log.Err(err))
	}
}

func run(ctx context.Context, logger *log.Logger, opts options, cfg vip.Config, fe vip.Frontend) (err error) {
	rom, err := os.ReadFile(opts.rom)
	if err != nil {
		return err
	}
	logger.Debug("loaded rom", log.String("file", opts.rom), log.Int("size", len(rom)))

	r := vip.NewRunner(cfg, logger, fe)
	if opts.wav != "" {
		rec, err := vip.NewWAVRecorder(opts.wav)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := rec.Close(); err == nil {
				err = cerr
			}
		}()
		r.SetBuzzer(rec)
	}
	if opts.watch {
		if err := watchROM(ctx, logger, r, opts.rom); err != nil {
			return fmt.Errorf("watching %s: %w", opts.rom, err)
		}
	}

	if err := r.Run(ctx, rom); err != nil {
		return err
	}
	if h, ok := fe.(*vip.Headless); ok && opts.png != "" {
		if err := vip.WritePNG(opts.png, h.Last(), cfg); err != nil {
			return err
		}
		logger.Info("wrote screenshot", log.String("file", opts.png))
	}
	return nil
}
