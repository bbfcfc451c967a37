package vip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/retroenv/retrogolib/log"

	"github.com/nf/ch8/chip8"
)

// Host is the view of a Runner seen by a Frontend.
type Host interface {
	// Frames delivers the latest frame at most once per timer tick.
	// Stale frames are dropped.
	Frames() <-chan Frame

	// SetKey reports a change in the state of hex key k.
	SetKey(k byte, down bool)
}

// Frontend presents frames and collects key presses.
type Frontend interface {
	// Run drives the frontend until the user quits or done is closed.
	// It is called on the main goroutine.
	Run(h Host, done <-chan struct{}) error
}

// ErrStopped is returned by Swap if the Runner is no longer running.
var ErrStopped = errors.New("runner stopped")

// maxBatchHz is the fastest the instruction clock ticks. Faster clock rates
// execute several instructions per tick.
const maxBatchHz = 1000

type keyEvent struct {
	key  byte
	down bool
}

// Runner drives a Session at the configured clock rate and feeds its frames
// to a Frontend. A Runner may only be run once.
type Runner struct {
	cfg    Config
	log    *log.Logger
	fe     Frontend
	buzzer Buzzer

	frames chan Frame
	keys   chan keyEvent
	done   chan struct{}

	swap     chan []byte
	swapDone chan error
}

// NewRunner returns a Runner that presents its machine on fe.
func NewRunner(cfg Config, logger *log.Logger, fe Frontend) *Runner {
	return &Runner{
		cfg:      cfg,
		log:      logger,
		fe:       fe,
		frames:   make(chan Frame, 1),
		keys:     make(chan keyEvent, chip8.NumKeys),
		done:     make(chan struct{}),
		swap:     make(chan []byte),
		swapDone: make(chan error),
	}
}

// SetBuzzer sets the sink for the sound timer. It must be called before Run.
func (r *Runner) SetBuzzer(b Buzzer) { r.buzzer = b }

// Frames implements Host.
func (r *Runner) Frames() <-chan Frame { return r.frames }

// SetKey implements Host.
func (r *Runner) SetKey(k byte, down bool) {
	select {
	case r.keys <- keyEvent{k & 0xf, down}:
	case <-r.done:
	}
}

// Swap replaces the running machine with a new one running rom.
// It also restarts a machine that has halted while Config.KeepOpen is set.
func (r *Runner) Swap(rom []byte) error {
	select {
	case r.swap <- rom:
		return <-r.swapDone
	case <-r.done:
		return ErrStopped
	}
}

// Run executes rom until the machine halts, the frontend exits or ctx is
// cancelled. It returns the halt error, if any.
func (r *Runner) Run(ctx context.Context, rom []byte) error {
	s, err := r.start(rom)
	if err != nil {
		close(r.done)
		return err
	}
	r.log.Info("running", log.Int("size", len(rom)), log.Int("hz", r.cfg.ClockHz))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var loopErr error
	go func() {
		defer close(r.done)
		loopErr = r.loop(ctx, s)
	}()
	feErr := r.fe.Run(r, r.done)
	cancel()
	<-r.done

	if feErr != nil {
		return fmt.Errorf("frontend: %w", feErr)
	}
	return loopErr
}

func (r *Runner) start(rom []byte) (*Session, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return r.newSession(rom)
}

func (r *Runner) newSession(rom []byte) (*Session, error) {
	s, err := NewSession(rom, r.cfg)
	if err != nil {
		return nil, err
	}
	s.SetBuzzer(r.buzzer)
	return s, nil
}

func (r *Runner) loop(ctx context.Context, s *Session) error {
	batch, interval := clockBatch(r.cfg.ClockHz)
	clock := time.NewTicker(interval)
	defer clock.Stop()
	timer := time.NewTicker(time.Second / TimerHz)
	defer timer.Stop()

	var halt error
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-r.keys:
			r.log.Debug("key", log.Uint8("key", ev.key), log.Bool("down", ev.down))
			s.SetKey(ev.key, ev.down)

		case rom := <-r.swap:
			ns, err := r.newSession(rom)
			if err == nil {
				s, halt = ns, nil
				r.log.Info("swapped rom", log.Int("size", len(rom)))
			}
			r.swapDone <- err

		case <-clock.C:
			if halt != nil {
				break
			}
			if _, err := s.Step(batch); err != nil {
				halt = err
				r.logHalt(err)
				r.publish(s, halt)
				if !r.cfg.KeepOpen {
					return err
				}
			}

		case <-timer.C:
			if halt == nil {
				s.Tick()
			}
			r.publish(s, halt)
		}
	}
}

// publish offers the current frame to the frontend, replacing any frame
// the frontend has not yet received.
func (r *Runner) publish(s *Session, halt error) {
	f := s.Frame()
	f.Halt = halt
	select {
	case <-r.frames:
	default:
	}
	select {
	case r.frames <- f:
	default:
	}
}

func (r *Runner) logHalt(err error) {
	var h chip8.HaltError
	if !errors.As(err, &h) {
		r.log.Error("machine halted", err)
		return
	}
	r.log.Error("machine halted", err,
		log.String("pc", fmt.Sprintf("%.4x", h.Addr)),
		log.String("instr", h.Instr.String()),
		log.String("code", h.HaltCode.String()))
}

// clockBatch returns the number of instructions to execute per tick of the
// instruction clock, and the interval between ticks, for a rate of hz.
func clockBatch(hz int) (n int, interval time.Duration) {
	n = (hz + maxBatchHz - 1) / maxBatchHz
	return n, time.Second * time.Duration(n) / time.Duration(hz)
}
