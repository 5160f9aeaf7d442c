// Package session runs minesweeper rounds. Every round is owned by a single
// goroutine: moves, mode switches and timer ticks are applied one at a time
// in the order they arrive.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/vancomm/shapesweeper/internal/catalog"
	"github.com/vancomm/shapesweeper/internal/mines"
)

var (
	ErrClosed     = errors.New("session closed")
	ErrNoSuchMode = errors.New("no such mode")
)

type Option func(*Session)

// WithTicker replaces the wall-clock ticker driving the round timer.
func WithTicker(f TickerFunc) Option {
	return func(s *Session) { s.newTicker = f }
}

func WithTick(d time.Duration) Option {
	return func(s *Session) { s.tick = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

type command struct {
	apply func() error
	reply chan result
}

type result struct {
	snap Snapshot
	err  error
}

type Session struct {
	ID  string
	Map string

	modes     []catalog.Mode
	logger    *slog.Logger
	tick      time.Duration
	newTicker TickerFunc

	cmds       chan command
	done       chan struct{}
	lastActive atomic.Int64

	// owned by Run
	game    *mines.Game
	mode    int
	elapsed int
	ticker  Ticker
	subs    map[chan Snapshot]struct{}
}

// New prepares a session on the first of modes. The session does nothing
// until Run is started.
func New(id string, m catalog.Map, r *rand.Rand, opts ...Option) (*Session, error) {
	if len(m.Modes) == 0 {
		return nil, fmt.Errorf("%w: %s", catalog.ErrNoModes, m.Name)
	}
	s := &Session{
		ID:        id,
		Map:       m.Name,
		modes:     m.Modes,
		logger:    slog.Default(),
		tick:      time.Second,
		newTicker: newTimeTicker,
		cmds:      make(chan command),
		done:      make(chan struct{}),
		game:      mines.NewGame(r),
		subs:      make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("session", id))
	s.load(0)
	s.touch()
	return s, nil
}

// Run applies commands and timer ticks until ctx is done.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)
	defer func() {
		s.stopTimer()
		for ch := range s.subs {
			close(ch)
		}
		s.subs = nil
	}()

	for {
		var tick <-chan time.Time
		if s.ticker != nil {
			tick = s.ticker.C()
		}

		select {
		case <-ctx.Done():
			s.logger.Debug("session stopped", slog.Any("reason", ctx.Err()))
			return

		case cmd := <-s.cmds:
			err := cmd.apply()
			snap := s.snapshot()
			s.publish(snap)
			cmd.reply <- result{snap, err}

		case <-tick:
			if s.game.State() != mines.Active {
				continue
			}
			s.elapsed++
			s.publish(s.snapshot())
		}
	}
}

// Done is closed once Run returns.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// LastActive is the time of the last command.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Session) do(ctx context.Context, apply func() error) (Snapshot, error) {
	s.touch()
	reply := make(chan result, 1)
	select {
	case s.cmds <- command{apply: apply, reply: reply}:
	case <-s.done:
		return Snapshot{}, ErrClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.snap, r.err
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	return s.do(ctx, func() error { return nil })
}

func (s *Session) Reveal(ctx context.Context, p mines.Point) (Snapshot, error) {
	return s.do(ctx, func() error {
		s.move(func() bool { return s.game.Reveal(p) })
		return nil
	})
}

func (s *Session) ToggleFlag(ctx context.Context, p mines.Point) (Snapshot, error) {
	return s.do(ctx, func() error {
		s.move(func() bool { return s.game.ToggleFlag(p) })
		return nil
	})
}

func (s *Session) Chord(ctx context.Context, p mines.Point) (Snapshot, error) {
	return s.do(ctx, func() error {
		s.move(func() bool { return s.game.Chord(p) })
		return nil
	})
}

// SwitchMode starts a fresh round on another of the map's layouts.
func (s *Session) SwitchMode(ctx context.Context, mode int) (Snapshot, error) {
	return s.do(ctx, func() error {
		if mode < 0 || mode >= len(s.modes) {
			return fmt.Errorf("%w: %d", ErrNoSuchMode, mode)
		}
		s.load(mode)
		return nil
	})
}

// Restart starts a fresh round on the current layout.
func (s *Session) Restart(ctx context.Context) (Snapshot, error) {
	return s.do(ctx, func() error {
		s.load(s.mode)
		return nil
	})
}

// Subscribe returns a channel receiving a snapshot after every change and
// every timer tick. Slow readers only see the latest snapshot. The channel
// is closed when the session stops or cancel is called.
func (s *Session) Subscribe(ctx context.Context) (<-chan Snapshot, func(), error) {
	ch := make(chan Snapshot, 1)
	_, err := s.do(ctx, func() error {
		s.subs[ch] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	cancel := func() {
		// a stopped session has already closed ch
		s.do(context.Background(), func() error {
			if _, ok := s.subs[ch]; ok {
				delete(s.subs, ch)
				close(ch)
			}
			return nil
		})
	}
	return ch, cancel, nil
}

func (s *Session) publish(snap Snapshot) {
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) move(apply func() bool) {
	before := s.game.State()
	if !apply() {
		return
	}
	after := s.game.State()
	if before == mines.Setup && after != mines.Setup {
		s.startTimer()
	}
	if s.game.Over() {
		s.stopTimer()
		s.logger.Info("round over",
			slog.String("map", s.Map),
			slog.Int("mode", s.mode),
			slog.String("state", after.String()),
			slog.Int("elapsed", s.elapsed),
		)
	}
}

func (s *Session) load(mode int) {
	s.stopTimer()
	s.elapsed = 0
	s.mode = mode
	err := s.game.LoadLayout(s.modes[mode].Layout())
	if errors.Is(err, mines.ErrEmptyLayout) {
		s.logger.Warn("empty layout", slog.String("map", s.Map), slog.Int("mode", mode))
	}
}

func (s *Session) startTimer() {
	s.stopTimer()
	s.ticker = s.newTicker(s.tick)
}

func (s *Session) stopTimer() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}
