package session

import (
	"context"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/shapesweeper/internal/catalog"
	"github.com/vancomm/shapesweeper/internal/mines"
)

// lastSource makes IntN(n) return n-1, so mines always land on the last
// candidates in row-major order.
type lastSource struct{}

func (lastSource) Uint64() uint64 { return math.MaxUint64 }

type fakeTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

type clock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (c *clock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{c: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *clock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

func (c *clock) last() *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		return nil
	}
	return c.tickers[len(c.tickers)-1]
}

func (c *clock) tick(t *testing.T) {
	t.Helper()
	ft := c.last()
	require.NotNil(t, ft, "no ticker running")
	select {
	case ft.c <- time.Now():
	case <-time.After(time.Second):
		t.Fatal("tick was not consumed")
	}
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// A single row of nine cells holds two mines. Opening the right end puts
// them on columns 5 and 6 and leaves the round active.
const row = "#########"

func testMap() catalog.Map {
	return catalog.Map{
		Name: "Row",
		Modes: []catalog.Mode{
			{Index: 0, Grid: mines.ParseLayout(row).Markers()},
			{Index: 1, Grid: mines.ParseLayout("###\n###\n###").Markers()},
			{Index: 2, Grid: [][]int{{0, 0}, {0, 0}}},
		},
	}
}

func start(t *testing.T, m catalog.Map) (*Session, *clock) {
	t.Helper()
	clk := &clock{}
	s, err := New("test", m, rand.New(lastSource{}),
		WithTicker(clk.NewTicker),
		WithLogger(quiet),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
	return s, clk
}

func TestNew(t *testing.T) {
	_, err := New("x", catalog.Map{Name: "bare"}, rand.New(lastSource{}))
	require.ErrorIs(t, err, catalog.ErrNoModes)

	s, clk := start(t, testMap())
	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "test", snap.SessionID)
	assert.Equal(t, "Row", snap.Map)
	assert.Equal(t, 0, snap.Mode)
	assert.Equal(t, 3, snap.ModeCount)
	assert.Equal(t, mines.Setup, snap.State)
	assert.Equal(t, 1, snap.Rows)
	assert.Equal(t, 9, snap.Cols)
	assert.Equal(t, 2, snap.MineCount)
	assert.Equal(t, 2, snap.MinesLeft)
	assert.Zero(t, snap.Elapsed)
	assert.Empty(t, snap.Message)
	assert.Zero(t, clk.count(), "timer must not run before the first reveal")
}

func TestFlagDuringSetup(t *testing.T) {
	s, clk := start(t, testMap())
	ctx := context.Background()

	snap, err := s.ToggleFlag(ctx, mines.Point{Row: 0, Col: 3})
	require.NoError(t, err)
	assert.Equal(t, mines.Setup, snap.State)
	assert.Equal(t, mines.Flag, snap.Grid[0][3])
	assert.Equal(t, 1, snap.MinesLeft)

	snap, err = s.Reveal(ctx, mines.Point{Row: 0, Col: 3})
	require.NoError(t, err)
	assert.Equal(t, mines.Setup, snap.State, "flagged anchor is ignored")
	assert.Zero(t, clk.count())
}

func TestTimer(t *testing.T) {
	s, clk := start(t, testMap())
	ctx := context.Background()

	snap, err := s.Reveal(ctx, mines.Point{Row: 0, Col: 8})
	require.NoError(t, err)
	require.Equal(t, mines.Active, snap.State)
	assert.Equal(t, mines.Unknown, snap.Grid[0][6])
	assert.Equal(t, mines.CellStatus(1), snap.Grid[0][7])
	assert.Equal(t, mines.CellStatus(0), snap.Grid[0][8])
	require.Equal(t, 1, clk.count())

	for range 3 {
		clk.tick(t)
	}
	snap, err = s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Elapsed)

	// a second reveal must not start another timer
	_, err = s.ToggleFlag(ctx, mines.Point{Row: 0, Col: 6})
	require.NoError(t, err)
	assert.Equal(t, 1, clk.count())
	assert.False(t, clk.last().stopped.Load())
}

func TestLoss(t *testing.T) {
	s, clk := start(t, testMap())
	ctx := context.Background()

	_, err := s.Reveal(ctx, mines.Point{Row: 0, Col: 8})
	require.NoError(t, err)
	clk.tick(t)

	snap, err := s.Reveal(ctx, mines.Point{Row: 0, Col: 6})
	require.NoError(t, err)
	assert.Equal(t, mines.Lost, snap.State)
	assert.Equal(t, MessageLoss, snap.Message)
	assert.Equal(t, mines.ExplodedMine, snap.Grid[0][6])
	assert.Equal(t, mines.Mine, snap.Grid[0][5])
	assert.Equal(t, 1, snap.Elapsed)
	assert.True(t, clk.last().stopped.Load())

	snap, err = s.Reveal(ctx, mines.Point{Row: 0, Col: 0})
	require.NoError(t, err)
	assert.Equal(t, mines.Unknown, snap.Grid[0][0], "moves after the round are ignored")
}

func TestWin(t *testing.T) {
	t.Run("after two moves", func(t *testing.T) {
		s, clk := start(t, testMap())
		ctx := context.Background()

		_, err := s.Reveal(ctx, mines.Point{Row: 0, Col: 8})
		require.NoError(t, err)
		clk.tick(t)
		clk.tick(t)

		snap, err := s.Reveal(ctx, mines.Point{Row: 0, Col: 0})
		require.NoError(t, err)
		assert.Equal(t, mines.Won, snap.State)
		assert.Equal(t, MessageWin, snap.Message)
		assert.Equal(t, 2, snap.Elapsed)
		assert.Equal(t, mines.Flag, snap.Grid[0][5])
		assert.Equal(t, mines.Flag, snap.Grid[0][6])
		assert.True(t, clk.last().stopped.Load())
	})

	t.Run("first move", func(t *testing.T) {
		s, clk := start(t, testMap())

		snap, err := s.Reveal(context.Background(), mines.Point{Row: 0, Col: 0})
		require.NoError(t, err)
		assert.Equal(t, mines.Won, snap.State)
		assert.Zero(t, snap.Elapsed)
		require.Equal(t, 1, clk.count())
		assert.True(t, clk.last().stopped.Load())
	})
}

func TestSwitchMode(t *testing.T) {
	s, clk := start(t, testMap())
	ctx := context.Background()

	_, err := s.Reveal(ctx, mines.Point{Row: 0, Col: 8})
	require.NoError(t, err)
	clk.tick(t)

	snap, err := s.SwitchMode(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Mode)
	assert.Equal(t, mines.Setup, snap.State)
	assert.Equal(t, 3, snap.Rows)
	assert.Equal(t, 3, snap.Cols)
	assert.Zero(t, snap.Elapsed)
	assert.True(t, clk.last().stopped.Load())

	snap, err = s.SwitchMode(ctx, 3)
	require.ErrorIs(t, err, ErrNoSuchMode)
	assert.Equal(t, 1, snap.Mode)

	_, err = s.SwitchMode(ctx, -1)
	require.ErrorIs(t, err, ErrNoSuchMode)

	snap, err = s.SwitchMode(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, MessageEmptyLayout, snap.Message)
	assert.Zero(t, snap.MineCount)

	snap, err = s.Reveal(ctx, mines.Point{Row: 0, Col: 0})
	require.NoError(t, err)
	assert.Equal(t, mines.Setup, snap.State)
	assert.Equal(t, mines.Invalid, snap.Grid[0][0])
}

func TestRestart(t *testing.T) {
	s, clk := start(t, testMap())
	ctx := context.Background()

	_, err := s.Reveal(ctx, mines.Point{Row: 0, Col: 8})
	require.NoError(t, err)
	_, err = s.Reveal(ctx, mines.Point{Row: 0, Col: 6})
	require.NoError(t, err)

	snap, err := s.Restart(ctx)
	require.NoError(t, err)
	assert.Equal(t, mines.Setup, snap.State)
	assert.Equal(t, 0, snap.Mode)
	assert.Zero(t, snap.Elapsed)
	assert.Empty(t, snap.Message)
	for _, status := range snap.Grid[0] {
		assert.Equal(t, mines.Unknown, status)
	}

	_, err = s.Reveal(ctx, mines.Point{Row: 0, Col: 8})
	require.NoError(t, err)
	assert.Equal(t, 2, clk.count(), "a new round gets a new timer")
}

func TestSubscribe(t *testing.T) {
	s, clk := start(t, testMap())
	ctx := context.Background()

	updates, cancel, err := s.Subscribe(ctx)
	require.NoError(t, err)

	next := func() Snapshot {
		t.Helper()
		select {
		case snap, ok := <-updates:
			require.True(t, ok)
			return snap
		case <-time.After(time.Second):
			t.Fatal("no update")
			return Snapshot{}
		}
	}

	_, err = s.Reveal(ctx, mines.Point{Row: 0, Col: 8})
	require.NoError(t, err)
	assert.Equal(t, mines.Active, next().State, "only the latest snapshot is kept")

	clk.tick(t)
	assert.Equal(t, 1, next().Elapsed)

	cancel()
	_, ok := <-updates
	assert.False(t, ok)
}

func TestClosed(t *testing.T) {
	clk := &clock{}
	s, err := New("closed", testMap(), rand.New(lastSource{}), WithTicker(clk.NewTicker), WithLogger(quiet))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	updates, _, err := s.Subscribe(context.Background())
	require.NoError(t, err)
	<-updates

	before := s.LastActive()
	time.Sleep(time.Millisecond)
	_, err = s.Reveal(context.Background(), mines.Point{Row: 0, Col: 8})
	require.NoError(t, err)
	assert.True(t, s.LastActive().After(before))

	cancel()
	<-s.Done()
	assert.True(t, clk.last().stopped.Load())

	for range updates {
	}
	_, err = s.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
