package handlers

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vancomm/shapesweeper/internal/mines"
	"github.com/vancomm/shapesweeper/internal/session"
)

func iterBySep(s string, sep string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		i := 0
		found := true
		var piece string
		for found {
			piece, s, found = strings.Cut(s, sep)
			if !yield(i, piece) {
				return
			}
			i += 1
		}
	}
}

func parsePoint(args []string) (p mines.Point, err error) {
	if p.Row, err = strconv.Atoi(args[0]); err != nil {
		return p, fmt.Errorf("row must be an int")
	}
	if p.Col, err = strconv.Atoi(args[1]); err != nil {
		return p, fmt.Errorf("col must be an int")
	}
	return p, nil
}

var commandNargs = map[string]int{
	"g": 0,
	"o": 2,
	"f": 2,
	"c": 2,
	"m": 1,
	"n": 0,
}

// runCommand applies one websocket command line to s:
//
//	g        get
//	o r c    open
//	f r c    flag
//	c r c    chord
//	m i      switch to mode i
//	n        new round
func runCommand(ctx context.Context, s *session.Session, c string) error {
	parts := strings.Fields(c)
	if len(parts) == 0 {
		return nil
	}

	nargs, ok := commandNargs[parts[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", parts[0])
	}
	if nargs != len(parts)-1 {
		return fmt.Errorf("%s takes %d arguments", parts[0], nargs)
	}

	var err error
	switch parts[0] {
	case "g":
		_, err = s.Snapshot(ctx)
	case "o", "f", "c":
		p, perr := parsePoint(parts[1:])
		if perr != nil {
			return perr
		}
		switch parts[0] {
		case "o":
			_, err = s.Reveal(ctx, p)
		case "f":
			_, err = s.ToggleFlag(ctx, p)
		case "c":
			_, err = s.Chord(ctx, p)
		}
	case "m":
		mode, perr := strconv.Atoi(parts[1])
		if perr != nil {
			return fmt.Errorf("mode must be an int")
		}
		_, err = s.SwitchMode(ctx, mode)
	case "n":
		_, err = s.Restart(ctx)
	}
	return err
}

// Connect streams the session over a websocket. Every change and every
// timer tick is pushed as a snapshot; errors come back as {"error": ...}.
func (g GameHandler) Connect(w http.ResponseWriter, r *http.Request) {
	s, ok := g.session(w, r)
	if !ok {
		return
	}

	c, err := g.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("unable to upgrade", slog.Any("error", err))
		return
	}
	defer c.Close()

	logger := g.logger.With(slog.String("session", s.ID))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, unsubscribe, err := s.Subscribe(ctx)
	if err != nil {
		logger.Warn("unable to subscribe", slog.Any("error", err))
		return
	}
	defer unsubscribe()

	var mu sync.Mutex
	write := func(v any) error {
		mu.Lock()
		defer mu.Unlock()
		c.SetWriteDeadline(time.Now().Add(g.ws.WriteTimeout))
		return c.WriteJSON(v)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-updates:
				if !ok {
					mu.Lock()
					c.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
						time.Now().Add(g.ws.WriteTimeout),
					)
					mu.Unlock()
					c.Close()
					return
				}
				if err := write(snap); err != nil {
					logger.Debug("unable to write snapshot", slog.Any("error", err))
					c.Close()
					return
				}
			}
		}
	}()
	defer wg.Wait()
	defer cancel()

	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("ws closed", slog.Any("error", err))
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		text := strings.TrimSpace(string(message))
		logger.Debug("ws command", slog.String("text", text))
		for _, line := range iterBySep(text, "\n") {
			if err := runCommand(ctx, s, line); err != nil {
				if err := write(wrapError(err)); err != nil {
					return
				}
				break
			}
		}
	}
}
