package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/vancomm/shapesweeper/internal/config"
	"github.com/vancomm/shapesweeper/internal/middleware"
	"github.com/vancomm/shapesweeper/internal/session"
)

var ErrNotOwner = errors.New("session belongs to another client")

type GameHandler struct {
	logger   *slog.Logger
	sessions *session.Manager
	cookies  *config.Cookies
	jwt      *config.JWT
	ws       *config.WebSocket
}

func NewGameHandler(
	logger *slog.Logger,
	sessions *session.Manager,
	cookies *config.Cookies,
	jwt *config.JWT,
	ws *config.WebSocket,
) *GameHandler {
	return &GameHandler{
		logger:   logger,
		sessions: sessions,
		cookies:  cookies,
		jwt:      jwt,
		ws:       ws,
	}
}

func (g GameHandler) NewGame(w http.ResponseWriter, r *http.Request) {
	dto, err := ParseCreateGameDTO(r.URL.Query())
	if err != nil {
		badRequest(w, g.logger, err)
		return
	}

	s, err := g.sessions.Create(r.Context(), dto.Map, dto.Mode)
	if err != nil {
		sendError(w, g.logger, err)
		return
	}

	token, err := g.jwt.Sign(s.ID)
	if err != nil {
		g.sessions.Remove(s.ID)
		sendError(w, g.logger, err)
		return
	}

	snap, err := s.Snapshot(r.Context())
	if err != nil {
		sendError(w, g.logger, err)
		return
	}

	g.cookies.Set(w, token, g.jwt.Lifetime())
	w.Header().Set(middleware.SessionTokenHeader, token)
	sendJSONOrLog(w, g.logger, snap)
}

// session finds the session named in the path and checks that the request
// carries its token.
func (g GameHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := g.sessions.Get(r.PathValue("id"))
	if err != nil {
		sendError(w, g.logger, err)
		return nil, false
	}
	claims, ok := middleware.SessionClaims(r.Context())
	if !ok || claims.SessionID != s.ID {
		w.WriteHeader(http.StatusUnauthorized)
		sendJSONOrLog(w, g.logger, wrapError(ErrNotOwner))
		return nil, false
	}
	return s, true
}

func (g GameHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	s, ok := g.session(w, r)
	if !ok {
		return
	}
	snap, err := s.Snapshot(r.Context())
	if err != nil {
		sendError(w, g.logger, err)
		return
	}
	sendJSONOrLog(w, g.logger, snap)
}

func (g GameHandler) MakeAMove(w http.ResponseWriter, r *http.Request) {
	dto, err := ParseMoveDTO(r.URL.Query())
	if err != nil {
		badRequest(w, g.logger, err)
		return
	}
	move, err := ParseGameMove(dto.Move)
	if err != nil {
		badRequest(w, g.logger, err)
		return
	}

	s, ok := g.session(w, r)
	if !ok {
		return
	}

	var snap session.Snapshot
	switch move {
	case Open:
		snap, err = s.Reveal(r.Context(), dto.Point())
	case Flag:
		snap, err = s.ToggleFlag(r.Context(), dto.Point())
	case Chord:
		snap, err = s.Chord(r.Context(), dto.Point())
	}
	if err != nil {
		sendError(w, g.logger, err)
		return
	}
	sendJSONOrLog(w, g.logger, snap)
}

func (g GameHandler) SwitchMode(w http.ResponseWriter, r *http.Request) {
	dto, err := ParseModeDTO(r.URL.Query())
	if err != nil {
		badRequest(w, g.logger, err)
		return
	}

	s, ok := g.session(w, r)
	if !ok {
		return
	}

	snap, err := s.SwitchMode(r.Context(), dto.Mode)
	if err != nil {
		sendError(w, g.logger, err)
		return
	}
	sendJSONOrLog(w, g.logger, snap)
}

func (g GameHandler) Restart(w http.ResponseWriter, r *http.Request) {
	s, ok := g.session(w, r)
	if !ok {
		return
	}
	snap, err := s.Restart(r.Context())
	if err != nil {
		sendError(w, g.logger, err)
		return
	}
	sendJSONOrLog(w, g.logger, snap)
}

func (g GameHandler) End(w http.ResponseWriter, r *http.Request) {
	s, ok := g.session(w, r)
	if !ok {
		return
	}
	g.sessions.Remove(s.ID)
	g.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
