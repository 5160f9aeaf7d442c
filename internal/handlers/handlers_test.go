package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/shapesweeper/internal/catalog"
	"github.com/vancomm/shapesweeper/internal/config"
	"github.com/vancomm/shapesweeper/internal/middleware"
	"github.com/vancomm/shapesweeper/internal/mines"
	"github.com/vancomm/shapesweeper/internal/session"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// Opening the middle of a five cell row always wins: the only mine sits on
// one end and the flood reaches the other.
func testCatalog() *catalog.Static {
	return catalog.NewStatic([]catalog.Map{
		{
			Name: "Row",
			Img:  "row.png",
			Modes: []catalog.Mode{
				{Index: 0, Grid: mines.ParseLayout("#####").Markers()},
				{Index: 1, Grid: mines.ParseLayout("###\n###").Markers()},
			},
		},
		{Name: "Bare"},
	})
}

type testServer struct {
	handler  http.Handler
	sessions *session.Manager
	jwt      *config.JWT
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cat := testCatalog()
	sessions := session.NewManager(quiet, cat, time.Minute)
	t.Cleanup(sessions.Close)

	cookies := &config.Cookies{SameSite: http.SameSiteLaxMode}
	jwt := config.NewJWTWithSecret([]byte("test secret"), time.Hour)
	ws, err := config.NewWebSocket()
	require.NoError(t, err)

	maps := NewMapsHandler(quiet, cat)
	game := NewGameHandler(quiet, sessions, cookies, jwt, ws)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /maps", maps.List)
	mux.HandleFunc("GET /maps/{name}", maps.Fetch)
	mux.HandleFunc("POST /game", game.NewGame)
	mux.HandleFunc("GET /game/{id}", game.Fetch)
	mux.HandleFunc("POST /game/{id}/move", game.MakeAMove)
	mux.HandleFunc("POST /game/{id}/mode", game.SwitchMode)
	mux.HandleFunc("POST /game/{id}/restart", game.Restart)
	mux.HandleFunc("DELETE /game/{id}", game.End)
	mux.HandleFunc("GET /game/{id}/connect", game.Connect)

	return &testServer{
		handler:  middleware.Wrap(mux, middleware.Auth(quiet, cookies, jwt)),
		sessions: sessions,
		jwt:      jwt,
	}
}

func (s *testServer) do(t *testing.T, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// create starts a game on Row and returns its snapshot and token.
func (s *testServer) create(t *testing.T, query string) (session.Snapshot, string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/game?"+query, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := rec.Header().Get(middleware.SessionTokenHeader)
	require.NotEmpty(t, token)
	return decodeSnapshot(t, rec), token
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) session.Snapshot {
	t.Helper()
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap), rec.Body.String())
	return snap
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body["error"]
}

func TestMaps(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/maps", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var gallery []MapSummaryDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &gallery))
	assert.Equal(t, []MapSummaryDTO{
		{Name: "Row", Img: "row.png", Modes: 2},
		{Name: "Bare", Modes: 0},
	}, gallery)

	rec = srv.do(t, http.MethodGet, "/maps/row", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail MapDetailDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "Row", detail.Name)
	assert.Equal(t, []ModeDetailDTO{
		{Mode: 0, Rows: 1, Cols: 5, Cells: 5, MineCount: 1},
		{Mode: 1, Rows: 2, Cols: 3, Cells: 6, MineCount: 1},
	}, detail.Modes)

	rec = srv.do(t, http.MethodGet, "/maps/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeError(t, rec), "map not found")
}

func TestMapsEmptyCatalog(t *testing.T) {
	h := NewMapsHandler(quiet, catalog.NewStatic(nil))
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/maps", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestNewGame(t *testing.T) {
	srv := newTestServer(t)

	snap, token := srv.create(t, "map=row")
	assert.Equal(t, "Row", snap.Map)
	assert.Equal(t, 0, snap.Mode)
	assert.Equal(t, 2, snap.ModeCount)
	assert.Equal(t, mines.Setup, snap.State)
	assert.Equal(t, 1, snap.MineCount)

	claims, err := srv.jwt.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, snap.SessionID, claims.SessionID)

	rec := srv.do(t, http.MethodPost, "/game?map=row&mode=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeSnapshot(t, rec).Mode)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, config.SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	tests := []struct {
		query  string
		status int
	}{
		{"", http.StatusBadRequest},
		{"map=row&mode=x", http.StatusBadRequest},
		{"map=nowhere", http.StatusNotFound},
		{"map=bare", http.StatusUnprocessableEntity},
		{"map=row&mode=2", http.StatusUnprocessableEntity},
	}
	for _, test := range tests {
		t.Run(test.query, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/game?"+test.query, "")
			assert.Equal(t, test.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeError(t, rec))
		})
	}
	assert.Equal(t, 2, srv.sessions.Len())
}

func TestOwnership(t *testing.T) {
	srv := newTestServer(t)
	snap, token := srv.create(t, "map=row")
	_, otherToken := srv.create(t, "map=row")

	path := "/game/" + snap.SessionID

	rec := srv.do(t, http.MethodGet, path, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, path, otherToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, path, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/game/unknown", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, path, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, snap.SessionID, decodeSnapshot(t, rec).SessionID)
}

func TestMakeAMove(t *testing.T) {
	srv := newTestServer(t)
	snap, token := srv.create(t, "map=row")
	path := "/game/" + snap.SessionID + "/move?"

	rec := srv.do(t, http.MethodPost, path+"move=flag&row=0&col=0", token)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeSnapshot(t, rec)
	assert.Equal(t, mines.Flag, got.Grid[0][0])
	assert.Equal(t, 0, got.MinesLeft)
	assert.Equal(t, mines.Setup, got.State)

	rec = srv.do(t, http.MethodPost, path+"move=flag&row=0&col=0", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mines.Unknown, decodeSnapshot(t, rec).Grid[0][0])

	rec = srv.do(t, http.MethodPost, path+"move=open&row=9&col=9", token)
	require.Equal(t, http.StatusOK, rec.Code, "out of range cells are ignored")
	assert.Equal(t, mines.Setup, decodeSnapshot(t, rec).State)

	rec = srv.do(t, http.MethodPost, path+"move=OPEN&row=0&col=2", token)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decodeSnapshot(t, rec)
	assert.Equal(t, mines.Won, got.State)
	assert.Equal(t, session.MessageWin, got.Message)

	for _, query := range []string{
		"move=jump&row=0&col=0",
		"move=open&row=0",
		"row=0&col=0",
		"move=open&row=a&col=0",
	} {
		rec = srv.do(t, http.MethodPost, path+query, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestSwitchModeAndRestart(t *testing.T) {
	srv := newTestServer(t)
	snap, token := srv.create(t, "map=row")
	base := "/game/" + snap.SessionID

	rec := srv.do(t, http.MethodPost, base+"/mode?mode=1", token)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeSnapshot(t, rec)
	assert.Equal(t, 1, got.Mode)
	assert.Equal(t, 2, got.Rows)
	assert.Equal(t, 3, got.Cols)

	rec = srv.do(t, http.MethodPost, base+"/mode?mode=7", token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = srv.do(t, http.MethodPost, base+"/mode", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPost, base+"/move?move=flag&row=1&col=1", token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodPost, base+"/restart", token)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decodeSnapshot(t, rec)
	assert.Equal(t, 1, got.Mode)
	assert.Equal(t, mines.Unknown, got.Grid[1][1])
	assert.Equal(t, mines.Setup, got.State)
}

func TestEnd(t *testing.T) {
	srv := newTestServer(t)
	snap, token := srv.create(t, "map=row")
	path := "/game/" + snap.SessionID

	rec := srv.do(t, http.MethodDelete, path, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, srv.sessions.Len())

	rec = srv.do(t, http.MethodGet, path, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type wsMessage struct {
	session.Snapshot
	Error string `json:"error"`
}

func TestConnect(t *testing.T) {
	srv := newTestServer(t)
	snap, token := srv.create(t, "map=row")

	ts := httptest.NewServer(srv.handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/game/" + snap.SessionID + "/connect"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	// read returns the first message matching ok.
	read := func(ok func(wsMessage) bool) wsMessage {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		for {
			var msg wsMessage
			require.NoError(t, conn.ReadJSON(&msg))
			if ok(msg) {
				return msg
			}
		}
	}

	msg := read(func(m wsMessage) bool { return m.SessionID != "" })
	assert.Equal(t, mines.Setup, msg.State)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("f 0 0\ng")))
	msg = read(func(m wsMessage) bool { return m.Grid != nil && m.Grid[0][0] == mines.Flag })
	assert.Equal(t, 0, msg.MinesLeft)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("x 1")))
	msg = read(func(m wsMessage) bool { return m.Error != "" })
	assert.Contains(t, msg.Error, "unknown command")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("m 4")))
	msg = read(func(m wsMessage) bool { return m.Error != "" })
	assert.Contains(t, msg.Error, "no such mode")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("f 0 0\no 0 2")))
	msg = read(func(m wsMessage) bool { return m.State == mines.Won })
	assert.Equal(t, session.MessageWin, msg.Message)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("m 1")))
	msg = read(func(m wsMessage) bool { return m.Mode == 1 })
	assert.Equal(t, mines.Setup, msg.State)

	srv.sessions.Remove(snap.SessionID)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())
			break
		}
	}
}

func TestRunCommandArgs(t *testing.T) {
	tests := []struct {
		line string
		err  string
	}{
		{"o 1", "o takes 2 arguments"},
		{"g 1", "g takes 0 arguments"},
		{"o a 1", "row must be an int"},
		{"f 1 b", "col must be an int"},
		{"m z", "mode must be an int"},
		{"q", "unknown command"},
	}
	for _, test := range tests {
		t.Run(test.line, func(t *testing.T) {
			err := runCommand(context.Background(), nil, test.line)
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.err)
		})
	}
	assert.NoError(t, runCommand(context.Background(), nil, "   "))
}

func TestIterBySep(t *testing.T) {
	var got []string
	for _, piece := range iterBySep("a\nb\n\nc", "\n") {
		got = append(got, piece)
	}
	assert.Equal(t, []string{"a", "b", "", "c"}, got)
}
