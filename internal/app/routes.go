package app

import (
	"net/http"

	"github.com/vancomm/shapesweeper/internal/handlers"
)

func (a *App) loadRoutes() {
	maps := handlers.NewMapsHandler(a.logger, a.catalog)
	game := handlers.NewGameHandler(
		a.logger, a.sessions, a.cookies, a.jwt, a.ws,
	)

	a.router.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	a.router.HandleFunc("GET /maps", maps.List)
	a.router.HandleFunc("GET /maps/{name}", maps.Fetch)

	a.router.HandleFunc("POST /game", game.NewGame)
	a.router.HandleFunc("GET /game/{id}", game.Fetch)
	a.router.HandleFunc("DELETE /game/{id}", game.End)
	a.router.HandleFunc("POST /game/{id}/move", game.MakeAMove)
	a.router.HandleFunc("POST /game/{id}/mode", game.SwitchMode)
	a.router.HandleFunc("POST /game/{id}/restart", game.Restart)
	a.router.HandleFunc("GET /game/{id}/connect", game.Connect)
}
