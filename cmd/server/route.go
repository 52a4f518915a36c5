package main

import (
	"net/http"

	"github.com/matryer/way"
)

const URI_HEALTH = "/"

func (s *Server) routes() {
	s.router = way.NewRouter()
	s.GameServer.Routes(s.router)
	s.router.HandleFunc("GET", URI_HEALTH, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
}
