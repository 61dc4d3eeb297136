package devapi

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Server is an in-process stand in for the remote book-library API.
// It only implements what the session layer talks to.
type Server struct {
	mux      *http.ServeMux
	accounts *Accounts
	issuer   *Issuer
}

func New(accounts *Accounts, issuer *Issuer) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		accounts: accounts,
		issuer:   issuer,
	}
	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
}

func respond(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Err(err).Msg("devapi: failed to encode response")
	}
}

func respondError(w http.ResponseWriter, message string, statusCode int) {
	respond(w, errorResponse{Error: message}, statusCode)
}
