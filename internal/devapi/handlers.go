package devapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse is the public view of an account
type UserResponse struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, map[string]string{"status": "ok"}, http.StatusOK)
	}
}

// TokenHandler authenticates with Basic credentials, or a JSON body when no Basic header is sent,
// and issues the credential in the access_token header and the session cookie.
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			var req loginRequest
			if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
				respondError(w, "must provide valid email and password for authentication", http.StatusUnauthorized)
				return
			}
			username, password = req.Username, req.Password
		}

		account, err := s.accounts.Authenticate(username, password)
		if err != nil {
			log.Debug().Err(err).Str("username", username).Msg("devapi: authentication failed")
			respondError(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		token, err := s.issuer.Issue(account)
		if err != nil {
			log.Err(err).Msg("devapi: failed to issue credential")
			respondError(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set(TokenHeader, token)
		w.Header().Set("Access-Control-Expose-Headers", TokenHeader)
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    token,
			MaxAge:   int(s.issuer.expiry.Seconds()),
			HttpOnly: true,
			Path:     "/v1/",
		})
		respond(w, "YOUR ACCESS WAS GRANTED", http.StatusOK)
	}
}

// MeHandler returns the account behind a Bearer credential
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			respondError(w, "missing bearer credential", http.StatusUnauthorized)
			return
		}

		claims, err := s.issuer.Verify(parts[1])
		if err != nil {
			respondError(w, "invalid credential", http.StatusUnauthorized)
			return
		}

		sub, _ := claims["sub"].(string)
		account, err := s.accounts.GetByID(sub)
		if err != nil {
			respondError(w, "user not found", http.StatusNotFound)
			return
		}

		respond(w, UserResponse{
			ID:    account.ID,
			Name:  account.Name,
			Email: account.Email,
			Roles: account.Roles,
		}, http.StatusOK)
	}
}
