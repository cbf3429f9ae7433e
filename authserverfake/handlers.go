package authserverfake

import (
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/toolshop-apitest/internal/errors"
	"github.com/jrsteele09/toolshop-apitest/internal/utils"
	"github.com/jrsteele09/toolshop-apitest/oauthmodel"
	"github.com/jrsteele09/toolshop-apitest/users"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json"

func errorBody(msg string) oauthmodel.TokenResponse {
	return oauthmodel.TokenResponse{Error: utils.Ptr(msg)}
}

func messageBody(msg string) oauthmodel.TokenResponse {
	return oauthmodel.TokenResponse{Message: utils.Ptr(msg)}
}

// Login handles POST /users/login.
func (s *Server) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.count(func(st *Stats) { st.Logins++ })

		var creds oauthmodel.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("Invalid request body"))
			return
		}

		account, err := s.authenticate(creds)
		if err != nil {
			log.Debug().Err(err).Str("email", creds.Email).Msg("login rejected")
			writeJSON(w, http.StatusUnauthorized, errorBody("Unauthorized"))
			return
		}

		s.writeToken(w, account)
	}
}

// authenticate checks creds against the user repo. Every failure wraps ErrInvalidCredentials.
func (s *Server) authenticate(creds oauthmodel.Credentials) (*users.Account, error) {
	account, err := s.userRepo.GetByEmail(creds.Email)
	switch {
	case err != nil:
		return nil, apperrors.Wrapf(apperrors.ErrInvalidCredentials, "unknown email")
	case account.Blocked:
		return nil, apperrors.Wrapf(apperrors.ErrInvalidCredentials, "account blocked")
	case !account.CheckPassword(creds.Password):
		return nil, apperrors.Wrapf(apperrors.ErrInvalidCredentials, "password mismatch")
	}
	return account, nil
}

// Refresh handles GET /users/refresh. The presented token stays valid after a refresh.
func (s *Server) Refresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.count(func(st *Stats) { st.Refreshes++ })

		if canned, ok := s.nextCannedRefresh(); ok {
			w.Header().Set("Content-Type", contentTypeJSON)
			w.WriteHeader(canned.status)
			_, _ = w.Write([]byte(canned.body))
			return
		}

		account, _, err := s.verify(bearerToken(r))
		if err != nil {
			log.Debug().Err(err).Msg("refresh rejected")
			writeJSON(w, http.StatusUnauthorized, messageBody("Unauthorized"))
			return
		}

		s.writeToken(w, account)
	}
}

// Me handles GET /users/me.
func (s *Server) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.count(func(st *Stats) { st.Me++ })

		account, _, err := s.verify(bearerToken(r))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, messageBody("Unauthorized"))
			return
		}
		writeJSON(w, http.StatusOK, account.User)
	}
}

func (s *Server) writeToken(w http.ResponseWriter, account *users.Account) {
	signed, err := s.issueToken(account)
	if err != nil {
		log.Err(err).Msg("Failed to sign token")
		writeJSON(w, http.StatusInternalServerError, messageBody("Server Error"))
		return
	}

	writeJSON(w, http.StatusOK, oauthmodel.TokenResponse{
		AccessToken: &signed,
		TokenType:   "bearer",
		ExpiresIn:   utils.Ptr(s.expiresInSeconds()),
	})
}

func bearerToken(r *http.Request) string {
	fields := strings.Fields(r.Header.Get("Authorization"))
	if len(fields) != 2 || !strings.EqualFold(fields[0], "bearer") {
		return ""
	}
	return fields[1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to encode response")
	}
}
