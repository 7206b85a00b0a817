package web

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"knotes/internal/auth"
	"knotes/internal/config"
)

// Auth gates every route behind HTTP basic auth. Credentials come either
// from an auth file of user:argon2id lines or from a single inline
// user/password pair. A nil *Auth means the server runs open.
type Auth struct {
	users map[string]*auth.Argon2idHash

	// inline credential fallback, compared in constant time
	user string
	pass string
}

func newAuth(cfg config.Config) (*Auth, error) {
	if cfg.AuthFile != "" {
		users, err := auth.LoadFile(cfg.AuthFile)
		if err != nil {
			return nil, fmt.Errorf("auth file: %w", err)
		}
		return &Auth{users: users}, nil
	}
	if cfg.AuthUser == "" && cfg.AuthPass == "" {
		return nil, nil
	}
	if cfg.AuthUser == "" || cfg.AuthPass == "" {
		return nil, fmt.Errorf("both auth user and password must be set")
	}
	return &Auth{user: cfg.AuthUser, pass: cfg.AuthPass}, nil
}

func (a *Auth) verify(user, pass string) bool {
	if a.users != nil {
		h, ok := a.users[user]
		if !ok {
			return false
		}
		return h.Verify(pass)
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.user)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(a.pass)) == 1
	return userOK && passOK
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !a.verify(user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="knotes"`)
			writeJSON(w, http.StatusUnauthorized, response{Code: http.StatusUnauthorized, Msg: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
