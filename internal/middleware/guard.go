package middleware

import (
	"context"
	"net/http"
)

const LoginPath = "/login"

type Decision int

const (
	Allow Decision = iota
	RedirectLogin
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "redirect_login"
}

// Guard decides whether a protected view may render. It only reads the
// token store; navigation is left to the caller.
type Guard struct {
	store TokenStore
}

func NewGuard(store TokenStore) *Guard {
	return &Guard{store: store}
}

func (g *Guard) Check(ctx context.Context) Decision {
	if _, ok := g.store.Get(ctx); !ok {
		return RedirectLogin
	}
	return Allow
}

// Presence of a token in the session indicates auth
func (g *Guard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Check(r.Context()) == RedirectLogin {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}
