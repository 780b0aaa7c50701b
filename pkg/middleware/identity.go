package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
)

// SessionHeader carries the guest session id in both directions.
const SessionHeader = "X-Session-ID"

const (
	userPrefix  = "user:"
	guestPrefix = "guest:"
)

type identityKey struct{}

// Identity is who a request acts for.
type Identity struct {
	// Owner scopes persisted state: "user:<sub>" or "guest:<session>".
	Owner     string
	UserID    string
	SessionID string
}

// IsUser reports whether the request carried a valid bearer token.
func (i Identity) IsUser() bool { return i.UserID != "" }

// TokenValidator returns the subject of a valid bearer token.
type TokenValidator func(token string) (subject string, err error)

// ResolveIdentity resolves the owner of every request. A valid bearer token
// wins; otherwise a well-formed X-Session-ID is reused; otherwise a new
// session is minted and echoed in the response header. An invalid token is
// treated as absent.
func ResolveIdentity(validate TokenValidator, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id Identity

			if token, ok := bearerToken(r); ok && validate != nil {
				sub, err := validate(token)
				if err == nil && sub != "" {
					id.UserID = sub
					id.Owner = userPrefix + sub
				} else if err != nil {
					l.DebugContext(r.Context(), "ignoring invalid bearer token", slog.String("error", err.Error()))
				}
			}

			sid := r.Header.Get(SessionHeader)
			if _, err := uuid.Parse(sid); err != nil {
				sid = uuid.NewString()
			}
			id.SessionID = sid
			w.Header().Set(SessionHeader, sid)

			if id.Owner == "" {
				id.Owner = guestPrefix + sid
			}

			ctx := context.WithValue(r.Context(), identityKey{}, id)
			ctx = logger.WithOwner(ctx, id.Owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests without a signed-in owner.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IdentityFromContext(r.Context()).IsUser() {
			httputil.WriteError(w, r, apperrors.Unauthorized("sign in required"), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityFromContext returns the identity stored by ResolveIdentity.
func IdentityFromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}

// WithIdentity stores id in ctx. Handlers outside the HTTP stack use it.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return logger.WithOwner(context.WithValue(ctx, identityKey{}, id), id.Owner)
}

// GuestOwner returns the owner key for a guest session.
func GuestOwner(sessionID string) string { return guestPrefix + sessionID }

// UserOwner returns the owner key for a signed-in user.
func UserOwner(userID string) string { return userPrefix + userID }

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
