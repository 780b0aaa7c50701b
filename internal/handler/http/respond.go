package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/validator"
)

// respond writes data together with the notifications collected so far.
func respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	var notes any
	if c := notify.CollectorFromContext(r.Context()); c != nil {
		if n := c.Notifications(); len(n) > 0 {
			notes = n
		}
	}
	httputil.WriteData(w, status, data, notes)
}

// decode reads and validates a JSON body, writing the error response itself
// when it fails.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := validator.DecodeAndValidate(r, dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	httputil.WriteError(w, r, err, logger)
}

func owner(r *http.Request) string {
	return middleware.IdentityFromContext(r.Context()).Owner
}
