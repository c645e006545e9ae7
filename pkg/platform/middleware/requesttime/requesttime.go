// Package requesttime provides middleware for request-scoped time.
// Every operation within a single request (run record timestamps, sync
// markers, audit events) observes the same "now".
package requesttime

import (
	"net/http"

	"github.com/bellsc7/hrsyncad/pkg/platform/clock"
	"github.com/bellsc7/hrsyncad/pkg/requestcontext"
)

// Middleware captures clk.Now() at the start of the request and stores it
// in the context. A nil clock uses the fixed local offset clock.
func Middleware(clk clock.Clock) func(http.Handler) http.Handler {
	if clk == nil {
		clk = clock.Local{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), clk.Now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
