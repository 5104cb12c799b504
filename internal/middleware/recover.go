package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/mtpultz/goal-digger/internal/ctxkeys"
)

// Recover turns a panic in a handler into a 500 response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			slog.Error("panic serving request",
				"panic", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", ctxkeys.RequestID(r.Context()),
				"stack", string(debug.Stack()),
			)
			writeMessage(w, http.StatusInternalServerError, "Internal server error.")
		}()

		next.ServeHTTP(w, r)
	})
}
