package middleware

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"tripRecapAPI/internal/logging"
)

const RequestIDHeader = "X-Request-ID"

const requestIDKey contextKey = "requestID"

// RequestLogger tags every request with an id, attaches a request scoped
// logger to the context and logs one line when the response is done.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		l := logging.Logger().With().Str("request_id", requestID).Logger()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = logging.WithContext(ctx, l)
		r = r.WithContext(ctx)

		ww := newResponseWriter(w)
		next.ServeHTTP(ww, r)

		event := l.Info()
		if ww.statusCode >= http.StatusInternalServerError {
			event = l.Error()
		} else if ww.statusCode >= http.StatusBadRequest {
			event = l.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.statusCode).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	})
}

func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// Recoverer turns a handler panic into a JSON 500 and logs the stack.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			panicsRecovered.Inc()
			logging.Ctx(r.Context()).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")
			respondWithError(w, http.StatusInternalServerError, "Internal server error")
		}()

		next.ServeHTTP(w, r)
	})
}
