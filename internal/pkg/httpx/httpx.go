// Package httpx holds the response helpers and middleware shared by every
// module's handlers.
package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/pkg/apperr"
	"github.com/georgemunganga/storefront-backend/internal/pkg/metrics"
)

// Respond writes body as JSON with the given status.
func Respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// Error writes err as a plain-text response using the taxonomy mapping.
// Unexpected failures are logged with op before the generic body is sent.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, op string, err error) {
	if !apperr.Expected(err) {
		log.Error("request failed",
			zap.String("op", op),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
	}
	http.Error(w, apperr.Body(err), apperr.Status(err))
}

// Decode reads a JSON request body into v. A malformed body is reported as
// an invalid payload.
func Decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Invalid("body", "Invalid request body")
	}
	return nil
}

// Body is embedded in request payloads decoded with DecodeDeferred. It holds
// the decode failure until the payload is validated, which happens after the
// caller was authorized.
type Body struct{ err error }

// BodyErr returns the decode failure, or nil.
func (b Body) BodyErr() error { return b.err }

// DecodeDeferred decodes like Decode but records the failure in body.
func DecodeDeferred(r *http.Request, v interface{}, body *Body) {
	body.err = Decode(r, v)
}

// Logging logs one line per request and records request metrics.
func Logging(log *zap.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			duration := time.Since(start)
			if m != nil {
				m.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
				m.HTTPDuration.WithLabelValues(r.Method).Observe(duration.Seconds())
			}
			log.Info("handled request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", duration),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
