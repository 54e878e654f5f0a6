package rest

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/simaogato/portfolio-tracker/internal/domain"
	"github.com/simaogato/portfolio-tracker/internal/logging"
	"github.com/sirupsen/logrus"
)

func Healthcheck(w http.ResponseWriter, r *http.Request) {
	respond(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func respond(w http.ResponseWriter, data interface{}, status int) {
	res, err := json.Marshal(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(res)
}

// HandleErrors writes err as {"error": reason} with the status of its class
func HandleErrors(ctx context.Context, w http.ResponseWriter, err error) {
	var code int
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		respond(w, map[string]string{"error": "Request timed out"}, http.StatusGatewayTimeout)
		return
	case errors.Is(err, domain.ErrMalformedInput):
		code = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransaction), errors.Is(err, domain.ErrInvalidInput):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		code = http.StatusConflict
	default:
		logging.FromContext(ctx).WithError(err).Error("request failed")
		respond(w, map[string]string{"error": "internal error"}, http.StatusInternalServerError)
		return
	}

	message := err.Error()
	if reason, ok := domain.Reason(err); ok {
		message = reason
	}
	respond(w, map[string]string{"error": message}, code)
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	return domain.ParseID(chi.URLParam(r, name), name)
}

// requestLogger attaches a request-scoped logger to the context and logs each request once served
func requestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			entry := logger.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logging.WithLogger(r.Context(), entry)))

			entry.WithFields(logrus.Fields{
				"status":   ww.Status(),
				"duration": time.Since(start).String(),
			}).Info("request handled")
		})
	}
}

// requireToken rejects requests without "Authorization: Bearer <token>"; an empty token disables the check
func requireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			got := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				respond(w, map[string]string{"error": "invalid token"}, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
