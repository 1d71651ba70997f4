package chi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/folioworks/folio/internal/config"
	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/logger"
)

type adminKey struct{}

func isAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(adminKey{}).(bool)
	return admin
}

// ActorMiddleware resolves the request actor from a Bearer token. Requests
// without a valid token proceed as the anonymous actor rather than being
// rejected; actor-dependent behavior degrades instead of erroring.
func ActorMiddleware(auth config.AuthConfig) func(http.Handler) http.Handler {
	users := make(map[string]int64, len(auth.Tokens))
	for _, t := range auth.Tokens {
		if t.Token != "" {
			users[t.Token] = t.UserID
		}
	}
	admins := make(map[string]struct{}, len(auth.AdminTokens))
	for _, t := range auth.AdminTokens {
		if t != "" {
			admins[t] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				next.ServeHTTP(w, r)
				return
			}
			token := header[len(bearerPrefix):]

			ctx := r.Context()
			if id, ok := users[token]; ok {
				ctx = domain.ContextWithActor(ctx, domain.Actor{ID: id})
			}
			if _, ok := admins[token]; ok {
				ctx = context.WithValue(ctx, adminKey{}, true)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger assigns each request an id, stores a request-scoped logger
// in the context, and logs completions.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.NewString()

			reqLog := log.With(zap.String("request_id", requestID))
			ctx := logger.ContextWithLogger(r.Context(), reqLog)

			ww := &loggingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLog.Debug("request handled",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Duration("took", time.Since(start)),
			)
		})
	}
}

type loggingWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *loggingWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}
