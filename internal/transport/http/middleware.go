package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"quiz-studio/internal/app"
	"quiz-studio/internal/domain"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	clientCookie = "quiz_client"
	clientHeader = "X-Client-ID"
)

type ctxKey int

const (
	clientIDKey ctxKey = iota
	authorKey
)

// withClientID assigns every browser an opaque id kept in a long-lived cookie.
// Non-browser clients may send X-Client-ID instead.
func withClientID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(clientHeader)
		if id == "" {
			if c, err := r.Cookie(clientCookie); err == nil {
				id = c.Value
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     clientCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int((365 * 24 * time.Hour).Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIDKey, id)))
	})
}

func clientID(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey).(string)
	return id
}

// requireAuthor blocks the request with 428 until the client has saved a display name.
func requireAuthor(identity *app.IdentityService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			author, err := identity.Require(r.Context(), clientID(r.Context()))
			if err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), authorKey, author)))
		})
	}
}

func authorFrom(ctx context.Context) domain.Author {
	author, _ := ctx.Value(authorKey).(domain.Author)
	return author
}

// requestLogger logs one structured line per request.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			if ww.Status() >= 500 {
				level = slog.LevelError
			} else if ww.Status() >= 400 {
				level = slog.LevelWarn
			}
			log.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).String(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
