package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskline/internal/common"
	"github.com/dmitrijs2005/taskline/internal/logging"
	"github.com/dmitrijs2005/taskline/internal/server/models"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey int

const currentUserKey ctxKey = iota

// CurrentUser returns the authenticated user stored by RequireUser.
func CurrentUser(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(currentUserKey).(*models.User)
	return u, ok && u != nil
}

func withCurrentUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get(common.AuthorizationHeaderName)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireUser rejects requests without a valid bearer token and stores the
// resolved user in the request context.
func RequireUser(log logging.Logger, auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return MakeHandler(log, func(w http.ResponseWriter, r *http.Request) error {
			token, ok := bearerToken(r)
			if !ok {
				return ErrUnauthorized("Not authenticated")
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				return err
			}

			ctx := logging.WithUserID(withCurrentUser(r.Context(), user), user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return nil
		})
	}
}

// RequestLogger logs one line per request and tags the context with the
// request id for every record logged while serving it.
func RequestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			r = r.WithContext(logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context())))

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
