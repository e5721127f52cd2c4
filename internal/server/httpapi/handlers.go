package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/taskline/internal/common"
	"github.com/dmitrijs2005/taskline/internal/logging"
	"github.com/dmitrijs2005/taskline/internal/server/mirror"
	"github.com/dmitrijs2005/taskline/internal/server/storage"
	"github.com/go-chi/chi/v5/middleware"
)

// AppHandler is a handler that reports failure by returning an error.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

// MakeHandler adapts an AppHandler to http.HandlerFunc. A returned error is
// logged and rendered as {"detail": ...} with the status from errorStatus.
func MakeHandler(log logging.Logger, handler AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ww, ok := w.(middleware.WrapResponseWriter)
		if !ok {
			ww = middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		}

		err := handler(ww, r)
		if err == nil {
			return
		}

		code, message := errorStatus(err)
		args := []any{"code", code, "path", r.URL.Path, "method", r.Method, "error", err}
		switch {
		case code >= http.StatusInternalServerError:
			log.Error(r.Context(), "request failed", args...)
		default:
			log.Warn(r.Context(), "client error response", args...)
		}

		if ww.Status() != 0 {
			log.Warn(r.Context(), "handler returned error after writing response header", "path", r.URL.Path, "error", err)
			return
		}

		if code == http.StatusUnauthorized {
			ww.Header().Set(common.AuthenticateHeaderName, common.BearerScheme)
		}
		RespondWithError(ww, code, message)
	}
}

// errorStatus maps an error returned by a handler or a service to a status
// code and the message shown to the client.
func errorStatus(err error) (int, string) {
	var httpErr *HTTPError
	var fieldErr *common.FieldError

	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code, httpErr.Message
	case errors.As(err, &fieldErr):
		return http.StatusUnprocessableEntity, fieldErr.Error()
	case errors.Is(err, common.ErrorValidation):
		return http.StatusUnprocessableEntity, msgUnprocessableEntity
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, msgUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, msgForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict, msgConflict
	case errors.Is(err, mirror.ErrNotConfigured), errors.Is(err, storage.ErrNotConfigured):
		return http.StatusServiceUnavailable, msgServiceUnavailable
	case errors.Is(err, common.ErrUpstreamUnavailable):
		return http.StatusBadGateway, msgBadGateway
	default:
		return http.StatusInternalServerError, msgInternalServer
	}
}
