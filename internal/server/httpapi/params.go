package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/taskline/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const paramID = "id"

const maxBodyBytes = 1 << 20

// decodeJSON reads one JSON document from the request body into dst.
// Unknown fields are ignored.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrUnprocessableEntity("request body is required")
		}
		return ErrUnprocessableEntityWrap("Invalid request payload: "+err.Error(), err)
	}
	return nil
}

// pathID returns the {id} path parameter, rejecting anything that is not a
// UUID.
func pathID(r *http.Request) (string, error) {
	raw := chi.URLParam(r, paramID)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrUnprocessableEntityWrap("id: must be a valid UUID", err)
	}
	return id.String(), nil
}

// queryWindow reads skip and limit. Absent values take the defaults; range
// checks are left to the caller.
func queryWindow(r *http.Request) (skip, limit int, err error) {
	skip, err = queryInt(r, "skip", 0)
	if err != nil {
		return 0, 0, err
	}
	limit, err = queryInt(r, "limit", common.DefaultPageLimit)
	if err != nil {
		return 0, 0, err
	}
	return skip, limit, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrUnprocessableEntityWrap(name+": must be an integer", err)
	}
	return v, nil
}
