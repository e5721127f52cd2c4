package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/taskline/internal/common"
	"github.com/dmitrijs2005/taskline/internal/server/mirror"
	"github.com/dmitrijs2005/taskline/internal/server/models"
	"github.com/google/uuid"
)

// MirrorHandler serves the read-only reporting endpoints. No bearer token is
// required; access is governed by the mirror's own key.
type MirrorHandler struct {
	Gateway mirror.Gateway
}

func NewMirrorHandler(g mirror.Gateway) *MirrorHandler {
	return &MirrorHandler{Gateway: g}
}

func mirrorError(what string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return ErrNotFoundWrap(what+" not found", err)
	}
	return fmt.Errorf("mirror: %w", err)
}

func (h *MirrorHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) error {
	skip, limit, err := queryWindow(r)
	if err != nil {
		return err
	}
	if err := common.ValidateWindow(skip, limit); err != nil {
		return err
	}

	page, err := h.Gateway.ListUsers(r.Context(), skip, limit)
	if err != nil {
		return mirrorError("User", err)
	}

	out := Page[mirror.User]{Data: page.Items, Count: page.Count}
	if out.Data == nil {
		out.Data = []mirror.User{}
	}
	RespondWithJSON(w, http.StatusOK, out)
	return nil
}

func (h *MirrorHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	user, err := h.Gateway.GetUser(r.Context(), id)
	if err != nil {
		return mirrorError("User", err)
	}

	RespondWithJSON(w, http.StatusOK, user)
	return nil
}

func (h *MirrorHandler) HandleListTasks(w http.ResponseWriter, r *http.Request) error {
	skip, limit, err := queryWindow(r)
	if err != nil {
		return err
	}
	if err := common.ValidateWindow(skip, limit); err != nil {
		return err
	}

	q := mirror.TaskQuery{Skip: skip, Limit: limit}
	if raw := r.URL.Query().Get("owner_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return common.Invalid("owner_id", "must be a valid UUID")
		}
		q.OwnerID = id.String()
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		if !models.TaskStatus(raw).Valid() {
			return common.Invalid("status", "must be one of todo, in_progress, completed")
		}
		q.Status = raw
	}

	page, err := h.Gateway.ListTasks(r.Context(), q)
	if err != nil {
		return mirrorError("Task", err)
	}

	out := Page[mirror.Task]{Data: page.Items, Count: page.Count}
	if out.Data == nil {
		out.Data = []mirror.Task{}
	}
	RespondWithJSON(w, http.StatusOK, out)
	return nil
}

func (h *MirrorHandler) HandleGetTask(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	task, err := h.Gateway.GetTask(r.Context(), id)
	if err != nil {
		return mirrorError("Task", err)
	}

	RespondWithJSON(w, http.StatusOK, task)
	return nil
}
