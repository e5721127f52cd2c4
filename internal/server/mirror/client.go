// Package mirror is a read-only gateway to the same users and tasks through a
// PostgREST-style HTTP API (Supabase). It performs no ownership checks.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskline/internal/common"
)

const (
	usersTable = "users"
	tasksTable = "tasks"

	userColumns = "id,email,full_name,is_active,is_superuser,created_at"
	taskColumns = "id,title,description,status,priority,due_date,created_at,updated_at,owner_id"

	defaultOrder = "created_at.asc,id.asc"
)

type Client struct {
	baseUrl    string
	key        string
	httpClient *http.Client
}

// NewClient returns a client for the project at baseUrl, authenticating with
// the project API key.
func NewClient(baseUrl, key string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseUrl:    strings.TrimRight(baseUrl, "/") + "/rest/v1",
		key:        key,
		httpClient: httpClient,
	}
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (c *Client) ListUsers(ctx context.Context, skip, limit int) (*UserPage, error) {
	var rows []User
	count, err := c.selectRange(ctx, usersTable, userColumns, nil, skip, limit, &rows)
	if err != nil {
		return nil, err
	}
	return &UserPage{Items: rows, Count: count}, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var rows []User
	if err := c.selectOne(ctx, usersTable, userColumns, id, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("user not found: %w", common.ErrorNotFound)
	}
	return &rows[0], nil
}

func (c *Client) ListTasks(ctx context.Context, q TaskQuery) (*TaskPage, error) {
	filters := url.Values{}
	if q.OwnerID != "" {
		filters.Set("owner_id", "eq."+q.OwnerID)
	}
	if q.Status != "" {
		filters.Set("status", "eq."+q.Status)
	}

	var rows []Task
	count, err := c.selectRange(ctx, tasksTable, taskColumns, filters, q.Skip, q.Limit, &rows)
	if err != nil {
		return nil, err
	}
	return &TaskPage{Items: rows, Count: count}, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	var rows []Task
	if err := c.selectOne(ctx, tasksTable, taskColumns, id, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("task not found: %w", common.ErrorNotFound)
	}
	return &rows[0], nil
}

func (c *Client) selectOne(ctx context.Context, table, columns, id string, out any) error {
	q := url.Values{}
	q.Set("select", columns)
	q.Set("id", "eq."+id)
	q.Set("limit", "1")

	_, err := c.get(ctx, table, q, nil, out)
	return err
}

// selectRange fetches rows [skip, skip+limit) in creation order together
// with the exact row count of the filtered table.
func (c *Client) selectRange(ctx context.Context, table, columns string, filters url.Values, skip, limit int, out any) (int, error) {
	if err := common.ValidateWindow(skip, limit); err != nil {
		return 0, err
	}

	q := url.Values{}
	for k, v := range filters {
		q[k] = v
	}
	q.Set("select", columns)
	q.Set("order", defaultOrder)

	headers := map[string]string{
		"Range-Unit": "items",
		"Range":      fmt.Sprintf("%d-%d", skip, skip+limit-1),
		"Prefer":     "count=exact",
	}

	resp, err := c.get(ctx, table, q, headers, out)
	if err != nil {
		return 0, err
	}

	count, err := parseContentRangeTotal(resp.Header.Get("Content-Range"))
	if err != nil {
		return 0, fmt.Errorf("mirror api: %v: %w", err, common.ErrUpstreamUnavailable)
	}
	return count, nil
}

func (c *Client) get(ctx context.Context, table string, q url.Values, headers map[string]string, out any) (*http.Response, error) {
	u := c.baseUrl + "/" + table + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mirror api: %v: %w", err, common.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mirror api: read body: %v: %w", err, common.ErrUpstreamUnavailable)
	}

	switch {
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
		// window starts past the last row; Content-Range still carries the total
		return resp, json.Unmarshal([]byte("[]"), out)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("mirror api error: %s: %w", apiErr.Message, common.ErrUpstreamUnavailable)
		}
		return nil, fmt.Errorf("mirror api error status %d: %w", resp.StatusCode, common.ErrUpstreamUnavailable)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("mirror api: decode: %v: %w", err, common.ErrUpstreamUnavailable)
	}
	return resp, nil
}

// parseContentRangeTotal extracts N from "0-24/N" or "*/N".
func parseContentRangeTotal(h string) (int, error) {
	_, total, ok := strings.Cut(h, "/")
	if !ok || total == "*" {
		return 0, errors.New("missing exact count in Content-Range")
	}
	n, err := strconv.Atoi(total)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid Content-Range %q", h)
	}
	return n, nil
}
