package mirror

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/taskline/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "anon-key", srv.Client())
}

func TestListUsers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/users", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		assert.Equal(t, "10-14", r.Header.Get("Range"))
		assert.Equal(t, "count=exact", r.Header.Get("Prefer"))

		q := r.URL.Query()
		assert.Equal(t, "id,email,full_name,is_active,is_superuser,created_at", q.Get("select"))
		assert.NotContains(t, q.Get("select"), "hashed_password")
		assert.Equal(t, "created_at.asc,id.asc", q.Get("order"))

		w.Header().Set("Content-Range", "10-11/12")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte(`[
			{"id":"u1","email":"a@example.com","full_name":null,"is_active":true,"is_superuser":false,"created_at":"2025-01-01T00:00:00+00:00"},
			{"id":"u2","email":"b@example.com","full_name":"Bee","is_active":true,"is_superuser":true,"created_at":"2025-01-02T00:00:00+00:00"}
		]`))
	})

	page, err := c.ListUsers(context.Background(), 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 12, page.Count)
	require.Len(t, page.Items, 2)
	assert.Nil(t, page.Items[0].FullName)
	require.NotNil(t, page.Items[1].FullName)
	assert.Equal(t, "Bee", *page.Items[1].FullName)
	assert.True(t, page.Items[1].IsSuperuser)
}

func TestListTasks_Filters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/tasks", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "eq.owner-1", q.Get("owner_id"))
		assert.Equal(t, "eq.todo", q.Get("status"))
		assert.Equal(t, "0-99", r.Header.Get("Range"))

		w.Header().Set("Content-Range", "0-0/1")
		_, _ = w.Write([]byte(`[{"id":"t1","title":"T","description":null,"status":"todo","priority":"high","due_date":null,"created_at":"x","updated_at":"y","owner_id":"owner-1"}]`))
	})

	page, err := c.ListTasks(context.Background(), TaskQuery{Skip: 0, Limit: 100, OwnerID: "owner-1", Status: "todo"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "high", page.Items[0].Priority)
}

func TestListTasks_NoFilters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Empty(t, q.Get("owner_id"))
		assert.Empty(t, q.Get("status"))
		w.Header().Set("Content-Range", "*/0")
		_, _ = w.Write([]byte(`[]`))
	})

	page, err := c.ListTasks(context.Background(), TaskQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Count)
	assert.Empty(t, page.Items)
}

func TestListTasks_WindowPastEnd(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Range", "*/3")
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		_, _ = w.Write([]byte(`{"message":"Requested range not satisfiable"}`))
	})

	page, err := c.ListTasks(context.Background(), TaskQuery{Skip: 50, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Count)
	assert.Empty(t, page.Items)
}

func TestGetUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("limit"))
		switch q.Get("id") {
		case "eq.u1":
			_, _ = w.Write([]byte(`[{"id":"u1","email":"a@example.com","is_active":true}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	})

	u, err := c.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)

	_, err = c.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetTask_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/tasks", r.URL.Path)
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.GetTask(context.Background(), "t1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		msg     string
	}{
		{
			name: "api error with message",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"message":"relation \"public.tasks\" does not exist","code":"42P01"}`))
			},
			msg: "does not exist",
		},
		{
			name: "opaque error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`<html>oops</html>`))
			},
			msg: "status 500",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Range", "0-0/1")
				_, _ = w.Write([]byte(`{not json`))
			},
			msg: "decode",
		},
		{
			name: "missing count",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[]`))
			},
			msg: "Content-Range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.ListTasks(context.Background(), TaskQuery{Limit: 10})
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestListUsers_WindowOutOfRange(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := c.ListUsers(context.Background(), math.MaxInt, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.NotErrorIs(t, err, common.ErrUpstreamUnavailable)

	_, err = c.ListTasks(context.Background(), TaskQuery{Skip: 0, Limit: 0})
	assert.ErrorIs(t, err, common.ErrorValidation)

	assert.Zero(t, calls.Load())
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, "k", nil)
	_, err := c.GetUser(context.Background(), "u1")
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
}

func TestParseContentRangeTotal(t *testing.T) {
	n, err := parseContentRangeTotal("0-24/573")
	require.NoError(t, err)
	assert.Equal(t, 573, n)

	n, err = parseContentRangeTotal("*/0")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for _, bad := range []string{"", "0-24/*", "0-24/abc", "0-24"} {
		_, err := parseContentRangeTotal(bad)
		assert.Error(t, err, bad)
	}
}

func TestProvider_NotConfigured(t *testing.T) {
	p := NewProvider("", "key", nil)

	_, err := p.ListUsers(context.Background(), 0, 10)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)

	_, err = p.GetTask(context.Background(), "t1")
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestProvider_BuildsClientOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Range", "*/0")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "key", srv.Client())

	c1, err := p.Client()
	require.NoError(t, err)
	c2, err := p.Client()
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	_, err = p.ListTasks(context.Background(), TaskQuery{Limit: 5})
	require.NoError(t, err)
	_, err = p.ListUsers(context.Background(), 0, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 2, hits.Load())

	var _ Gateway = p
}
