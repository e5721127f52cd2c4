package mirror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/dmitrijs2005/taskline/internal/common"
)

// ErrNotConfigured is returned, wrapped together with
// common.ErrUpstreamUnavailable, when the mirror URL or key is missing.
var ErrNotConfigured = errors.New("mirror url and key must be set to use the mirror endpoints")

// Gateway is the read-only query surface of the mirror.
type Gateway interface {
	ListUsers(ctx context.Context, skip, limit int) (*UserPage, error)
	GetUser(ctx context.Context, id string) (*User, error)
	ListTasks(ctx context.Context, q TaskQuery) (*TaskPage, error)
	GetTask(ctx context.Context, id string) (*Task, error)
}

// Provider builds the Client on first use and keeps it for the life of the
// process. A missing URL or key is remembered too, so every call fails the
// same way without retrying construction.
type Provider struct {
	url        string
	key        string
	httpClient *http.Client

	once   sync.Once
	client *Client
	err    error
}

func NewProvider(url, key string, httpClient *http.Client) *Provider {
	return &Provider{url: url, key: key, httpClient: httpClient}
}

// Client returns the shared client.
func (p *Provider) Client() (*Client, error) {
	p.once.Do(func() {
		if p.url == "" || p.key == "" {
			p.err = fmt.Errorf("%w: %w", ErrNotConfigured, common.ErrUpstreamUnavailable)
			return
		}
		p.client = NewClient(p.url, p.key, p.httpClient)
	})
	return p.client, p.err
}

func (p *Provider) ListUsers(ctx context.Context, skip, limit int) (*UserPage, error) {
	c, err := p.Client()
	if err != nil {
		return nil, err
	}
	return c.ListUsers(ctx, skip, limit)
}

func (p *Provider) GetUser(ctx context.Context, id string) (*User, error) {
	c, err := p.Client()
	if err != nil {
		return nil, err
	}
	return c.GetUser(ctx, id)
}

func (p *Provider) ListTasks(ctx context.Context, q TaskQuery) (*TaskPage, error) {
	c, err := p.Client()
	if err != nil {
		return nil, err
	}
	return c.ListTasks(ctx, q)
}

func (p *Provider) GetTask(ctx context.Context, id string) (*Task, error) {
	c, err := p.Client()
	if err != nil {
		return nil, err
	}
	return c.GetTask(ctx, id)
}
