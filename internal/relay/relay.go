// Package relay hands a page's ambient credentials to the download session.
//
// A Relay sits next to a page context (a live browser tab, a cookie store,
// or static values) and answers exactly one kind of request, GetAuth, with an
// immutable AuthSnapshot. The relay never performs network calls itself.
package relay

import (
	"context"
	"errors"
	"maps"
)

// ErrNoAuthReturned means the relay went away before answering.
var ErrNoAuthReturned = errors.New("no auth returned")

// AuthSnapshot is the credential bundle captured from a page.
type AuthSnapshot struct {
	// Cookies is the raw Cookie header value the page sees.
	Cookies string `json:"cookies"`
	// Headers are the default headers of the page's API client, if any.
	Headers map[string]string `json:"headers"`
	// Origin is the page's scheme and host.
	Origin string `json:"origin"`
}

// Clone returns a deep copy so callers cannot mutate a served snapshot.
func (s AuthSnapshot) Clone() AuthSnapshot {
	h := make(map[string]string, len(s.Headers))
	maps.Copy(h, s.Headers)
	s.Headers = h
	return s
}

// PageContext is the page state a relay reads from.
type PageContext interface {
	Origin() string
	Cookies() string
}

// HeaderSource is the optional in-page API client whose default headers are
// copied into the snapshot.
type HeaderSource interface {
	DefaultHeaders() map[string]string
}

// Relay answers GetAuth requests for one page context.
type Relay struct {
	page    PageContext
	headers HeaderSource
}

// Option configures a Relay.
type Option func(*Relay)

// WithHeaderSource injects the page's API client. A nil source is ignored.
func WithHeaderSource(src HeaderSource) Option {
	return func(r *Relay) {
		r.headers = src
	}
}

// New returns a relay reading from page.
func New(page PageContext, opts ...Option) *Relay {
	r := &Relay{page: page}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetAuth captures the current snapshot. It always succeeds; a page without
// an API client yields an empty header map.
func (r *Relay) GetAuth() AuthSnapshot {
	snap := AuthSnapshot{
		Cookies: r.page.Cookies(),
		Headers: map[string]string{},
		Origin:  r.page.Origin(),
	}
	if r.headers != nil {
		maps.Copy(snap.Headers, r.headers.DefaultHeaders())
	}
	return snap
}

// GetAuthRequest is the only message a relay understands. The relay sends
// one snapshot on Reply and then closes it.
type GetAuthRequest struct {
	Reply chan<- AuthSnapshot
}

// Serve answers requests until ctx is done or requests is closed.
func (r *Relay) Serve(ctx context.Context, requests <-chan GetAuthRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			r.answer(ctx, req)
		}
	}
}

func (r *Relay) answer(ctx context.Context, req GetAuthRequest) {
	defer close(req.Reply)
	select {
	case req.Reply <- r.GetAuth():
	case <-ctx.Done():
	}
}

// Client sends GetAuth requests to a serving relay.
type Client struct {
	requests chan<- GetAuthRequest
}

// NewClient returns a client writing to requests.
func NewClient(requests chan<- GetAuthRequest) *Client {
	return &Client{requests: requests}
}

// GetAuth sends one request and waits for its reply.
func (c *Client) GetAuth(ctx context.Context) (AuthSnapshot, error) {
	reply := make(chan AuthSnapshot, 1)

	select {
	case c.requests <- GetAuthRequest{Reply: reply}:
	case <-ctx.Done():
		return AuthSnapshot{}, errors.Join(ErrNoAuthReturned, ctx.Err())
	}

	select {
	case snap, ok := <-reply:
		if !ok {
			return AuthSnapshot{}, ErrNoAuthReturned
		}
		return snap.Clone(), nil
	case <-ctx.Done():
		return AuthSnapshot{}, errors.Join(ErrNoAuthReturned, ctx.Err())
	}
}

// Start runs r on its own goroutine and returns a client for it. The relay
// stops when ctx is done.
func Start(ctx context.Context, r *Relay) *Client {
	requests := make(chan GetAuthRequest)
	go r.Serve(ctx, requests)
	return NewClient(requests)
}

// Static is a PageContext with fixed values.
type Static struct {
	PageOrigin  string
	PageCookies string
}

func (s Static) Origin() string  { return s.PageOrigin }
func (s Static) Cookies() string { return s.PageCookies }

// StaticHeaders is a HeaderSource with fixed values.
type StaticHeaders map[string]string

func (h StaticHeaders) DefaultHeaders() map[string]string { return h }
