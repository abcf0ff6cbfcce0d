package chrome

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/pterm/pterm"

	"github.com/appsnap/cli/internal/relay"
)

// ErrNoTab means no open tab satisfied the selector.
var ErrNoTab = errors.New("no matching browser tab")

// page is the subset of a CDP page the package uses.
type page interface {
	ID() string
	URL() (string, error)
	Title() string
	Eval(ctx context.Context, js string) (string, error)
	Cookies(ctx context.Context, urls []string) ([]*http.Cookie, error)
}

// TabInfo describes an open tab.
type TabInfo struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Visible bool   `json:"visible"`
}

// Browser is a connection to a running Chrome.
type Browser struct {
	pages func(ctx context.Context) ([]page, error)
}

// Connect attaches to Chrome at controlURL, which may be an http:// debug
// endpoint, a ws:// URL or a bare port.
func Connect(ctx context.Context, controlURL string) (*Browser, error) {
	if controlURL == "" {
		controlURL = DefaultControlURL
	}
	wsURL, err := launcher.ResolveURL(controlURL)
	if err != nil {
		return nil, fmt.Errorf("resolve DevTools endpoint %s: %w (is Chrome running with --remote-debugging-port?)", controlURL, err)
	}
	pterm.Debug.Printfln("chrome: connecting to %s", wsURL)

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect to Chrome: %w", err)
	}

	return &Browser{pages: func(ctx context.Context) ([]page, error) {
		pages, err := b.Context(ctx).Pages()
		if err != nil {
			return nil, fmt.Errorf("list tabs: %w", err)
		}
		out := make([]page, 0, len(pages))
		for _, p := range pages {
			out = append(out, rodPage{p: p})
		}
		return out, nil
	}}, nil
}

// Tabs lists the open tabs.
func (b *Browser) Tabs(ctx context.Context) ([]TabInfo, error) {
	pages, err := b.pages(ctx)
	if err != nil {
		return nil, err
	}
	tabs := make([]TabInfo, 0, len(pages))
	for _, p := range pages {
		u, err := p.URL()
		if err != nil {
			pterm.Debug.Printfln("chrome: skipping tab %s: %v", p.ID(), err)
			continue
		}
		tabs = append(tabs, TabInfo{ID: p.ID(), URL: u, Title: p.Title(), Visible: isVisible(ctx, p)})
	}
	return tabs, nil
}

// ActiveTab returns the tab the user is looking at among those whose URL
// satisfies match. A visible tab wins over a background one; otherwise the
// first match is used.
func (b *Browser) ActiveTab(ctx context.Context, match func(url string) bool) (*Tab, error) {
	pages, err := b.pages(ctx)
	if err != nil {
		return nil, err
	}

	var fallback *Tab
	for _, p := range pages {
		u, err := p.URL()
		if err != nil || !match(u) {
			continue
		}
		tab := &Tab{page: p, url: u}
		if isVisible(ctx, p) {
			return tab, nil
		}
		if fallback == nil {
			fallback = tab
		}
	}
	if fallback == nil {
		return nil, ErrNoTab
	}
	return fallback, nil
}

func isVisible(ctx context.Context, p page) bool {
	v, err := p.Eval(ctx, visibleScript)
	return err == nil && v == "true"
}

// Tab is one open browser tab.
type Tab struct {
	page page
	url  string
}

// URL is the tab's address when it was selected.
func (t *Tab) URL() string { return t.url }

// ID is the DevTools target id.
func (t *Tab) ID() string { return t.page.ID() }

// PageState is what the page exposed when it was captured. It is a relay
// page context.
type PageState struct {
	PageOrigin  string            `json:"origin"`
	PageCookies string            `json:"cookies"`
	Headers     map[string]string `json:"headers"`
}

func (s *PageState) Origin() string  { return s.PageOrigin }
func (s *PageState) Cookies() string { return s.PageCookies }

// HeaderSource returns the page's API client headers, or nil when the page
// has no client object.
func (s *PageState) HeaderSource() relay.HeaderSource {
	if s.Headers == nil {
		return nil
	}
	return relay.StaticHeaders(s.Headers)
}

// Capture evaluates the capture script in the page.
func (t *Tab) Capture(ctx context.Context) (*PageState, error) {
	raw, err := t.page.Eval(ctx, captureScript)
	if err != nil {
		return nil, fmt.Errorf("read page state: %w", err)
	}
	var st PageState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("decode page state: %w", err)
	}
	if st.PageOrigin == "" {
		return nil, fmt.Errorf("page reported no origin")
	}
	return &st, nil
}

// Relay captures the page and returns a relay bound to it, with the
// page's API client injected when there is one.
func (t *Tab) Relay(ctx context.Context) (*relay.Relay, *PageState, error) {
	st, err := t.Capture(ctx)
	if err != nil {
		return nil, nil, err
	}
	var opts []relay.Option
	if src := st.HeaderSource(); src != nil {
		opts = append(opts, relay.WithHeaderSource(src))
	}
	return relay.New(st, opts...), st, nil
}

// AmbientCookies returns every cookie the browser would send to origin,
// HttpOnly ones included.
func (t *Tab) AmbientCookies(ctx context.Context, origin string) ([]*http.Cookie, error) {
	cookies, err := t.page.Cookies(ctx, []string{origin})
	if err != nil {
		return nil, fmt.Errorf("read browser cookies: %w", err)
	}
	return cookies, nil
}
