// Package appbuilder is a client for the private Zendesk App Builder API
// that lists an app's saved versions and returns a version's source files.
//
// The API is authenticated with whatever the browser session carries: the
// page's cookies, the apps framework's default headers and, when available,
// the browser's full cookie jar for the account.
package appbuilder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"golang.org/x/net/publicsuffix"

	"github.com/appsnap/cli/internal/relay"
	"github.com/appsnap/cli/internal/target"
)

const conversationsPath = "/api/v2/app-builder/conversations/"

// Client calls the App Builder API.
type Client struct {
	http    *http.Client
	ambient http.CookieJar
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each request. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithAmbientCookies gives the client the browser's cookies for the
// account. They ride along with every request next to the snapshot's
// explicit Cookie header.
func WithAmbientCookies(origin string, cookies []*http.Cookie) Option {
	return func(c *Client) {
		if len(cookies) == 0 {
			return
		}
		u, err := url.Parse(origin)
		if err != nil {
			pterm.Debug.Printfln("appbuilder: ignoring ambient cookies for bad origin %q", origin)
			return
		}
		jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		jar.SetCookies(u, cookies)
		c.ambient = jar
	}
}

// New returns a Client. Requests have no timeout unless one is set.
func New(opts ...Option) *Client {
	c := &Client{http: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListVersions returns the app's versions in server order, newest first.
func (c *Client) ListVersions(ctx context.Context, ref target.Ref, snap relay.AuthSnapshot) ([]Version, error) {
	endpoint := apiBase(ref, snap) + url.PathEscape(ref.AppID) + "/versions"

	var body versionsResponse
	if err := c.get(ctx, endpoint, snap, "versions fetch", &body); err != nil {
		return nil, err
	}
	if len(body.Versions) == 0 {
		return nil, ErrEmptyResult
	}
	return body.Versions, nil
}

// FetchFiles returns the source files of one version.
func (c *Client) FetchFiles(ctx context.Context, ref target.Ref, snap relay.AuthSnapshot, versionID string) (FileSet, error) {
	endpoint := apiBase(ref, snap) + url.PathEscape(ref.AppID) + "/app-code?versionId=" + url.QueryEscape(versionID)

	var body appCodeResponse
	if err := c.get(ctx, endpoint, snap, "download", &body); err != nil {
		return nil, err
	}
	if body.Files == nil {
		body.Files = FileSet{}
	}
	return body.Files, nil
}

func apiBase(ref target.Ref, snap relay.AuthSnapshot) string {
	origin := strings.TrimRight(snap.Origin, "/")
	if origin == "" {
		origin = ref.Origin()
	}
	return origin + conversationsPath
}

func (c *Client) get(ctx context.Context, endpoint string, snap relay.AuthSnapshot, op string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header = BuildHeaders(snap)
	if c.ambient != nil {
		req.Header.Set("Cookie", MergeCookies(req.Header.Get("Cookie"), c.ambient.Cookies(req.URL)))
	}

	pterm.Debug.Printfln("appbuilder: GET %s (%d headers)", req.URL.Redacted(), len(req.Header))
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &FetchFailedError{Op: op, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid %s response: %w", op, err)
	}
	return nil
}
