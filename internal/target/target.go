// Package target resolves which App Builder app a browser tab is showing.
package target

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// VendorDomain is the hostname suffix every Zendesk account lives under.
	VendorDomain = ".zendesk.com"

	// AppBuilderPath is the admin-center path segment of the App Builder tool.
	AppBuilderPath = "/admin/apps-integrations/apps/app-builder/"
)

var (
	// ErrNotOnTargetPage means the URL is not a Zendesk App Builder page.
	ErrNotOnTargetPage = errors.New("not on a Zendesk app-builder page")

	// ErrMissingIdentifier means the page is right but carries no app id.
	ErrMissingIdentifier = errors.New("cannot extract appId from URL")
)

var appIDPattern = regexp.MustCompile(`(?i)app-builder/([a-f0-9-]+)`)

// Ref identifies the App Builder app being exported.
type Ref struct {
	Subdomain string `json:"subdomain"`
	AppID     string `json:"appId"`
}

// Origin returns the account origin derived from the subdomain. It is used
// when no live page supplies one.
func (r Ref) Origin() string {
	return "https://" + r.Host()
}

// Host returns the account hostname.
func (r Ref) Host() string {
	return r.Subdomain + VendorDomain
}

// EditorURL returns the App Builder page for the app.
func (r Ref) EditorURL() string {
	return r.Origin() + AppBuilderPath + r.AppID
}

// Resolve derives a Ref from an absolute tab URL.
func Resolve(rawURL string) (Ref, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Ref{}, fmt.Errorf("%w (%v)", ErrNotOnTargetPage, err)
	}

	host := strings.ToLower(u.Hostname())
	if !strings.Contains(host, VendorDomain) || !strings.Contains(u.Path, AppBuilderPath) {
		return Ref{}, ErrNotOnTargetPage
	}

	m := appIDPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return Ref{}, ErrMissingIdentifier
	}

	return Ref{
		Subdomain: strings.Replace(host, VendorDomain, "", 1),
		AppID:     m[1],
	}, nil
}

// IsTargetPage reports whether rawURL resolves to an app.
func IsTargetPage(rawURL string) bool {
	_, err := Resolve(rawURL)
	return err == nil
}
