package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/appsnap/cli/internal/chrome"
	"github.com/appsnap/cli/internal/cookies"
	"github.com/appsnap/cli/internal/relay"
	"github.com/appsnap/cli/internal/session"
	"github.com/appsnap/cli/internal/target"
	"github.com/appsnap/cli/pkg/appbuilder"
)

// AuthPage is an App Builder page the CLI can borrow auth from.
type AuthPage struct {
	URL    string
	Origin string
	// Auth answers the session's single auth request.
	Auth session.AuthSource
	// Ambient holds the browser's cookies for Origin, HttpOnly ones
	// included. Empty unless the page came from a live tab.
	Ambient []*http.Cookie
	// Source says where the auth came from: tab, cookie store or flags.
	Source string
}

// PageOpener yields the page a command works on.
type PageOpener interface {
	OpenPage(ctx context.Context) (*AuthPage, error)
}

// TabLister lists the tabs of the attached browser.
type TabLister interface {
	Tabs(ctx context.Context) ([]chrome.TabInfo, error)
}

// APIFactory builds the App Builder client for a page.
type APIFactory func(p *AuthPage) session.API

// flagPageOpener picks the auth source from the common flags.
type flagPageOpener struct {
	cdpURL      string
	url         string
	cookiesFrom string
	cookies     string
	headers     map[string]string
}

func newFlagPageOpener(cmd *cobra.Command) (*flagPageOpener, error) {
	headers, err := headerFlags(cmd)
	if err != nil {
		return nil, err
	}
	url, _ := cmd.Flags().GetString("url")
	cookiesFrom, _ := cmd.Flags().GetString("cookies-from")
	return &flagPageOpener{
		cdpURL:      stringFlagOrEnv(cmd, "cdp-url", envCDPURL),
		url:         url,
		cookiesFrom: cookiesFrom,
		cookies:     stringFlagOrEnv(cmd, "cookies", envCookies),
		headers:     headers,
	}, nil
}

func (o *flagPageOpener) OpenPage(ctx context.Context) (*AuthPage, error) {
	switch {
	case o.cookies != "":
		return o.openStatic(ctx)
	case o.cookiesFrom != "":
		return o.openCookieStore(ctx)
	default:
		return o.openTab(ctx)
	}
}

func (o *flagPageOpener) requireURL(mode string) (target.Ref, error) {
	if o.url == "" {
		return target.Ref{}, fmt.Errorf("--url is required with %s", mode)
	}
	return target.Resolve(o.url)
}

func (o *flagPageOpener) relayOptions() []relay.Option {
	if len(o.headers) == 0 {
		return nil
	}
	return []relay.Option{relay.WithHeaderSource(relay.StaticHeaders(o.headers))}
}

func (o *flagPageOpener) openStatic(ctx context.Context) (*AuthPage, error) {
	ref, err := o.requireURL("--cookies")
	if err != nil {
		return nil, err
	}
	r := relay.New(relay.Static{PageOrigin: ref.Origin(), PageCookies: o.cookies}, o.relayOptions()...)
	return &AuthPage{URL: o.url, Origin: ref.Origin(), Auth: relay.Start(ctx, r), Source: "flags"}, nil
}

func (o *flagPageOpener) openCookieStore(ctx context.Context) (*AuthPage, error) {
	ref, err := o.requireURL("--cookies-from")
	if err != nil {
		return nil, err
	}
	loc, err := cookies.NewLocator()
	if err != nil {
		return nil, err
	}
	path, err := loc.Resolve(o.cookiesFrom)
	if err != nil {
		return nil, err
	}
	found, src, err := cookies.NewStore().Import(path, ref.Host())
	if err != nil {
		return nil, err
	}
	pterm.Debug.Printfln("cookies: read %d cookies for %s from %s store %s (%d skipped)",
		len(found), ref.Host(), src.Format, src.Path, src.Skipped)
	if len(found) == 0 {
		return nil, fmt.Errorf("no cookies for %s in %s", ref.Host(), src.Path)
	}
	if src.Skipped > 0 {
		pterm.Warning.Printfln("%d encrypted cookies could not be read from %s", src.Skipped, src.Path)
	}

	r := relay.New(cookies.NewPage(ref.Origin(), found), o.relayOptions()...)
	return &AuthPage{URL: o.url, Origin: ref.Origin(), Auth: relay.Start(ctx, r), Source: "cookie store"}, nil
}

func (o *flagPageOpener) openTab(ctx context.Context) (*AuthPage, error) {
	b, err := chrome.Connect(ctx, o.cdpURL)
	if err != nil {
		return nil, err
	}

	match := target.IsTargetPage
	if o.url != "" {
		match = func(u string) bool { return strings.HasPrefix(u, o.url) }
	}
	tab, err := b.ActiveTab(ctx, match)
	if errors.Is(err, chrome.ErrNoTab) && o.url == "" {
		// Nothing resolves; hand back the visible tab so resolving reports why.
		tab, err = b.ActiveTab(ctx, func(string) bool { return true })
	}
	if err != nil {
		return nil, err
	}
	if !target.IsTargetPage(tab.URL()) {
		return &AuthPage{URL: tab.URL(), Auth: noAuth{}, Source: "tab"}, nil
	}

	r, st, err := tab.Relay(ctx)
	if err != nil {
		return nil, err
	}
	pterm.Debug.Printfln("chrome: using tab %s (%s), page client headers: %t", tab.ID(), tab.URL(), st.Headers != nil)

	ambient, err := tab.AmbientCookies(ctx, st.PageOrigin)
	if err != nil {
		pterm.Debug.Printfln("chrome: no ambient cookies: %v", err)
	}
	return &AuthPage{
		URL:     tab.URL(),
		Origin:  st.PageOrigin,
		Auth:    relay.Start(ctx, r),
		Ambient: ambient,
		Source:  "tab",
	}, nil
}

// noAuth stands in for a relay on pages that cannot have one.
type noAuth struct{}

func (noAuth) GetAuth(context.Context) (relay.AuthSnapshot, error) {
	return relay.AuthSnapshot{}, relay.ErrNoAuthReturned
}

// browserTabs connects on first use.
type browserTabs struct {
	cdpURL string
}

func (b browserTabs) Tabs(ctx context.Context) ([]chrome.TabInfo, error) {
	br, err := chrome.Connect(ctx, b.cdpURL)
	if err != nil {
		return nil, err
	}
	return br.Tabs(ctx)
}

// appBuilderAPI builds a client with the page's ambient cookies.
func appBuilderAPI(timeout time.Duration) APIFactory {
	return func(p *AuthPage) session.API {
		return appbuilder.New(
			appbuilder.WithTimeout(timeout),
			appbuilder.WithAmbientCookies(p.Origin, p.Ambient),
		)
	}
}

// explainError adds a hint to the errors a user can act on.
func explainError(err error) {
	switch {
	case errors.Is(err, target.ErrNotOnTargetPage), errors.Is(err, target.ErrMissingIdentifier):
		pterm.Info.Println("Open the app in App Builder (…/admin/apps-integrations/apps/app-builder/<id>) or pass --url")
	case errors.Is(err, chrome.ErrNoTab):
		pterm.Info.Println("No matching tab is open in the attached browser")
	case appbuilder.IsAuthFailure(err):
		pterm.Info.Println("The session was rejected; sign in to Zendesk in that browser and try again")
	case errors.Is(err, relay.ErrNoAuthReturned):
		pterm.Info.Println("The page did not answer; reload the App Builder tab and try again")
	}
}
