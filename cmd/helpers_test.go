package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/require"

	"github.com/appsnap/cli/internal/chrome"
	"github.com/appsnap/cli/internal/relay"
	"github.com/appsnap/cli/internal/session"
	"github.com/appsnap/cli/internal/target"
	"github.com/appsnap/cli/pkg/appbuilder"
)

const (
	testAppID   = "1a2b3c4d-0000-0000-0000-000000000000"
	testPageURL = "https://acme.zendesk.com/admin/apps-integrations/apps/app-builder/" + testAppID + "/edit"
)

var outBuf bytes.Buffer

// setupStdoutCapture sends pterm output to outBuf for the test.
func setupStdoutCapture(t *testing.T) {
	t.Helper()
	outBuf.Reset()
	pterm.SetDefaultOutput(&outBuf)
	pterm.DisableStyling()
	t.Cleanup(func() {
		pterm.SetDefaultOutput(os.Stdout)
		pterm.EnableStyling()
	})
}

// captureStdout redirects os.Stdout, which JSON output is written to, and
// returns a func that restores it and yields what was written.
func captureStdout(t *testing.T) func() string {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	t.Cleanup(func() {
		os.Stdout = oldStdout
	})
	return func() string {
		w.Close()
		os.Stdout = oldStdout
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		return buf.String()
	}
}

type FakePageOpener struct {
	OpenPageFunc func(ctx context.Context) (*AuthPage, error)
}

func (f *FakePageOpener) OpenPage(ctx context.Context) (*AuthPage, error) {
	if f.OpenPageFunc != nil {
		return f.OpenPageFunc(ctx)
	}
	return &AuthPage{
		URL:    testPageURL,
		Origin: "https://acme.zendesk.com",
		Auth:   &FakeAuthSource{},
		Source: "tab",
	}, nil
}

type FakeAuthSource struct {
	GetAuthFunc func(ctx context.Context) (relay.AuthSnapshot, error)
}

func (f *FakeAuthSource) GetAuth(ctx context.Context) (relay.AuthSnapshot, error) {
	if f.GetAuthFunc != nil {
		return f.GetAuthFunc(ctx)
	}
	return relay.AuthSnapshot{Cookies: "k=v", Headers: map[string]string{}, Origin: "https://acme.zendesk.com"}, nil
}

type FakeAppBuilderService struct {
	ListVersionsFunc func(ctx context.Context, ref target.Ref, snap relay.AuthSnapshot) ([]appbuilder.Version, error)
	FetchFilesFunc   func(ctx context.Context, ref target.Ref, snap relay.AuthSnapshot, versionID string) (appbuilder.FileSet, error)
}

func (f *FakeAppBuilderService) ListVersions(ctx context.Context, ref target.Ref, snap relay.AuthSnapshot) ([]appbuilder.Version, error) {
	if f.ListVersionsFunc != nil {
		return f.ListVersionsFunc(ctx, ref, snap)
	}
	return []appbuilder.Version{
		{VersionID: "v3", Title: "Add macros"},
		{VersionID: "v2", Title: "Fix sidebar"},
		{VersionID: "v1", Title: "Initial"},
	}, nil
}

func (f *FakeAppBuilderService) FetchFiles(ctx context.Context, ref target.Ref, snap relay.AuthSnapshot, versionID string) (appbuilder.FileSet, error) {
	if f.FetchFilesFunc != nil {
		return f.FetchFilesFunc(ctx, ref, snap, versionID)
	}
	return appbuilder.FileSet{"manifest.json": "{}", "src/app.js": "console.log('" + versionID + "')"}, nil
}

func fakeAPI(svc *FakeAppBuilderService) APIFactory {
	return func(*AuthPage) session.API { return svc }
}

type FakeTabLister struct {
	TabsFunc func(ctx context.Context) ([]chrome.TabInfo, error)
}

func (f *FakeTabLister) Tabs(ctx context.Context) ([]chrome.TabInfo, error) {
	if f.TabsFunc != nil {
		return f.TabsFunc(ctx)
	}
	return nil, nil
}

type FakeVersionSelector struct {
	SelectVersionFunc func(versions []appbuilder.Version) (int, error)
}

func (f *FakeVersionSelector) SelectVersion(versions []appbuilder.Version) (int, error) {
	if f.SelectVersionFunc != nil {
		return f.SelectVersionFunc(versions)
	}
	return 0, nil
}
