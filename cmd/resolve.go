package cmd

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/appsnap/cli/internal/chrome"
	"github.com/appsnap/cli/internal/target"
	"github.com/appsnap/cli/pkg/table"
	"github.com/appsnap/cli/pkg/util"
)

// ResolveCmd shows what a page URL resolves to.
type ResolveCmd struct {
	tabs TabLister
}

type ResolveInput struct {
	// URL to resolve. When empty the browser's App Builder tab is used.
	URL    string
	Output string
}

func (c ResolveCmd) Resolve(ctx context.Context, in ResolveInput) error {
	if err := checkOutput(in.Output); err != nil {
		return err
	}

	url := in.URL
	if url == "" {
		tabs, err := c.tabs.Tabs(ctx)
		if err != nil {
			return err
		}
		tab, ok := pickTab(tabs)
		if !ok {
			explainError(chrome.ErrNoTab)
			return chrome.ErrNoTab
		}
		url = tab.URL
	}

	ref, err := target.Resolve(url)
	if err != nil {
		explainError(err)
		return err
	}

	if in.Output == "json" {
		return util.PrintPrettyJSON(ref)
	}
	rows := pterm.TableData{{"Property", "Value"}}
	rows = append(rows, []string{"Subdomain", ref.Subdomain})
	rows = append(rows, []string{"App ID", ref.AppID})
	rows = append(rows, []string{"Origin", ref.Origin()})
	rows = append(rows, []string{"Editor", ref.EditorURL()})
	table.PrintTableNoPad(rows, true)
	return nil
}

// pickTab prefers a visible App Builder tab, then any App Builder tab,
// then the visible tab.
func pickTab(tabs []chrome.TabInfo) (chrome.TabInfo, bool) {
	var first, visible *chrome.TabInfo
	for i := range tabs {
		t := &tabs[i]
		if target.IsTargetPage(t.URL) {
			if t.Visible {
				return *t, true
			}
			if first == nil {
				first = t
			}
		}
		if t.Visible && visible == nil {
			visible = t
		}
	}
	switch {
	case first != nil:
		return *first, true
	case visible != nil:
		return *visible, true
	}
	return chrome.TabInfo{}, false
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [URL]",
	Short: "Show the app a page URL points to",
	Long:  "Resolve an App Builder page URL, or the browser's App Builder tab when no URL is given, to its subdomain and app id.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runResolve,
}

func init() {
	addOutputFlag(resolveCmd)
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	url, _ := cmd.Flags().GetString("url")
	if len(args) > 0 {
		url = args[0]
	}
	c := ResolveCmd{tabs: browserTabs{cdpURL: stringFlagOrEnv(cmd, "cdp-url", envCDPURL)}}
	return c.Resolve(cmd.Context(), ResolveInput{URL: url, Output: outputFlag(cmd)})
}
