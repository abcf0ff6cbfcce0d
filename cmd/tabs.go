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

// TabsCmd lists the attached browser's tabs.
type TabsCmd struct {
	tabs TabLister
}

type TabsInput struct {
	// All includes tabs that are not App Builder pages.
	All    bool
	Output string
}

type tabRow struct {
	chrome.TabInfo
	AppID string `json:"appId,omitempty"`
}

func (c TabsCmd) List(ctx context.Context, in TabsInput) error {
	if err := checkOutput(in.Output); err != nil {
		return err
	}

	tabs, err := c.tabs.Tabs(ctx)
	if err != nil {
		return err
	}

	rows := make([]tabRow, 0, len(tabs))
	for _, t := range tabs {
		ref, err := target.Resolve(t.URL)
		if err != nil && !in.All {
			continue
		}
		rows = append(rows, tabRow{TabInfo: t, AppID: ref.AppID})
	}

	if in.Output == "json" {
		return util.PrintPrettyJSON(rows)
	}
	if len(rows) == 0 {
		pterm.Info.Println("No App Builder tabs are open")
		return nil
	}

	data := pterm.TableData{{"Tab ID", "App ID", "Visible", "Title", "URL"}}
	for _, r := range rows {
		visible := ""
		if r.Visible {
			visible = "yes"
		}
		data = append(data, []string{r.ID, util.OrDash(r.AppID), util.OrDash(visible), util.FirstOrDash(r.Title, r.URL), r.URL})
	}
	table.PrintTableNoPad(data, true)
	return nil
}

var tabsCmd = &cobra.Command{
	Use:   "tabs",
	Short: "List App Builder tabs in the attached browser",
	Args:  cobra.NoArgs,
	RunE:  runTabs,
}

func init() {
	tabsCmd.Flags().BoolP("all", "a", false, "Include tabs that are not App Builder pages")
	addOutputFlag(tabsCmd)
	rootCmd.AddCommand(tabsCmd)
}

func runTabs(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	c := TabsCmd{tabs: browserTabs{cdpURL: stringFlagOrEnv(cmd, "cdp-url", envCDPURL)}}
	return c.List(cmd.Context(), TabsInput{All: all, Output: outputFlag(cmd)})
}
