package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/appsnap/cli/internal/session"
	"github.com/appsnap/cli/pkg/table"
	"github.com/appsnap/cli/pkg/util"
)

// VersionsCmd lists an app's versions independent of cobra.
type VersionsCmd struct {
	pages PageOpener
	api   APIFactory
}

type VersionsInput struct {
	Output string
}

func (c VersionsCmd) List(ctx context.Context, in VersionsInput) error {
	if err := checkOutput(in.Output); err != nil {
		return err
	}

	page, err := c.pages.OpenPage(ctx)
	if err != nil {
		explainError(err)
		return err
	}

	s := session.New(session.Config{
		API:  c.api(page),
		Auth: page.Auth,
		Observer: func(from, to session.State, err error) {
			pterm.Debug.Printfln("session: %s -> %s", from, to)
		},
	})
	versions, err := s.Open(ctx, page.URL)
	if err != nil {
		explainError(err)
		return err
	}

	if in.Output == "json" {
		return util.PrintPrettyJSON(versions)
	}

	ref := s.Target()
	pterm.Info.Printf("Versions of app %s on %s (newest first)\n", ref.AppID, ref.Host())
	rows := pterm.TableData{{"#", "Version ID", "Title", "Created"}}
	for i, v := range versions {
		rows = append(rows, []string{fmt.Sprint(i), v.VersionID, util.OrDash(v.Title), util.FormatLocal(v.CreatedAt.Time)})
	}
	table.PrintTableNoPad(rows, true)
	return nil
}

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List the saved versions of the app",
	Args:  cobra.NoArgs,
	RunE:  runVersions,
}

func init() {
	versionsCmd.Flags().Duration("timeout", 0, "Timeout for each API request, 0 for none")
	addOutputFlag(versionsCmd)

	rootCmd.AddCommand(versionsCmd)
}

func runVersions(cmd *cobra.Command, args []string) error {
	pages, err := newFlagPageOpener(cmd)
	if err != nil {
		return err
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")

	c := VersionsCmd{pages: pages, api: appBuilderAPI(timeout)}
	return c.List(cmd.Context(), VersionsInput{Output: outputFlag(cmd)})
}

