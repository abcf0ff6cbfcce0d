package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/pkg/browser"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/appsnap/cli/internal/session"
	"github.com/appsnap/cli/pkg/appbuilder"
	"github.com/appsnap/cli/pkg/util"
)

// VersionSelector asks the user to pick one of versions and returns its
// index.
type VersionSelector interface {
	SelectVersion(versions []appbuilder.Version) (int, error)
}

// DownloadCmd runs a full download session independent of cobra.
type DownloadCmd struct {
	pages    PageOpener
	api      APIFactory
	fs       afero.Fs
	selector VersionSelector
	openFile func(path string) error
	now      func() time.Time
	// spinner shows progress; off for JSON output and in tests.
	spinner bool
}

type DownloadInput struct {
	// VersionID picks a version by id. Index is used when it is empty.
	VersionID string
	Index     int
	// Prompt asks for the version interactively instead of using Index.
	Prompt bool
	Dir    string
	Open   bool
	Output string
}

func (d DownloadCmd) Download(ctx context.Context, in DownloadInput) error {
	if err := checkOutput(in.Output); err != nil {
		return err
	}

	page, err := d.pages.OpenPage(ctx)
	if err != nil {
		explainError(err)
		return err
	}

	var spinner *pterm.SpinnerPrinter
	if d.spinner && in.Output != "json" {
		spinner, _ = pterm.DefaultSpinner.Start("Resolving app...")
		defer func() { _ = spinner.Stop() }()
	}

	s := session.New(session.Config{
		API:  d.api(page),
		Auth: page.Auth,
		Fs:   d.fs,
		Dir:  in.Dir,
		Now:  d.now,
		Observer: func(from, to session.State, err error) {
			pterm.Debug.Printfln("session: %s -> %s", from, to)
			if spinner != nil && err == nil {
				spinner.UpdateText(stateText(to))
			}
		},
	})

	versions, err := s.Open(ctx, page.URL)
	if err != nil {
		if spinner != nil {
			_ = spinner.Stop()
		}
		explainError(err)
		return err
	}
	if spinner != nil {
		_ = spinner.Stop()
	}

	ref := s.Target()
	if in.Output != "json" {
		pterm.Info.Printf("App %s on %s has %d versions (auth from %s)\n", ref.AppID, ref.Host(), len(versions), page.Source)
	}

	v, err := d.choose(s, versions, in)
	if err != nil {
		return err
	}
	if in.Output != "json" {
		pterm.Info.Printf("Downloading version %s (%s)...\n", v.VersionID, util.OrDash(v.Title))
	}

	if d.spinner && in.Output != "json" {
		spinner, _ = pterm.DefaultSpinner.Start("Downloading files...")
	}
	res, err := s.Download(ctx, v)
	if err != nil {
		if spinner != nil {
			_ = spinner.Stop()
		}
		explainError(err)
		return err
	}
	if spinner != nil {
		_ = spinner.Stop()
	}

	if in.Output == "json" {
		return util.PrintPrettyJSON(res)
	}
	pterm.Println(summaryBox(res))
	pterm.Success.Printf("Saved %s\n", res.Path)

	if in.Open && d.openFile != nil {
		if err := d.openFile(res.Path); err != nil {
			pterm.Warning.Printf("Could not open %s: %v\n", res.Path, err)
		}
	}
	return nil
}

// choose picks the version through the session so a bad choice or a
// cancelled prompt fails it.
func (d DownloadCmd) choose(s *session.Session, versions []appbuilder.Version, in DownloadInput) (appbuilder.Version, error) {
	if in.VersionID != "" {
		return s.SelectByID(in.VersionID)
	}
	if in.Prompt && d.selector != nil && len(versions) > 1 {
		i, err := d.selector.SelectVersion(versions)
		if err != nil {
			return appbuilder.Version{}, s.Abort(err)
		}
		return s.Select(i)
	}
	return s.Select(in.Index)
}

func stateText(s session.State) string {
	switch s {
	case session.StateAuthenticating:
		return "Reading page auth..."
	case session.StateListingVersions:
		return "Listing versions..."
	case session.StateDownloadingFiles:
		return "Downloading files..."
	case session.StateArchiving:
		return "Writing archive..."
	default:
		return s.String()
	}
}

var summaryStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63")).
	Padding(0, 1)

func summaryBox(res *session.Result) string {
	body := fmt.Sprintf("App      %s\nHost     %s\nVersion  %s  %s\nCreated  %s\nFiles    %d (%s)\nArchive  %s",
		res.Target.AppID,
		res.Target.Host(),
		res.Version.VersionID, util.OrDash(res.Version.Title),
		util.FormatLocal(res.Version.CreatedAt.Time),
		res.Files, util.FormatBytes(int64(res.Bytes)),
		res.Path,
	)
	return summaryStyle.Render(body)
}

// ptermSelector prompts with an interactive list, newest first.
type ptermSelector struct{}

func (ptermSelector) SelectVersion(versions []appbuilder.Version) (int, error) {
	options := make([]string, len(versions))
	for i, v := range versions {
		options[i] = fmt.Sprintf("%d. %s  %s  (%s)", i+1, util.OrDash(v.Title), util.FormatLocal(v.CreatedAt.Time), v.VersionID)
	}
	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions(options).
		WithDefaultOption(options[0]).
		Show("Select a version")
	if err != nil {
		return 0, err
	}
	for i, o := range options {
		if o == choice {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown selection %q", choice)
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download an app version as a zip archive",
	Long: `Resolve the App Builder app open in the browser, list its versions and save
the chosen one as app-<appId>-<unixMillis>.zip.

Without --version, --index or --yes the version is picked interactively.`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().String("version", "", "Version id to download")
	downloadCmd.Flags().Int("index", 0, "Position of the version to download, 0 is the newest")
	downloadCmd.Flags().BoolP("yes", "y", false, "Do not prompt; take the newest version")
	downloadCmd.Flags().String("dir", ".", "Directory to save the archive in (env "+envDir+")")
	downloadCmd.Flags().Bool("open", false, "Open the saved archive")
	downloadCmd.Flags().Duration("timeout", 0, "Timeout for each API request, 0 for none")
	addOutputFlag(downloadCmd)

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	pages, err := newFlagPageOpener(cmd)
	if err != nil {
		return err
	}
	versionID, _ := cmd.Flags().GetString("version")
	index, _ := cmd.Flags().GetInt("index")
	yes, _ := cmd.Flags().GetBool("yes")
	open, _ := cmd.Flags().GetBool("open")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	output := outputFlag(cmd)

	d := DownloadCmd{
		pages:    pages,
		api:      appBuilderAPI(timeout),
		fs:       afero.NewOsFs(),
		selector: ptermSelector{},
		openFile: browser.OpenFile,
		now:      time.Now,
		spinner:  true,
	}
	return d.Download(cmd.Context(), DownloadInput{
		VersionID: versionID,
		Index:     index,
		Prompt:    !yes && !cmd.Flags().Changed("index") && output != "json",
		Dir:       stringFlagOrEnv(cmd, "dir", envDir),
		Open:      open,
		Output:    output,
	})
}
