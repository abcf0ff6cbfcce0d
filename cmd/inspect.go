package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/appsnap/cli/pkg/table"
	"github.com/appsnap/cli/pkg/util"
)

// InspectCmd lists the files inside a saved archive.
type InspectCmd struct {
	fs afero.Fs
}

type InspectInput struct {
	Path   string
	Output string
}

type archiveEntry struct {
	Path string `json:"path"`
	Size int    `json:"size"`
}

func (c InspectCmd) Inspect(ctx context.Context, in InspectInput) error {
	if err := checkOutput(in.Output); err != nil {
		return err
	}

	blob, err := afero.ReadFile(c.fs, in.Path)
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}
	files, err := util.ExtractArchive(blob)
	if err != nil {
		return err
	}

	names := lo.Keys(files)
	slices.Sort(names)
	entries := lo.Map(names, func(name string, _ int) archiveEntry {
		return archiveEntry{Path: name, Size: len(files[name])}
	})

	if in.Output == "json" {
		return util.PrintPrettyJSON(entries)
	}

	rows := pterm.TableData{{"Path", "Size"}}
	total := 0
	for _, e := range entries {
		rows = append(rows, []string{e.Path, util.FormatBytes(int64(e.Size))})
		total += e.Size
	}
	table.PrintTableNoPad(rows, true)
	pterm.Info.Printf("%d files, %s uncompressed, %s on disk\n", len(entries), util.FormatBytes(int64(total)), util.FormatBytes(int64(len(blob))))
	return nil
}

var inspectCmd = &cobra.Command{
	Use:   "inspect ZIP",
	Short: "List the files in a downloaded archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	addOutputFlag(inspectCmd)
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	c := InspectCmd{fs: afero.NewOsFs()}
	return c.Inspect(cmd.Context(), InspectInput{Path: args[0], Output: outputFlag(cmd)})
}
