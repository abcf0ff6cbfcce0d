package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type completionGen func(root *cobra.Command, w io.Writer, desc bool) error

var completionShells = map[string]completionGen{
	"bash": func(root *cobra.Command, w io.Writer, desc bool) error {
		return root.GenBashCompletionV2(w, desc)
	},
	"zsh": func(root *cobra.Command, w io.Writer, desc bool) error {
		if desc {
			return root.GenZshCompletion(w)
		}
		return root.GenZshCompletionNoDesc(w)
	},
	"fish": func(root *cobra.Command, w io.Writer, desc bool) error {
		return root.GenFishCompletion(w, desc)
	},
	"powershell": func(root *cobra.Command, w io.Writer, desc bool) error {
		if desc {
			return root.GenPowerShellCompletionWithDesc(w)
		}
		return root.GenPowerShellCompletion(w)
	},
}

// CompletionCmd writes shell completion scripts for a command tree.
type CompletionCmd struct {
	root *cobra.Command
	out  io.Writer
}

type CompletionInput struct {
	Shell          string
	NoDescriptions bool
}

func (c CompletionCmd) Generate(in CompletionInput) error {
	gen, ok := completionShells[strings.ToLower(in.Shell)]
	if !ok {
		return fmt.Errorf("unsupported shell %q: use one of %s", in.Shell, strings.Join(shellNames(), ", "))
	}
	return gen(c.root, c.out, !in.NoDescriptions)
}

func shellNames() []string {
	names := lo.Keys(completionShells)
	slices.Sort(names)
	return names
}

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Print a shell completion script",
	Long: `Print a completion script for bash, zsh, fish or powershell.

Load it for the current shell:
  bash        source <(appsnap completion bash)
  zsh         source <(appsnap completion zsh)
  fish        appsnap completion fish | source
  powershell  appsnap completion powershell | Out-String | Invoke-Expression

To keep it, write the script where your shell looks for completions, for
example ~/.config/fish/completions/appsnap.fish or a directory on zsh's
$fpath as _appsnap.`,
	DisableFlagsInUseLine: true,
	Args:                  cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return shellNames(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runCompletion,
}

func init() {
	completionCmd.Flags().Bool("no-descriptions", false, "Leave command and flag descriptions out of the script")
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	noDesc, _ := cmd.Flags().GetBool("no-descriptions")
	c := CompletionCmd{root: cmd.Root(), out: os.Stdout}
	return c.Generate(CompletionInput{Shell: args[0], NoDescriptions: noDesc})
}
