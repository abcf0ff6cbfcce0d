package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/appsnap/cli/internal/chrome"
)

const (
	envCDPURL  = "APPSNAP_CDP_URL"
	envCookies = "APPSNAP_COOKIES"
	envHeaders = "APPSNAP_HEADERS"
	envDir     = "APPSNAP_DIR"
)

var rootCmd = &cobra.Command{
	Use:   "appsnap",
	Short: "Download Zendesk App Builder apps with your browser session",
	Long: `appsnap borrows the session of a Zendesk App Builder page you are already
signed in to, lists the app's saved versions and saves the one you pick as
a zip archive.

By default it attaches to Chrome over the DevTools protocol, so Chrome must
be running with --remote-debugging-port=9222 and have the app open. Use
--cookies-from to read a browser's cookie store instead, or --cookies to
pass a cookie string directly.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			pterm.EnableDebugMessages()
		}
	},
}

func init() {
	addCommonFlags(rootCmd.PersistentFlags())
}

// addCommonFlags registers the flags every command shares.
func addCommonFlags(pf *pflag.FlagSet) {
	pf.String("cdp-url", chrome.DefaultControlURL, "Chrome DevTools endpoint (env "+envCDPURL+")")
	pf.String("url", "", "App Builder page URL to use instead of the active tab")
	pf.String("cookies-from", "", "Read cookies from a browser store: chrome, chrome:<profile>, firefox or a file path")
	pf.String("cookies", "", "Cookie header value to authenticate with (env "+envCookies+")")
	pf.StringArray("header", nil, "Extra request header as 'Name: value', repeatable (env "+envHeaders+", ';' separated)")
	pf.Bool("debug", false, "Print debug output")
}

// Execute runs the root command. A .env file in the working directory is
// loaded first when present.
func Execute(ctx context.Context, version string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		pterm.Warning.Printfln("Ignoring .env: %v", err)
	}
	return fang.Execute(ctx, rootCmd, fang.WithVersion(version))
}

// stringFlagOrEnv returns the flag when set on the command line, then the
// environment variable, then the flag default.
func stringFlagOrEnv(cmd *cobra.Command, name, env string) string {
	v, _ := cmd.Flags().GetString(name)
	if cmd.Flags().Changed(name) {
		return v
	}
	if e, ok := os.LookupEnv(env); ok && e != "" {
		return e
	}
	return v
}

// headerFlags merges APPSNAP_HEADERS with --header; flags win.
func headerFlags(cmd *cobra.Command) (map[string]string, error) {
	var raw []string
	if e := os.Getenv(envHeaders); e != "" {
		raw = append(raw, strings.Split(e, ";")...)
	}
	flags, _ := cmd.Flags().GetStringArray("header")
	raw = append(raw, flags...)
	return parseHeaders(raw)
}

func parseHeaders(raw []string) (map[string]string, error) {
	headers := map[string]string{}
	for _, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q: use 'Name: value'", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// outputFormat is the --output flag. The empty value means human output.
type outputFormat string

var _ pflag.Value = (*outputFormat)(nil)

func (o *outputFormat) String() string { return string(*o) }

func (o *outputFormat) Set(v string) error {
	if v != "" && v != "json" {
		return fmt.Errorf("unsupported --output value: use 'json'")
	}
	*o = outputFormat(v)
	return nil
}

func (o *outputFormat) Type() string { return "format" }

func addOutputFlag(cmd *cobra.Command) {
	var o outputFormat
	cmd.Flags().VarP(&o, "output", "o", "Output format: json for raw output")
}

func outputFlag(cmd *cobra.Command) string {
	return cmd.Flags().Lookup("output").Value.String()
}

func checkOutput(output string) error {
	if output != "" && output != "json" {
		return fmt.Errorf("unsupported --output value: use 'json'")
	}
	return nil
}
