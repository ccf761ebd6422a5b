package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/map-gateway/config"
	"github.com/angeloszaimis/map-gateway/internal/apiurl"
)

const (
	formatJSON = "json"
	formatEnv  = "env"
)

// resolveOptions are the flags shared by every subcommand.
type resolveOptions struct {
	mode string
	dir  string
}

func newRootCmd() *cobra.Command {
	opts := &resolveOptions{}

	root := &cobra.Command{
		Use:   "apiurl",
		Short: "Resolve the backend and download API base URLs",
		Long: `apiurl prints the API base URLs the frontend is built with.

In development mode the base URLs are always http://localhost:8000 and
http://localhost:8001. In any other mode VITE_BACKEND_API_URL and
VITE_DOWNLOAD_API_URL are used as is, and an unset variable resolves to
an empty base URL so requests stay relative.

Examples:
  apiurl resolve --mode production
  apiurl resolve --format env
  apiurl url /api/shapefiles/coast.zip --service download`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.mode, "mode", "m", defaultMode(), "Build mode (defaults to $MODE, then development)")
	root.PersistentFlags().StringVarP(&opts.dir, "dir", "d", ".", "Directory holding the .env files")

	root.AddCommand(newResolveCmd(opts))
	root.AddCommand(newURLCmd(opts))

	return root
}

func defaultMode() string {
	if mode, ok := os.LookupEnv(apiurl.EnvMode); ok {
		return mode
	}
	return string(apiurl.ModeDevelopment)
}

// resolve loads the dotenv files for the mode and resolves the record from
// the process environment.
func (o *resolveOptions) resolve() (apiurl.Config, error) {
	if _, err := config.LoadDotenv(o.dir, o.mode); err != nil {
		return apiurl.Config{}, fmt.Errorf("loading dotenv files: %w", err)
	}
	return apiurl.Resolve(apiurl.Mode(o.mode), apiurl.OverridesFromLookup(os.LookupEnv)), nil
}

func newResolveCmd(opts *resolveOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the resolved base URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatJSON && format != formatEnv {
				return fmt.Errorf("unknown format %q (want %s or %s)", format, formatJSON, formatEnv)
			}

			cfg, err := opts.resolve()
			if err != nil {
				return err
			}
			return printConfig(cmd.OutOrStdout(), cfg, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "Output format: json or env")

	return cmd
}

func printConfig(w io.Writer, cfg apiurl.Config, format string) error {
	if format == formatEnv {
		_, err := fmt.Fprintf(w, "BACKEND_API_URL=%s\nDOWNLOAD_API_URL=%s\n", cfg.Backend, cfg.Download)
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

func newURLCmd(opts *resolveOptions) *cobra.Command {
	var service string

	cmd := &cobra.Command{
		Use:   "url <path>",
		Short: "Print the full URL of an API path",
		Long: `Joins the base URL of a service with path. Any service other than
"download" selects the backend.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cfg.ServiceURL(args[0], apiurl.ParseService(service)))
			return err
		},
	}

	cmd.Flags().StringVarP(&service, "service", "s", string(apiurl.ServiceBackend), "Service: backend or download")

	return cmd
}
