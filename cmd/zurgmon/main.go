// zurgmon polls a Zurg media-mount server, classifies tracked torrents
// and triggers repairs for broken ones, under the request budget the
// server imposes.
package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

// version is set at build time.
var version = "dev"

type options struct {
	configPath string
	once       bool
	dryRun     bool
	interval   time.Duration
	baseURL    string
}

func main() {
	var opts options

	root := &cobra.Command{
		Use:   "zurgmon",
		Short: "Monitor a Zurg server and repair broken torrents",
		Long: `zurgmon periodically fetches the torrent listing from a Zurg server,
classifies each item's health, triggers repairs for broken and
under-repair items, and reports per-cycle and overall statistics.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			return run(opts)
		},
	}

	root.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to configuration file")
	root.Flags().BoolVar(&opts.once, "once", false, "run a single check and exit")
	root.Flags().BoolVar(&opts.dryRun, "dry-run", false, "log repairs without triggering them")
	root.Flags().DurationVarP(&opts.interval, "interval", "i", 0, "override check interval")
	root.Flags().StringVarP(&opts.baseURL, "url", "u", "", "override Zurg base URL")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
