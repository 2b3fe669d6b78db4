// Package cli provides the seqdl command-line interface.
package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gardiner-lab/seq-downloader/internal/logging"
)

// Version information - overridden at build time via LDFLAGS.
var (
	Version   = "v2.0.0-dev"
	BuildTime = "unknown"
)

var (
	verbose bool
	logDir  string

	logger zerolog.Logger
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "seqdl",
		Short: "Download sequencing data from SRA and GEO",
		Long: `seqdl ` + Version + ` - Built: ` + BuildTime + `
Downloads sequencing read data from NCBI's SRA, either from a list of run
accessions (SRR/ERR/DRR) or from a GEO series number (GSE) that is resolved
to its runs automatically. Transfers are delegated to the SRA Toolkit and
run in parallel with retry and conflict handling.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = logging.New(logging.Options{Verbose: verbose, LogDir: logDir})
			return err
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Directory for log files (disabled when empty)")

	rootCmd.Version = Version + " (" + BuildTime + ")"

	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newInstallToolkitCmd())

	return rootCmd
}

// Execute runs the CLI under the given context.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
