package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gardiner-lab/seq-downloader/installer"
)

func newInstallToolkitCmd() *cobra.Command {
	var destDir string

	cmd := &cobra.Command{
		Use:   "install-toolkit",
		Short: "Download and install the NCBI SRA Toolkit",
		Long: `Downloads the current SRA Toolkit release from NCBI and unpacks it into
the given directory. Pass the same directory to 'download --toolkit-dir'
afterwards, or add its bin/ subdirectory to PATH.`,
		Example: `  seqdl install-toolkit --dest ~/sratoolkit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := installer.Install(cmd.Context(), destDir, logger)
			if err != nil {
				return err
			}
			fmt.Printf("SRA Toolkit installed.\n  prefetch:     %s\n  fasterq-dump: %s\n", tk.PrefetchPath, tk.FasterqDumpPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&destDir, "dest", "sratoolkit", "Installation directory")
	return cmd
}
