package cli

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/gardiner-lab/seq-downloader/internal/accession"
	"github.com/gardiner-lab/seq-downloader/internal/config"
	"github.com/gardiner-lab/seq-downloader/internal/conflict"
	"github.com/gardiner-lab/seq-downloader/internal/engine"
	"github.com/gardiner-lab/seq-downloader/internal/geo"
	"github.com/gardiner-lab/seq-downloader/internal/models"
	"github.com/gardiner-lab/seq-downloader/internal/preflight"
	"github.com/gardiner-lab/seq-downloader/internal/progress"
	"github.com/gardiner-lab/seq-downloader/internal/sratools"
)

func newDownloadCmd() *cobra.Command {
	var (
		listFile   string
		gseNumber  string
		accList    string
		outputDir  string
		threads    int
		split      bool
		onConflict string
		retries    int
		retryDelay time.Duration
		timeout    time.Duration
		toolkitDir string
		assumeYes  bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download accessions in parallel via the SRA Toolkit",
		Long: `Download sequencing runs. Accessions come from --accessions, a list file
(--list, formats: .txt/.csv/.tsv), or a GEO series (--gse) resolved through
NCBI. With none of those flags the command runs interactively.`,
		Example: `  seqdl download --accessions SRR1234567,SRR1234568 -o data
  seqdl download --list runs.tsv --threads 8 --on-conflict rename
  seqdl download --gse GSE98765`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg := config.Default()
			cfg.OutputDir = outputDir
			cfg.Threads = threads
			cfg.SplitFiles = split
			cfg.MaxRetries = retries
			cfg.RetryDelay = retryDelay
			cfg.FetchTimeout = timeout
			cfg.ToolkitDir = toolkitDir

			policy, err := config.ParseConflictPolicy(onConflict)
			if err != nil {
				return err
			}
			cfg.Conflict = policy

			interactive := listFile == "" && gseNumber == "" && accList == ""

			var accessions []string
			switch {
			case interactive:
				accessions, err = runInteractiveSetup(ctx, cfg, logger)
			case listFile != "":
				accessions, err = accession.LoadFile(listFile)
			case gseNumber != "":
				accessions, err = geo.NewFetcher(logger).FetchRunAccessions(ctx, gseNumber)
			default:
				accessions, err = accession.ParseCommaSeparated(accList)
			}
			if err != nil {
				return err
			}
			if len(accessions) == 0 {
				return errors.New("no accessions to download")
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			printPreview(accessions, cfg)
			if interactive && !assumeYes {
				ok, err := promptYesNo("Proceed with download?", true)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("Download cancelled.")
					return nil
				}
			}

			return runBatch(cmd, cfg, accessions)
		},
	}

	cmd.Flags().StringVar(&listFile, "list", "", "Accession list file (.txt, .csv or .tsv)")
	cmd.Flags().StringVar(&gseNumber, "gse", "", "GEO series number to resolve (e.g. GSE123456)")
	cmd.Flags().StringVar(&accList, "accessions", "", "Comma-separated run accessions")
	cmd.Flags().StringVarP(&outputDir, "output", "o", config.DefaultOutputDir, "Output directory")
	cmd.Flags().IntVarP(&threads, "threads", "t", config.DefaultThreads,
		fmt.Sprintf("Parallel downloads (%d-%d)", config.MinThreads, config.MaxThreads))
	cmd.Flags().BoolVar(&split, "split", true, "Split paired-end reads into _1/_2 files")
	cmd.Flags().StringVar(&onConflict, "on-conflict", string(config.ConflictAsk),
		"Existing-file policy: skip, overwrite, rename or ask")
	cmd.Flags().IntVar(&retries, "retries", config.DefaultMaxRetries, "Attempts per accession for transient failures")
	cmd.Flags().DurationVar(&retryDelay, "retry-delay", config.DefaultRetryDelay, "Backoff base delay between retries")
	cmd.Flags().DurationVar(&timeout, "timeout", config.DefaultFetchTimeout, "Timeout per fetch tool invocation")
	cmd.Flags().StringVar(&toolkitDir, "toolkit-dir", "", "SRA Toolkit directory (default: search PATH)")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")

	cmd.MarkFlagsMutuallyExclusive("list", "gse", "accessions")

	return cmd
}

// runBatch wires the engine together and executes the download.
func runBatch(cmd *cobra.Command, cfg *config.BatchConfig, accessions []string) error {
	ctx := cmd.Context()

	toolkit, err := sratools.Locate(cfg.ToolkitDir)
	if err != nil {
		return err
	}

	if _, err := preflight.Check(cfg.OutputDir, len(accessions), cfg.SizeEstimate, logger); err != nil {
		return err
	}

	resolver := conflict.NewResolver(cfg.Conflict, cfg.MinCompleteSize, newConflictPrompter())
	runner := &sratools.ToolRunner{
		Toolkit:         toolkit,
		OutputDir:       cfg.OutputDir,
		SplitFiles:      cfg.SplitFiles,
		Timeout:         cfg.FetchTimeout,
		MinCompleteSize: cfg.MinCompleteSize,
		Log:             logger,
	}

	ui := progress.NewBatchUI()
	eng := engine.New(cfg, runner, resolver, ui, logger)

	logger.Info().
		Int("accessions", len(accessions)).
		Int("threads", cfg.Threads).
		Str("output", cfg.OutputDir).
		Msg("starting batch")

	summary := eng.Run(ctx, accessions)
	ui.Wait()
	printSummary(summary)

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !summary.AllOK() {
		return fmt.Errorf("%d of %d downloads did not complete", summary.Failed+summary.NotAttempted, summary.Total())
	}
	return nil
}

// newConflictPrompter returns the decision callback for the "ask" policy.
// Prompts are serialized so concurrent workers do not interleave on the
// terminal, and a "do for all" answer becomes sticky for the batch.
func newConflictPrompter() conflict.DecideFunc {
	var (
		mu     sync.Mutex
		sticky *conflict.Decision
	)
	return func(job *models.DownloadJob, existing string) (conflict.Decision, error) {
		mu.Lock()
		defer mu.Unlock()

		if sticky != nil {
			return *sticky, nil
		}
		decision, forAll, err := promptConflict(job.Accession, existing)
		if err != nil {
			return 0, err
		}
		if forAll {
			sticky = &decision
		}
		return decision, nil
	}
}

func printPreview(accessions []string, cfg *config.BatchConfig) {
	fmt.Println()
	fmt.Println("============================================================")
	fmt.Println("DOWNLOAD PREVIEW")
	fmt.Println("============================================================")
	fmt.Printf("Output directory: %s\n", cfg.OutputDir)
	fmt.Printf("Threads: %d  Split pairs: %v  Conflict policy: %s\n", cfg.Threads, cfg.SplitFiles, cfg.Conflict)
	fmt.Printf("Total accessions to download: %d\n\n", len(accessions))
	const previewLimit = 10
	for i, acc := range accessions {
		if i == previewLimit {
			fmt.Printf("  ...and %d more\n", len(accessions)-previewLimit)
			break
		}
		fmt.Printf("  %d. %s\n", i+1, acc)
	}
	fmt.Println("============================================================")
}

func printSummary(summary *models.ResultSummary) {
	fmt.Println()
	fmt.Println("Download Summary:")
	fmt.Printf("  Total: %d\n", summary.Total())
	fmt.Printf("  Successful: %d\n", summary.Succeeded)
	fmt.Printf("  Failed: %d\n", summary.Failed)
	fmt.Printf("  Skipped: %d\n", summary.Skipped)
	if summary.NotAttempted > 0 {
		fmt.Printf("  Not attempted: %d\n", summary.NotAttempted)
	}
	fmt.Printf("  Transferred: %.1f MB in %s\n",
		float64(summary.TotalBytes)/(1024*1024), summary.TotalElapsed.Round(time.Second))

	if failures := summary.Failures(); len(failures) > 0 {
		fmt.Println("\nFailures:")
		for _, f := range failures {
			fmt.Printf("  %s (attempts: %d): %v\n", f.Accession, f.Attempts, f.Err)
		}
	}
}
