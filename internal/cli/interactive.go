package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gardiner-lab/seq-downloader/internal/accession"
	"github.com/gardiner-lab/seq-downloader/internal/config"
	"github.com/gardiner-lab/seq-downloader/internal/geo"
)

// runInteractiveSetup walks the user through choosing an accession source and
// the batch settings, mutating cfg in place. Used when the download command is
// invoked without any source flag.
func runInteractiveSetup(ctx context.Context, cfg *config.BatchConfig, log zerolog.Logger) ([]string, error) {
	fmt.Println()
	fmt.Println("seqdl " + Version + " - interactive setup")
	fmt.Println()
	fmt.Println("How do you want to provide the accessions?")
	fmt.Println("  1. Enter run accessions directly (SRR/ERR/DRR, comma-separated)")
	fmt.Println("  2. Load an accession list file (.txt, .csv or .tsv)")
	fmt.Println("  3. Resolve a GEO series number (GSE)")

	choice, err := promptInt("Choose", 1, 1, 3)
	if err != nil {
		return nil, err
	}

	var accessions []string
	switch choice {
	case 1:
		raw, err := promptString("Accessions", "")
		if err != nil {
			return nil, err
		}
		accessions, err = accession.ParseCommaSeparated(raw)
		if err != nil {
			return nil, err
		}
	case 2:
		path, err := promptString("List file path", "")
		if err != nil {
			return nil, err
		}
		accessions, err = accession.LoadFile(path)
		if err != nil {
			return nil, err
		}
	case 3:
		gse, err := promptString("GEO series number (e.g. GSE123456)", "")
		if err != nil {
			return nil, err
		}
		fmt.Println("Resolving series through NCBI, this can take a moment...")
		accessions, err = geo.NewFetcher(log).FetchRunAccessions(ctx, gse)
		if err != nil {
			return nil, err
		}
		fmt.Printf("Resolved %d run accessions.\n", len(accessions))
	}

	if cfg.OutputDir, err = promptString("Output directory", cfg.OutputDir); err != nil {
		return nil, err
	}
	if cfg.Threads, err = promptInt("Parallel downloads", cfg.Threads, config.MinThreads, config.MaxThreads); err != nil {
		return nil, err
	}
	if cfg.SplitFiles, err = promptYesNo("Split paired-end reads into _1/_2 files?", cfg.SplitFiles); err != nil {
		return nil, err
	}

	policy, err := promptString("Existing-file policy (skip/overwrite/rename/ask)", string(cfg.Conflict))
	if err != nil {
		return nil, err
	}
	if cfg.Conflict, err = config.ParseConflictPolicy(policy); err != nil {
		return nil, err
	}

	return accessions, nil
}
