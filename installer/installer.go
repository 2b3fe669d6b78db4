// Package installer downloads and unpacks the NCBI SRA Toolkit so the
// downloader has its prefetch and fasterq-dump binaries available.
package installer

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/gardiner-lab/seq-downloader/internal/sratools"
)

const downloadBase = "https://ftp-trace.ncbi.nlm.nih.gov/sra/sdk/current"

// tarballName returns the toolkit archive for the current platform.
func tarballName() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "sratoolkit.current-centos_linux64.tar.gz", nil
	case "darwin":
		return "sratoolkit.current-mac64.tar.gz", nil
	default:
		return "", fmt.Errorf("automatic toolkit install is not supported on %s; install the SRA Toolkit manually and pass --toolkit-dir", runtime.GOOS)
	}
}

// Install downloads the current SRA Toolkit release and unpacks it into
// destDir, returning the verified toolkit. The archive's versioned top-level
// directory is stripped so destDir/bin holds the binaries directly.
func Install(ctx context.Context, destDir string, log zerolog.Logger) (*sratools.Toolkit, error) {
	name, err := tarballName()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create toolkit directory: %w", err)
	}

	archivePath := filepath.Join(destDir, name)
	if err := download(ctx, downloadBase+"/"+name, archivePath, log); err != nil {
		return nil, err
	}
	defer os.Remove(archivePath)

	log.Info().Str("dest", destDir).Msg("extracting SRA Toolkit")
	if err := extractTarGz(archivePath, destDir); err != nil {
		return nil, fmt.Errorf("failed to extract toolkit archive: %w", err)
	}

	tk, err := sratools.Locate(destDir)
	if err != nil {
		return nil, fmt.Errorf("toolkit unpacked but binaries missing: %w", err)
	}
	log.Info().Str("prefetch", tk.PrefetchPath).Msg("SRA Toolkit installed")
	return tk, nil
}

// download fetches url into path with retries and a byte progress bar.
func download(ctx context.Context, url, path string, log zerolog.Logger) error {
	client := retryablehttp.NewClient()
	client.RetryMax = 5
	client.RetryWaitMin = 1 * time.Second
	client.RetryWaitMax = 30 * time.Second
	client.Logger = nil

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	log.Info().Str("url", url).Msg("downloading SRA Toolkit")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("toolkit download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("toolkit download failed: status %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bar := progressbar.DefaultBytes(resp.ContentLength, "sratoolkit")
	if _, err := io.Copy(io.MultiWriter(f, bar), resp.Body); err != nil {
		os.Remove(path)
		return fmt.Errorf("toolkit download interrupted: %w", err)
	}
	return nil
}

// extractTarGz unpacks a gzipped tarball into destDir, stripping the
// top-level directory. Entries that would escape destDir are rejected.
func extractTarGz(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		rel := stripTopDir(hdr.Name)
		if rel == "" {
			continue
		}
		target := filepath.Join(destDir, filepath.FromSlash(rel))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes destination directory", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode)&0777)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		}
	}
}

// stripTopDir removes the archive's leading "sratoolkit.X.Y.Z-platform/"
// component. Returns "" for the top-level entry itself.
func stripTopDir(name string) string {
	name = strings.TrimPrefix(path.Clean(name), "./")
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return ""
}
