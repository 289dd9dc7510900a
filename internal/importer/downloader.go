package importer

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Downloader fetches a zipped HRDF export with conditional requests.
type Downloader struct {
	client *http.Client
	url    string
	dir    string // where archives are written
	logger *slog.Logger
}

// NewDownloader creates a Downloader for the given archive URL.
func NewDownloader(url, dir string, timeout time.Duration, logger *slog.Logger) *Downloader {
	return &Downloader{
		client: &http.Client{Timeout: timeout},
		url:    url,
		dir:    dir,
		logger: logger,
	}
}

// CheckResult holds the result of a conditional check.
type CheckResult struct {
	NeedsUpdate  bool
	LastModified string
	ETag         string
}

// Check sends a HEAD request with the stored validators to see if the
// archive has changed.
func (d *Downloader) Check(ctx context.Context, lastModified, etag string) (*CheckResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HEAD request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		d.logger.Info("HRDF archive not modified")
		return &CheckResult{NeedsUpdate: false}, nil
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HEAD status %d", resp.StatusCode)
	}

	return &CheckResult{
		NeedsUpdate:  true,
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
	}, nil
}

// Archive is a downloaded export on disk.
type Archive struct {
	Path         string
	LastModified string
	ETag         string
}

// Download fetches the archive into a temporary file under the download
// directory. The caller removes Archive.Path.
func (d *Downloader) Download(ctx context.Context) (*Archive, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	d.logger.Info("downloading HRDF archive", "url", d.url)
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(d.dir, "hrdf-*.zip")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer tmp.Close()

	written, err := io.Copy(tmp, resp.Body)
	if err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("write file: %w", err)
	}

	d.logger.Info("HRDF archive downloaded",
		"path", filepath.Base(tmp.Name()),
		"size_mb", fmt.Sprintf("%.1f", float64(written)/(1024*1024)),
	)
	return &Archive{
		Path:         tmp.Name(),
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
	}, nil
}

// Unpack extracts the regular files of a zip archive into dir. Entry
// directories are flattened, so FPLAN and friends land directly in dir
// whatever folder the export wraps them in.
func Unpack(zipPath, dir string) (int, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create dir: %w", err)
	}

	n := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(filepath.FromSlash(f.Name))
		if name == "." || name == ".." || name == string(filepath.Separator) {
			continue
		}
		if err := extract(f, filepath.Join(dir, name)); err != nil {
			return n, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		n++
	}
	return n, nil
}

func extract(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
