// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package fetch

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultBaseURL is the codeload-style tarball host.
const DefaultBaseURL = "https://codeload.github.com"

// maxEntrySize caps a single extracted file at 64 MiB. Source files larger
// than this carry no import information worth the disk.
const maxEntrySize = 64 << 20

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	// BaseURL is the tarball host. Defaults to DefaultBaseURL.
	BaseURL string

	// Client is the HTTP client used for downloads.
	Client *http.Client

	// WorkDir is the parent directory for checkouts. Defaults to the
	// system temp directory.
	WorkDir string

	// MaxRetries is the number of download attempts. Defaults to 3.
	MaxRetries int
}

// FetcherOption mutates FetcherOptions.
type FetcherOption func(*FetcherOptions)

// WithBaseURL overrides the tarball host (used by tests).
func WithBaseURL(url string) FetcherOption {
	return func(o *FetcherOptions) { o.BaseURL = strings.TrimSuffix(url, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(o *FetcherOptions) { o.Client = client }
}

// WithWorkDir sets the parent directory for checkouts.
func WithWorkDir(dir string) FetcherOption {
	return func(o *FetcherOptions) { o.WorkDir = dir }
}

// WithMaxRetries sets the number of download attempts.
func WithMaxRetries(n int) FetcherOption {
	return func(o *FetcherOptions) { o.MaxRetries = n }
}

// Fetcher downloads repository tarballs and unpacks them for scanning.
//
// Thread Safety: Safe for concurrent use; each Fetch works in its own
// scratch directory.
type Fetcher struct {
	options FetcherOptions
}

// NewFetcher creates a Fetcher with the given options applied over defaults.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	options := FetcherOptions{
		BaseURL:    DefaultBaseURL,
		Client:     &http.Client{Timeout: 5 * time.Minute},
		WorkDir:    os.TempDir(),
		MaxRetries: 3,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.MaxRetries < 1 {
		options.MaxRetries = 1
	}
	return &Fetcher{options: options}
}

// Checkout is an unpacked repository on local disk.
type Checkout struct {
	// Ref is the repository reference that was fetched.
	Ref RepoRef

	// Dir is the root directory of the unpacked tree. This is the path to
	// hand to the graph builder.
	Dir string

	scratch string
}

// Cleanup removes the checkout's scratch directory. Safe to call more than
// once.
func (c *Checkout) Cleanup() error {
	if c.scratch == "" {
		return nil
	}
	err := os.RemoveAll(c.scratch)
	c.scratch = ""
	return err
}

// Fetch downloads ref's tarball and unpacks it under the work directory.
//
// Description:
//
//	Downloads with bounded retries and quadratic backoff, then streams the
//	tar.gz into a fresh scratch directory. Codeload tarballs wrap the tree
//	in a single "name-ref/" directory; Checkout.Dir points inside it so the
//	caller sees the project root directly. Entries that would escape the
//	scratch directory are rejected.
//
// Inputs:
//
//	ctx - Cancels the download between retries and mid-transfer.
//	ref - The repository reference to fetch.
//
// Outputs:
//
//	*Checkout - The unpacked tree. The caller owns Cleanup.
//	error - Non-nil on download or extraction failure.
func (f *Fetcher) Fetch(ctx context.Context, ref RepoRef) (*Checkout, error) {
	if ctx == nil {
		return nil, fmt.Errorf("ctx must not be nil")
	}

	scratch, err := os.MkdirTemp(f.options.WorkDir, "depscope-fetch-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}

	body, err := f.download(ctx, f.options.BaseURL+ref.TarballPath())
	if err != nil {
		os.RemoveAll(scratch)
		return nil, fmt.Errorf("downloading %s: %w", ref, err)
	}
	defer body.Close()

	topLevel, err := extractTarGz(body, scratch)
	if err != nil {
		os.RemoveAll(scratch)
		return nil, fmt.Errorf("extracting %s: %w", ref, err)
	}

	dir := scratch
	if topLevel != "" {
		dir = filepath.Join(scratch, topLevel)
	}

	slog.Info("repository fetched",
		slog.String("repo", ref.String()),
		slog.String("dir", dir),
	)

	return &Checkout{Ref: ref, Dir: dir, scratch: scratch}, nil
}

// download GETs url with retries and returns the response body.
func (f *Fetcher) download(ctx context.Context, url string) (io.ReadCloser, error) {
	var lastErr error

	for attempt := 1; attempt <= f.options.MaxRetries; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt*attempt) * time.Second
			slog.Debug("retrying download",
				slog.String("url", url),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}

		resp, err := f.options.Client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return nil, fmt.Errorf("repository or ref not found (HTTP 404)")
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
			continue
		}

		return resp.Body, nil
	}

	return nil, fmt.Errorf("download failed after %d attempts: %w", f.options.MaxRetries, lastErr)
}

// extractTarGz streams a tar.gz archive into destDir and returns the single
// top-level directory name, if the archive has one.
func extractTarGz(r io.Reader, destDir string) (string, error) {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return "", fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	topLevel := ""
	rootIsTree := false

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("tar read error: %w", err)
		}

		name := filepath.Clean(header.Name)
		if name == "." || name == "" {
			continue
		}

		target := filepath.Join(destDir, name)
		// Reject entries that would escape the scratch directory.
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return "", fmt.Errorf("archive entry %q escapes extraction dir", header.Name)
		}

		// Track the single wrapping directory, if any. A top-level regular
		// file, or more than one top-level entry, means the archive root
		// itself is the tree.
		nested := header.Typeflag == tar.TypeDir || strings.ContainsRune(name, os.PathSeparator)
		switch first := firstSegment(name); {
		case !nested || rootIsTree:
			topLevel = ""
			rootIsTree = true
		case topLevel == "":
			topLevel = first
		case topLevel != first:
			topLevel = ""
			rootIsTree = true
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", fmt.Errorf("creating dir %s: %w", name, err)
			}
		case tar.TypeReg:
			if header.Size > maxEntrySize {
				continue
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return "", fmt.Errorf("creating parent of %s: %w", name, err)
			}
			out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, header.FileInfo().Mode().Perm())
			if err != nil {
				return "", fmt.Errorf("creating file %s: %w", name, err)
			}
			if _, err := io.Copy(out, io.LimitReader(tr, maxEntrySize)); err != nil {
				out.Close()
				return "", fmt.Errorf("writing file %s: %w", name, err)
			}
			if err := out.Close(); err != nil {
				return "", fmt.Errorf("closing file %s: %w", name, err)
			}
		default:
			// Symlinks and special files are skipped: a scan never follows
			// them and a hostile link target must not land on disk.
		}
	}

	return topLevel, nil
}

// firstSegment returns the path up to the first separator.
func firstSegment(name string) string {
	if i := strings.IndexByte(name, filepath.Separator); i >= 0 {
		return name[:i]
	}
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[:i]
	}
	return name
}
