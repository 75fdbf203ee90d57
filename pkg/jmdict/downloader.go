package jmdict

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
)

// DefaultCorpusURL is the EDRDG distribution of the English JMdict.
const DefaultCorpusURL = "http://ftp.edrdg.org/pub/Nihongo/JMdict_e.gz"

// maxCorpusSize bounds the decompressed download.
const maxCorpusSize = 1 << 30

// Downloader fetches the corpus when it is not present locally.
type Downloader struct {
	Client *http.Client
	Logger *slog.Logger
}

// EnsureCorpus checks if the corpus exists at path.
// If not, it downloads url with a default Downloader.
func EnsureCorpus(ctx context.Context, path, url string) error {
	return (&Downloader{}).Ensure(ctx, path, url)
}

// Ensure checks if the corpus exists at path. If not, it downloads url,
// gunzips it when the payload is gzip compressed, and moves the result into
// place atomically.
func (dl *Downloader) Ensure(ctx context.Context, path, url string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if url == "" {
		return fmt.Errorf("corpus %s is missing and no download url is configured", path)
	}

	logger := dl.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := dl.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}

	logger.InfoContext(ctx, "corpus not found, downloading", slog.String("path", path), slog.String("url", url))
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "pera-cli")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download corpus: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	body, err := maybeGunzip(bufio.NewReader(resp.Body))
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jmdict-*.xml")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(body, maxCorpusSize))
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write corpus: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	logger.InfoContext(ctx, "corpus downloaded",
		slog.String("path", path),
		slog.Int64("bytes", n),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func maybeGunzip(br *bufio.Reader) (io.Reader, error) {
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(magic) < 2 || magic[0] != 0x1f || magic[1] != 0x8b {
		return br, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	return zr, nil
}
