// Package snapshot persists the normalized record set as a gzip-compressed
// JSON document so the server can skip corpus parsing at startup.
package snapshot

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/japaniel/pera/pkg/dictionary"
)

// Version is the container format written by Write.
const Version = 1

// Stages at which Read can fail.
const (
	StageGzip    = "gzip"
	StageDecode  = "decode"
	StageVersion = "version"
)

// CorruptError reports a snapshot that cannot be restored. Callers should
// rebuild the record set from the corpus instead.
type CorruptError struct {
	Stage string
	Err   error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("snapshot corrupt (%s): %v", e.Stage, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

type document struct {
	Version int                 `json:"version"`
	Records []dictionary.Record `json:"records"`
}

// Write serializes records to w. Empty optional fields are omitted.
func Write(w io.Writer, records []dictionary.Record) error {
	zw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return err
	}
	if records == nil {
		records = []dictionary.Record{}
	}
	if err := json.NewEncoder(zw).Encode(document{Version: Version, Records: records}); err != nil {
		zw.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return zw.Close()
}

// Read restores a record set written by Write. Any failure is a
// *CorruptError.
func Read(r io.Reader) ([]dictionary.Record, error) {
	zr, err := gzip.NewReader(bufio.NewReader(r))
	if err != nil {
		return nil, &CorruptError{Stage: StageGzip, Err: err}
	}
	defer zr.Close()

	var doc document
	if err := json.NewDecoder(zr).Decode(&doc); err != nil {
		if errors.Is(err, gzip.ErrChecksum) || errors.Is(err, gzip.ErrHeader) {
			return nil, &CorruptError{Stage: StageGzip, Err: err}
		}
		return nil, &CorruptError{Stage: StageDecode, Err: err}
	}
	if doc.Version != Version {
		return nil, &CorruptError{Stage: StageVersion, Err: fmt.Errorf("unsupported version %d", doc.Version)}
	}
	// Drain the stream so a truncated or tampered trailer is detected.
	if _, err := io.Copy(io.Discard, zr); err != nil {
		return nil, &CorruptError{Stage: StageGzip, Err: err}
	}
	return doc.Records, nil
}

// WriteFile writes the snapshot to path through a temporary file in the
// same directory.
func WriteFile(path string, records []dictionary.Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json.gz")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := Write(bw, records); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadFile restores a snapshot from path. A missing file is reported as an
// error satisfying errors.Is(err, fs.ErrNotExist), not as a CorruptError.
func ReadFile(path string) ([]dictionary.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
