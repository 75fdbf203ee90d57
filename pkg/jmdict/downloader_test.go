package jmdict

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCorpus_LocalCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "JMdict_e.xml")
	require.NoError(t, os.WriteFile(path, []byte("<JMdict/>"), 0o644))

	// An unreachable url proves nothing is fetched when the file exists.
	err := EnsureCorpus(context.Background(), path, "http://127.0.0.1:0/never")
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<JMdict/>", string(got))
}

func TestEnsureCorpus_DownloadsGzip(t *testing.T) {
	sample, err := os.ReadFile("testdata/sample.xml")
	require.NoError(t, err)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err = zw.Write(sample)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "corpus", "JMdict_e.xml")
	dl := &Downloader{Client: srv.Client()}
	require.NoError(t, dl.Ensure(context.Background(), path, srv.URL+"/JMdict_e.gz"))

	entries, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, entries, 8)
}

func TestEnsureCorpus_DownloadsPlain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<JMdict></JMdict>"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "JMdict_e.xml")
	require.NoError(t, EnsureCorpus(context.Background(), path, srv.URL))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<JMdict></JMdict>", string(got))
}

func TestEnsureCorpus_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "JMdict_e.xml")
	err := EnsureCorpus(context.Background(), path, srv.URL)
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEnsureCorpus_NoURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "JMdict_e.xml")
	assert.Error(t, EnsureCorpus(context.Background(), path, ""))
}
