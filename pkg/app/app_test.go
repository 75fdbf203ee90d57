package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/pera/pkg/config"
	"github.com/japaniel/pera/pkg/db"
	"github.com/japaniel/pera/pkg/snapshot"
)

const sampleCorpus = "../jmdict/testdata/sample.xml"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LogConfig{Level: "info", Format: "json"}, &buf)
	logger.Debug("hidden")
	logger.Info("test message", slog.String("k", "v"))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m), "JSON handler should produce one valid JSON line")
	assert.Equal(t, "test message", m["msg"])
	assert.Equal(t, "v", m["k"])
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LogConfig{Level: "debug", Format: "text"}, &buf)
	logger.Debug("source test")

	out := buf.String()
	assert.Contains(t, out, "source test")
	assert.Contains(t, out, "source=", "text format adds source info")
}

func TestNewLogger_SetsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := NewLogger(config.LogConfig{Level: "warn", Format: "json"})
	require.NotNil(t, logger)
	assert.Same(t, logger, slog.Default())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "parseLevel(%q)", in)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildRecords(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DictionaryConfig{
		CorpusPath:     sampleCorpus,
		LevelTablePath: writeFile(t, dir, "levels.tsv", "# level table\n猫\tN5\nがっこう\tN5\n東京\tN4\n"),
		GlossTablePath: writeFile(t, dir, "cn.json", `{"猫": "猫咪"}`),
	}

	records, err := BuildRecords(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	require.NotEmpty(t, records)

	byKanji := map[string]int{}
	for i, r := range records {
		if _, ok := byKanji[r.Kanji]; !ok {
			byKanji[r.Kanji] = i
		}
	}
	cat := records[byKanji["猫"]]
	assert.Equal(t, "N5", cat.Level)
	require.NotEmpty(t, cat.Meanings)
	assert.Equal(t, "猫咪", cat.Meanings[0].GlossCN)
	assert.Equal(t, "N5", records[byKanji["学校"]].Level, "level found by reading")
	assert.Equal(t, "N4", records[byKanji["東京"]].Level)
}

func TestBuildRecordsMissingTables(t *testing.T) {
	cfg := config.DictionaryConfig{
		CorpusPath:     sampleCorpus,
		LevelTablePath: "/nonexistent/levels.tsv",
		GlossTablePath: "/nonexistent/cn.json",
	}
	records, err := BuildRecords(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	for _, r := range records {
		assert.Empty(t, r.Level)
	}
}

func TestBuildRecordsMissingCorpus(t *testing.T) {
	_, err := BuildRecords(context.Background(), config.DictionaryConfig{CorpusPath: "/nonexistent/corpus.xml"}, discardLogger())
	require.Error(t, err)
}

func TestLoadDictionaryRebuildsAndWritesSnapshot(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DictionaryConfig{
		CorpusPath:     sampleCorpus,
		SnapshotPath:   filepath.Join(dir, "snap", "dict.json.gz"),
		WriteOnRebuild: true,
	}

	d, origin := LoadDictionary(context.Background(), cfg, discardLogger())
	assert.Equal(t, OriginCorpus, origin)
	require.Positive(t, d.Len())

	records, err := snapshot.ReadFile(cfg.SnapshotPath)
	require.NoError(t, err)
	assert.Len(t, records, d.Len())

	// Second load comes from the snapshot even without a corpus.
	cfg.CorpusPath = "/nonexistent/corpus.xml"
	d2, origin := LoadDictionary(context.Background(), cfg, discardLogger())
	assert.Equal(t, OriginSnapshot, origin)
	assert.Equal(t, d.Records(), d2.Records())
}

func TestLoadDictionaryCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DictionaryConfig{
		CorpusPath:   sampleCorpus,
		SnapshotPath: writeFile(t, dir, "dict.json.gz", "not gzip at all"),
	}

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	d, origin := LoadDictionary(context.Background(), cfg, logger)
	assert.Equal(t, OriginCorpus, origin)
	assert.Positive(t, d.Len())
	assert.Contains(t, logs.String(), "snapshot corrupt")

	// WriteOnRebuild is off, so the corrupt file is left alone.
	raw, err := os.ReadFile(cfg.SnapshotPath)
	require.NoError(t, err)
	assert.Equal(t, "not gzip at all", string(raw))
}

func TestLoadDictionaryFallsBackToEmpty(t *testing.T) {
	cfg := config.DictionaryConfig{
		CorpusPath:   "/nonexistent/corpus.xml",
		SnapshotPath: filepath.Join(t.TempDir(), "missing.json.gz"),
	}
	d, origin := LoadDictionary(context.Background(), cfg, discardLogger())
	assert.Equal(t, OriginEmpty, origin)
	assert.Zero(t, d.Len())
}

func TestOpenStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cards.db")
	conn, err := OpenStore(config.DatabaseConfig{Path: path})
	require.NoError(t, err)
	defer conn.Close()

	n, err := db.CountCards(conn)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBuildVersion(t *testing.T) {
	prev := Version
	t.Cleanup(func() { Version = prev })

	Version = "v1.2.3"
	assert.Equal(t, "v1.2.3", BuildVersion())

	Version = ""
	assert.False(t, strings.TrimSpace(BuildVersion()) == "")
}
