package dictionary

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LoadTable reads an auxiliary lookup table keyed by spelling or reading.
// Files ending in .json hold a single JSON object of string values. Any other
// file is read as tab-separated "key<TAB>value" lines; blank lines and lines
// starting with '#' are skipped.
func LoadTable(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return readJSONTable(f)
	}
	return readTSVTable(f)
}

func readJSONTable(r io.Reader) (map[string]string, error) {
	var table map[string]string
	if err := json.NewDecoder(r).Decode(&table); err != nil {
		return nil, fmt.Errorf("decode table: %w", err)
	}
	if table == nil {
		table = map[string]string{}
	}
	return table, nil
}

func readTSVTable(r io.Reader) (map[string]string, error) {
	table := make(map[string]string)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}
		key, value, ok := strings.Cut(text, "\t")
		if !ok {
			return nil, fmt.Errorf("line %d: expected key<TAB>value", line)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("line %d: empty key", line)
		}
		if _, dup := table[key]; !dup {
			table[key] = strings.TrimSpace(value)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return table, nil
}
