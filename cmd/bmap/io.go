package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.uber.org/multierr"

	"github.com/jrhy/bmap"
)

type anyMap = bmap.Map[any, any]

func readMap(path string) (*anyMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := bmap.NewWithConfig[any, any](&bmap.Config{Logger: slog.Default()})
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("loaded map", slog.String("path", path), slog.Int("entries", m.Size()))
	return m, nil
}

// readMaps reads every path, reporting all unreadable files together.
func readMaps(paths ...string) ([]*anyMap, error) {
	maps := make([]*anyMap, len(paths))
	var errs error
	for i, path := range paths {
		m, err := readMap(path)
		errs = multierr.Append(errs, err)
		maps[i] = m
	}
	if errs != nil {
		return nil, errs
	}
	return maps, nil
}

func writeMap(out io.Writer, m *anyMap) error {
	return json.NewEncoder(out).Encode(m)
}

// parseKey reads a key given on the command line as JSON, falling back to
// treating it as a plain string.
func parseKey(s string) any {
	var key any
	if err := json.Unmarshal([]byte(s), &key); err != nil {
		return s
	}
	return key
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
