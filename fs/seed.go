package fs

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/fwojciec/bggcrawl"
)

// Seed fields, in order of preference.
var (
	gameIDFields   = []string{"bgg_id", "bggId"}
	userNameFields = []string{"bgg_user_name", "bggUserName"}
)

// maxLineSize bounds a single JSON line.
const maxLineSize = 16 * 1024 * 1024

// ReadField returns the non-empty values of field from a JSON lines
// (.jl, .jsonl, .jsonlines, .ndjson) or CSV file, in file order.
// Missing files and unsupported extensions are skipped with a warning;
// unparseable lines are skipped with a warning.
func ReadField(path, field string, logger *slog.Logger) ([]string, error) {
	var values []string
	err := readRecords(path, logger, func(record map[string]string) {
		if v := record[field]; v != "" {
			values = append(values, v)
		}
	})
	return values, err
}

// ReadGameIDs collects the distinct game IDs from seed files. A record
// without an ID field contributes the ID resolved from its url field.
func ReadGameIDs(logger *slog.Logger, paths ...string) ([]bggcrawl.EntityID, error) {
	seen := make(map[bggcrawl.EntityID]bool)
	var ids []bggcrawl.EntityID

	for _, path := range paths {
		err := readRecords(path, logger, func(record map[string]string) {
			raw := first(record, gameIDFields)
			if raw == "" {
				raw = bggcrawl.ResolveURLs(record["url"]).First(bggcrawl.NamespaceBGG)
			}
			id, ok := bggcrawl.ParseEntityID(raw)
			if !ok || seen[id] {
				return
			}
			seen[id] = true
			ids = append(ids, id)
		})
		if err != nil {
			return nil, err
		}
	}

	slices.Sort(ids)
	orDiscard(logger).Info("loaded game IDs", "count", len(ids), "files", len(paths))
	return ids, nil
}

// ReadUserNames collects the distinct lowercased user names from seed files.
func ReadUserNames(logger *slog.Logger, paths ...string) ([]string, error) {
	seen := make(map[string]bool)
	var names []string

	for _, path := range paths {
		err := readRecords(path, logger, func(record map[string]string) {
			name := strings.ToLower(strings.TrimSpace(first(record, userNameFields)))
			if name == "" || seen[name] {
				return
			}
			seen[name] = true
			names = append(names, name)
		})
		if err != nil {
			return nil, err
		}
	}

	slices.Sort(names)
	orDiscard(logger).Info("loaded user names", "count", len(names), "files", len(paths))
	return names, nil
}

func first(record map[string]string, fields []string) string {
	for _, f := range fields {
		if v := record[f]; v != "" {
			return v
		}
	}
	return ""
}

// readRecords calls fn with the scalar fields of every record in the file.
func readRecords(path string, logger *slog.Logger, fn func(map[string]string)) error {
	logger = orDiscard(logger)

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("skipping non-existing file", "path", path)
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jl", ".jsonl", ".jsonlines", ".ndjson":
		return readJSONLines(f, path, logger, fn)
	case ".csv":
		return readCSV(f, path, fn)
	default:
		logger.Warn("skipping unsupported file", "path", path)
		return nil
	}
}

func readJSONLines(r io.Reader, path string, logger *slog.Logger, fn func(map[string]string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			logger.Warn("skipping unparseable JSON line", "path", path, "line", line, "error", err)
			continue
		}

		record := make(map[string]string, len(obj))
		for k, v := range obj {
			switch v := v.(type) {
			case string:
				record[k] = v
			case json.Number:
				record[k] = v.String()
			case bool:
				record[k] = strconv.FormatBool(v)
			}
		}
		fn(record)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

func readCSV(r io.Reader, path string, fn func(map[string]string)) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		record := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				record[name] = row[i]
			}
		}
		fn(record)
	}
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
