package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/IshaanNene/efdb-export/internal/types"
)

// Sink persists a finished dataset.
type Sink interface {
	// Name identifies the sink in logs and errors.
	Name() string

	// Write persists all three datasets.
	Write(ctx context.Context, ds *Dataset) error

	// Close releases any resources held by the sink.
	Close() error
}

// --- JSON Sink ---

// JSONSink writes items.json, facilities.json and recipes.json under the
// export directory. Files are fully overwritten each run.
type JSONSink struct {
	dir    string
	logger *slog.Logger
}

// NewJSONSink creates a JSON file sink rooted at dir.
func NewJSONSink(dir string, logger *slog.Logger) *JSONSink {
	return &JSONSink{
		dir:    dir,
		logger: logger.With("component", "json_sink"),
	}
}

func (s *JSONSink) Name() string { return "json" }

func (s *JSONSink) Write(_ context.Context, ds *Dataset) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}

	files := []struct {
		name string
		data any
	}{
		{"items.json", ds.Items()},
		{"facilities.json", ds.Facilities()},
		{"recipes.json", ds.Recipes()},
	}

	for _, f := range files {
		path := filepath.Join(s.dir, f.name)
		if err := s.writeFile(path, f.data); err != nil {
			return &types.StorageError{Backend: s.Name(), Err: err}
		}
		s.logger.Info("JSON written", "path", path)
	}
	return nil
}

func (s *JSONSink) Close() error { return nil }

// writeFile encodes v as a two-space-indented JSON document with
// non-ASCII and HTML characters preserved literally.
func (s *JSONSink) writeFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("encode JSON: %w", err)
	}
	return f.Close()
}

// --- Multi-Sink Fan-Out ---

// MultiSink writes a dataset to multiple backends, reporting the first
// failure after attempting all of them.
type MultiSink struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewMultiSink creates a sink that fans out to multiple backends.
func NewMultiSink(sinks []Sink, logger *slog.Logger) *MultiSink {
	return &MultiSink{
		sinks:  sinks,
		logger: logger.With("component", "multi_sink"),
	}
}

func (s *MultiSink) Name() string { return "multi" }

func (s *MultiSink) Write(ctx context.Context, ds *Dataset) error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, ds); err != nil {
			s.logger.Error("sink write failed", "sink", sink.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *MultiSink) Close() error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
