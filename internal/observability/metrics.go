package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational counters for one export run.
type Metrics struct {
	// Page metrics
	PagesFetched atomic.Int64

	// Dataset metrics
	FacilitiesDiscovered atomic.Int64
	ItemsDiscovered      atomic.Int64
	RecipesDiscovered    atomic.Int64

	// Image metrics
	ImagesDownloaded atomic.Int64
	ImagesSkipped    atomic.Int64
	BytesDownloaded  atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"efdb_pages_fetched_total", "Total wiki pages fetched", m.PagesFetched.Load()},
		{"efdb_facilities_discovered_total", "Total facilities discovered", m.FacilitiesDiscovered.Load()},
		{"efdb_items_discovered_total", "Total items discovered", m.ItemsDiscovered.Load()},
		{"efdb_recipes_discovered_total", "Total recipes discovered", m.RecipesDiscovered.Load()},
		{"efdb_images_downloaded_total", "Total images downloaded", m.ImagesDownloaded.Load()},
		{"efdb_images_skipped_total", "Total images skipped (already cached)", m.ImagesSkipped.Load()},
		{"efdb_bytes_downloaded_total", "Total image bytes downloaded", m.BytesDownloaded.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"pages_fetched":         m.PagesFetched.Load(),
		"facilities_discovered": m.FacilitiesDiscovered.Load(),
		"items_discovered":      m.ItemsDiscovered.Load(),
		"recipes_discovered":    m.RecipesDiscovered.Load(),
		"images_downloaded":     m.ImagesDownloaded.Load(),
		"images_skipped":        m.ImagesSkipped.Load(),
		"bytes_downloaded":      m.BytesDownloaded.Load(),
	}
}
