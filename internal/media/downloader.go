// Package media downloads the image jobs queued during aggregation.
package media

import (
	"context"
	"log/slog"
	"os"

	"github.com/IshaanNene/efdb-export/internal/fetcher"
	"github.com/IshaanNene/efdb-export/internal/observability"
	"github.com/IshaanNene/efdb-export/internal/types"
)

// Downloader fetches images to their destination paths. Destinations that
// already exist on disk are skipped without revalidating against the
// remote content, which makes reruns idempotent.
type Downloader struct {
	fetcher fetcher.Fetcher
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewDownloader creates an image downloader on top of a fetcher.
func NewDownloader(f fetcher.Fetcher, metrics *observability.Metrics, logger *slog.Logger) *Downloader {
	return &Downloader{
		fetcher: f,
		metrics: metrics,
		logger:  logger.With("component", "image_downloader"),
	}
}

// Download executes one image job. The response body is written verbatim;
// there is no content-type or integrity check. Parent directories must
// already exist.
func (d *Downloader) Download(ctx context.Context, job types.ImageJob) error {
	if _, err := os.Stat(job.Path); err == nil {
		d.metrics.ImagesSkipped.Add(1)
		d.logger.Debug("image exists, skipping", "path", job.Path)
		return nil
	}

	resp, err := d.fetcher.Fetch(ctx, job.URL)
	if err != nil {
		return err
	}

	if err := os.WriteFile(job.Path, resp.Body, 0o644); err != nil {
		return &types.StorageError{Backend: "image_cache", Err: err}
	}

	d.metrics.ImagesDownloaded.Add(1)
	d.metrics.BytesDownloaded.Add(int64(len(resp.Body)))
	d.logger.Info("image saved", "path", job.Path, "size", len(resp.Body))
	return nil
}
