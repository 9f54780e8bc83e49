// Package pipeline orchestrates the five-phase export run: facility
// discovery, facility page parsing, aggregation, item detail parsing,
// and image download plus serialization.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/IshaanNene/efdb-export/internal/config"
	"github.com/IshaanNene/efdb-export/internal/export"
	"github.com/IshaanNene/efdb-export/internal/media"
	"github.com/IshaanNene/efdb-export/internal/observability"
	"github.com/IshaanNene/efdb-export/internal/parser"
	"github.com/IshaanNene/efdb-export/internal/wiki"
)

// Pipeline runs the full export. Any fetch, parse or filesystem error on
// any page aborts the run; JSON is only written after every image job has
// completed, so a failed run leaves no JSON behind (partially downloaded
// images may remain and are reused by the next run).
type Pipeline struct {
	cfg        *config.Config
	client     *wiki.Client
	discovery  *parser.DiscoveryParser
	downloader *media.Downloader
	sink       export.Sink
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// New assembles a pipeline from its collaborators.
func New(cfg *config.Config, client *wiki.Client, discovery *parser.DiscoveryParser,
	downloader *media.Downloader, sink export.Sink, metrics *observability.Metrics,
	logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		client:     client,
		discovery:  discovery,
		downloader: downloader,
		sink:       sink,
		metrics:    metrics,
		logger:     logger.With("component", "pipeline"),
	}
}

// Run executes all phases and returns the exported dataset.
func (p *Pipeline) Run(ctx context.Context) (*export.Dataset, error) {
	if err := p.createImageDirs(); err != nil {
		return nil, err
	}

	// Phase 1: facility discovery.
	indexHTML, err := p.client.PageFragment(ctx, p.cfg.Wiki.IndexPage)
	if err != nil {
		return nil, err
	}
	p.metrics.PagesFetched.Add(1)

	names, err := p.discovery.FacilityNames(indexHTML)
	if err != nil {
		return nil, err
	}
	p.logger.Info("facilities discovered", "count", len(names))

	// Phase 2: facility pages, fetched and parsed in parallel. Results
	// land at the index of their facility name so aggregation order
	// matches discovery order.
	pages := make([]*parser.FacilityPage, len(names))
	err = p.forEach(ctx, len(names), func(ctx context.Context, i int) error {
		doc, err := p.client.PageHTML(ctx, names[i])
		if err != nil {
			return err
		}
		p.metrics.PagesFetched.Add(1)
		page, err := parser.ParseFacilityPage(doc, names[i])
		if err != nil {
			return err
		}
		pages[i] = page
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Phase 3: aggregation, strictly sequential.
	agg := export.NewAggregator(p.client.BaseURL(), p.cfg.Export.Dir)
	for i, name := range names {
		if err := agg.AddFacility(name, pages[i]); err != nil {
			return nil, err
		}
	}
	ds := agg.Dataset()

	p.metrics.FacilitiesDiscovered.Store(int64(len(ds.Facilities())))
	p.metrics.ItemsDiscovered.Store(int64(len(ds.Items())))
	p.metrics.RecipesDiscovered.Store(int64(len(ds.Recipes())))
	p.logger.Info("aggregation complete",
		"facilities", len(ds.Facilities()),
		"items", len(ds.Items()),
		"recipes", len(ds.Recipes()),
	)

	// Phase 4: item detail pages, applied back positionally.
	itemNames := ds.ItemNames()
	details := make([]*parser.ItemPage, len(itemNames))
	err = p.forEach(ctx, len(itemNames), func(ctx context.Context, i int) error {
		doc, err := p.client.PageHTML(ctx, itemNames[i])
		if err != nil {
			return err
		}
		p.metrics.PagesFetched.Add(1)
		detail, err := parser.ParseItemPage(doc, itemNames[i])
		if err != nil {
			return err
		}
		details[i] = detail
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := agg.ApplyItemDetails(details); err != nil {
		return nil, err
	}

	// Phase 5: image downloads, then serialization.
	jobs := ds.Jobs()
	err = p.forEach(ctx, len(jobs), func(ctx context.Context, i int) error {
		return p.downloader.Download(ctx, jobs[i])
	})
	if err != nil {
		return nil, err
	}

	if err := p.sink.Write(ctx, ds); err != nil {
		return nil, err
	}

	return ds, nil
}

// createImageDirs pre-creates the two fixed image roots. Download jobs
// assume their parent directories exist.
func (p *Pipeline) createImageDirs() error {
	for _, sub := range []string{"items", "facilities"} {
		dir := filepath.Join(p.cfg.Export.Dir, "images", sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create image dir %s: %w", dir, err)
		}
	}
	return nil
}

// forEach runs fn for indexes 0..n-1 with at most the configured
// concurrency in flight, then barrier-waits for all of them. The first
// error cancels the remaining work and is returned.
func (p *Pipeline) forEach(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, p.cfg.Fetcher.Concurrency)
	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			if err := fn(ctx, i); err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
