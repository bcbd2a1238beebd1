package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/aluiziolira/go-scrape-products/render"
)

// State is the position of a worker in its partition loop.
type State int

const (
	StateIdle State = iota
	StateFetchingPage
	StateListingItems
	StateExtractingItem
	StateWriting
	StatePartitionDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetchingPage:
		return "fetching_page"
	case StateListingItems:
		return "listing_items"
	case StateExtractingItem:
		return "extracting_item"
	case StateWriting:
		return "writing"
	case StatePartitionDone:
		return "partition_done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Sink persists the records of a single partition. Write must be durable
// when it returns nil. Close flushes any end-of-partition output.
type Sink interface {
	Write(ctx context.Context, rec *models.Record) error
	Close() error
}

// WorkerOptions wires a worker to its partition and collaborators.
type WorkerOptions struct {
	Partition models.Partition
	Session   render.Session
	Sink      Sink
	Lister    *ItemLister
	Extractor *FieldExtractor
	Config    *config.Config
	Metrics   *Metrics
}

// Worker processes one partition sequentially with a session it owns.
type Worker struct {
	partition models.Partition
	session   render.Session
	sink      Sink
	lister    *ItemLister
	extractor *FieldExtractor
	template  string
	retry     retryPolicy
	metrics   *Metrics
	seen      *lru.Cache[string, struct{}]
	logger    *slog.Logger

	state   State
	summary models.RunSummary
}

// NewWorker validates options and builds an idle worker.
func NewWorker(opts WorkerOptions) (*Worker, error) {
	switch {
	case opts.Session == nil:
		return nil, errors.New("worker: session is required")
	case opts.Sink == nil:
		return nil, errors.New("worker: sink is required")
	case opts.Lister == nil:
		return nil, errors.New("worker: lister is required")
	case opts.Extractor == nil:
		return nil, errors.New("worker: extractor is required")
	case opts.Config == nil:
		return nil, errors.New("worker: config is required")
	}

	size := opts.Config.DedupeMaxSize
	if size <= 0 {
		size = config.DefaultConfig().DedupeMaxSize
	}
	seen, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("worker: dedupe cache: %w", err)
	}

	return &Worker{
		partition: opts.Partition,
		session:   opts.Session,
		sink:      opts.Sink,
		lister:    opts.Lister,
		extractor: opts.Extractor,
		template:  opts.Config.PageURLTemplate,
		retry:     newRetryPolicy(opts.Config),
		metrics:   opts.Metrics,
		seen:      seen,
		logger:    slog.Default().With(slog.Int("partition", opts.Partition.Index)),
		state:     StateIdle,
	}, nil
}

// State returns the current loop state. Only meaningful from the worker's
// own goroutine or after Run returned.
func (w *Worker) State() State {
	return w.state
}

// Run walks every page of the partition in ascending order. Page and item
// failures are counted and skipped; only a sink failure aborts the
// partition. The session and sink are released before Run returns.
func (w *Worker) Run(ctx context.Context) (models.RunSummary, error) {
	w.summary = models.RunSummary{
		Partition:    w.partition,
		ErrorsByType: make(map[string]int),
		StartedAt:    time.Now(),
	}
	w.metrics.WorkerStarted()
	defer w.metrics.WorkerDone()
	defer w.release()

	w.logger.Info("worker started",
		slog.Int("first_page", w.partition.First),
		slog.Int("last_page", w.partition.Last),
	)

	for _, page := range w.partition.Pages() {
		if ctx.Err() != nil {
			return w.finish(models.StatusCancelled, nil)
		}
		if err := w.processPage(ctx, page); err != nil {
			return w.finish(models.StatusFailed, err)
		}
		w.logger.Info("page processed",
			slog.Int("page", page),
			slog.Int("succeeded", w.summary.Succeeded),
			slog.Int("failed", w.summary.Failed),
		)
	}
	if ctx.Err() != nil {
		return w.finish(models.StatusCancelled, nil)
	}
	return w.finish(models.StatusCompleted, nil)
}

func (w *Worker) processPage(ctx context.Context, page int) error {
	w.transition(StateFetchingPage)
	url := PageURL(w.template, page)

	doc, attempts, err := w.navigate(ctx, phasePage, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		fetchErr := PageFetchError{Page: page, URL: url, Attempts: attempts, Err: err}
		w.summary.Failed++
		w.summary.PagesFailed++
		w.summary.FailedPages = append(w.summary.FailedPages, page)
		w.metrics.IncPageFailed()
		w.logger.Error("skipping page", slog.Any("error", fetchErr))
		return nil
	}

	w.transition(StateListingItems)
	for locator := range w.lister.ListItems(doc) {
		if ctx.Err() != nil {
			return nil
		}
		if w.seen.Contains(locator) {
			w.summary.Duplicates++
			w.logger.Debug("duplicate item", slog.String("url", locator))
			continue
		}
		if err := w.processItem(ctx, page, locator); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) processItem(ctx context.Context, page int, locator string) error {
	w.transition(StateExtractingItem)
	itemPage, attempts, err := w.navigate(ctx, phaseItem, locator)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		fetchErr := ItemFetchError{Page: page, URL: locator, Attempts: attempts, Err: err}
		w.summary.Failed++
		w.summary.ItemsFailed++
		w.summary.FailedItems = append(w.summary.FailedItems, locator)
		w.metrics.IncItemFailed()
		w.logger.Error("skipping item", slog.Any("error", fetchErr))
		return nil
	}

	rec := w.extractor.Extract(locator, itemPage)

	w.transition(StateWriting)
	// An item that reached the write step is persisted even if the run is
	// being cancelled.
	if err := w.sink.Write(context.WithoutCancel(ctx), rec); err != nil {
		return SinkWriteError{Partition: w.partition.Index, URL: locator, Err: err}
	}
	w.seen.Add(locator, struct{}{})
	w.summary.Succeeded++
	w.metrics.IncRecords()
	return nil
}

func (w *Worker) navigate(ctx context.Context, phase, url string) (render.Page, int, error) {
	var page render.Page
	attempts, err := w.retry.do(ctx, func() error {
		start := time.Now()
		w.metrics.IncRequest(phase)
		p, err := w.session.Navigate(ctx, url)
		w.metrics.ObserveDuration(time.Since(start))
		if err != nil {
			label := errorTypeLabel(classifyNavigation(err))
			w.summary.ErrorsByType[label]++
			w.metrics.IncError(label)
			return err
		}
		page = p
		return nil
	}, func(attempt int, err error) {
		w.summary.Retries++
		w.metrics.IncRetries()
		w.logger.Warn("retrying navigation",
			slog.String("url", url),
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)
	})
	return page, attempts, err
}

func (w *Worker) finish(status models.PartitionStatus, err error) (models.RunSummary, error) {
	w.transition(StatePartitionDone)
	w.summary.Status = status
	w.summary.CompletedAt = time.Now()
	if err != nil {
		w.summary.Err = err.Error()
		w.logger.Error("partition failed", slog.Any("error", err))
	} else {
		w.logger.Info("worker finished",
			slog.String("status", string(status)),
			slog.Int("succeeded", w.summary.Succeeded),
			slog.Int("failed", w.summary.Failed),
			slog.Duration("took", w.summary.Duration()),
		)
	}
	return w.summary, err
}

func (w *Worker) release() {
	if err := w.sink.Close(); err != nil {
		w.logger.Warn("closing sink", slog.Any("error", err))
	}
	if err := w.session.Close(); err != nil {
		w.logger.Warn("closing session", slog.Any("error", err))
	}
}

func (w *Worker) transition(next State) {
	w.logger.Debug("state", slog.String("from", w.state.String()), slog.String("to", next.String()))
	w.state = next
}
