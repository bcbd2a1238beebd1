package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/aluiziolira/go-scrape-products/render"
)

// SinkFactory opens the sink for one partition of run runID. Each partition
// gets its own sink so no two workers share an output.
type SinkFactory func(runID string, partition models.Partition) (Sink, error)

// Coordinator partitions the page range and runs one worker per partition.
type Coordinator struct {
	cfg       *config.Config
	sessions  render.Factory
	lister    *ItemLister
	extractor *FieldExtractor
	sinks     SinkFactory
	metrics   *Metrics
}

// NewCoordinator wires a coordinator. metrics may be nil.
func NewCoordinator(cfg *config.Config, sessions render.Factory, extractor *FieldExtractor, sinks SinkFactory, metrics *Metrics) (*Coordinator, error) {
	if cfg == nil {
		return nil, errors.New("coordinator: config is required")
	}
	if sessions == nil || extractor == nil || sinks == nil {
		return nil, errors.New("coordinator: sessions, extractor and sinks are required")
	}
	return &Coordinator{
		cfg:       cfg,
		sessions:  sessions,
		lister:    NewItemLister(cfg.ItemSelector),
		extractor: extractor,
		sinks:     sinks,
		metrics:   metrics,
	}, nil
}

// Run processes pages 1..totalPages with workerCount concurrent workers and
// waits for all of them. A failed partition never stops the others. Run
// returns ErrNoPartitions when not a single worker could be started.
func (c *Coordinator) Run(ctx context.Context, totalPages, workerCount int) (*models.RunResult, error) {
	partitions, err := Partition(totalPages, workerCount)
	if err != nil {
		return nil, err
	}

	result := &models.RunResult{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}
	logger := slog.Default().With(slog.String("run_id", result.RunID))
	logger.Info("starting workers",
		slog.Int("pages", totalPages),
		slog.Int("workers", workerCount),
	)

	slots := make([]*models.RunSummary, len(partitions))
	var wg sync.WaitGroup
	scheduled := 0

	for _, p := range partitions {
		if p.Empty() {
			logger.Debug("skipping empty partition", slog.Int("partition", p.Index))
			continue
		}
		if !c.cfg.RunsPartition(p.Index) {
			logger.Info("partition not selected", slog.Int("partition", p.Index))
			continue
		}

		worker, err := c.startWorker(ctx, result.RunID, p)
		if err != nil {
			logger.Error("cannot start worker",
				slog.Int("partition", p.Index),
				slog.Any("error", err),
			)
			now := time.Now()
			slots[p.Index] = &models.RunSummary{
				Partition:   p,
				Status:      models.StatusFailed,
				StartedAt:   now,
				CompletedAt: now,
				Err:         err.Error(),
			}
			continue
		}

		scheduled++
		wg.Add(1)
		go func(index int, w *Worker) {
			defer wg.Done()
			summary, _ := w.Run(ctx)
			slots[index] = &summary
		}(p.Index, worker)
	}

	wg.Wait()
	result.EndTime = time.Now()

	for _, s := range slots {
		if s != nil {
			result.Summaries = append(result.Summaries, *s)
		}
	}

	if scheduled == 0 {
		return result, ErrNoPartitions
	}
	logger.Info("run finished",
		slog.Int("completed", result.Completed()),
		slog.Int("succeeded", result.Succeeded()),
		slog.Int("failed", result.Failed()),
		slog.Duration("took", result.EndTime.Sub(result.StartTime)),
	)
	return result, nil
}

func (c *Coordinator) startWorker(ctx context.Context, runID string, p models.Partition) (*Worker, error) {
	sink, err := c.sinks(runID, p)
	if err != nil {
		return nil, fmt.Errorf("open sink: %w", err)
	}
	session, err := c.sessions.Acquire(ctx)
	if err != nil {
		_ = sink.Close()
		return nil, fmt.Errorf("acquire session: %w", err)
	}
	worker, err := NewWorker(WorkerOptions{
		Partition: p,
		Session:   session,
		Sink:      sink,
		Lister:    c.lister,
		Extractor: c.extractor,
		Config:    c.cfg,
		Metrics:   c.metrics,
	})
	if err != nil {
		_ = sink.Close()
		_ = session.Close()
		return nil, err
	}
	return worker, nil
}
