package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/naka-gawa/repo-trends/internal/domain"
	"github.com/naka-gawa/repo-trends/internal/gateway"
)

// Pipeline is the use case behind one user-triggered run.
// It orchestrates a single fetch followed by the analysis.
type Pipeline struct {
	fetcher  gateway.Fetcher
	analyzer *Analyzer
	logger   *log.Logger
}

// NewPipeline creates a new Pipeline instance.
func NewPipeline(fetcher gateway.Fetcher, logger *log.Logger) *Pipeline {
	return &Pipeline{
		fetcher:  fetcher,
		analyzer: NewAnalyzer(logger),
		logger:   logger,
	}
}

// Run validates query, fetches the matching repositories once and analyzes them.
// Errors are returned as-is; nothing is retried.
func (p *Pipeline) Run(ctx context.Context, query domain.SearchQuery) (*domain.Analysis, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger := p.logger.With("run", id)
	start := time.Now()
	logger.Info("Fetching repositories", "q", query.Text, "sort", query.Sort, "order", query.Order, "count", query.Count)

	records, err := p.fetcher.SearchRepositories(ctx, query)
	if err != nil {
		logger.Error("Fetch failed", "err", err)
		return nil, fmt.Errorf("run %s: %w", id, err)
	}

	analysis, err := p.analyzer.Analyze(records)
	if err != nil {
		logger.Warn("Analysis failed", "err", err)
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	analysis.ID = id
	analysis.Query = query

	logger.Info("Analyzed repositories", "rows", len(analysis.Table), "elapsed", time.Since(start).Round(time.Millisecond))
	return analysis, nil
}

// Quota returns the remaining API budget, if the fetcher can report it.
func (p *Pipeline) Quota(ctx context.Context) (domain.Quota, error) {
	return p.fetcher.FetchQuota(ctx)
}
