package usecase

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/repo-trends/internal/domain"
)

// Analyzer turns fetched repositories into a table with derived columns and aggregates.
// It holds no state between calls.
type Analyzer struct {
	logger *log.Logger
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer(logger *log.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// LogScale returns log10(1+n). It is zero for n == 0 and positive otherwise.
func LogScale(n int) float64 {
	return math.Log10(1 + float64(n))
}

// Analyze builds the analyzed table, language ranking, year trend and summary.
// The input slice is never modified. An empty input is an AnalysisError.
func (a *Analyzer) Analyze(records []domain.RepositoryRecord) (*domain.Analysis, error) {
	if len(records) == 0 {
		return nil, domain.ErrNoRecords
	}

	table := make(domain.AnalyzedTable, 0, len(records))
	for i, rec := range records {
		if rec.Stars < 0 || rec.Forks < 0 || rec.Watchers < 0 {
			return nil, &domain.AnalysisError{Message: fmt.Sprintf("record %d (%s) has negative counts", i, rec.FullName)}
		}
		if rec.CreatedAt.IsZero() {
			return nil, &domain.AnalysisError{Message: fmt.Sprintf("record %d (%s) has no creation time", i, rec.FullName)}
		}
		table = append(table, domain.AnalyzedRow{
			RepositoryRecord: rec,
			LogStars:         LogScale(rec.Stars),
			LogForks:         LogScale(rec.Forks),
			Year:             rec.CreatedAt.UTC().Year(),
		})
	}

	summary, err := summarize(table)
	if err != nil {
		return nil, err
	}

	analysis := &domain.Analysis{
		Table:     table,
		Languages: aggregateLanguages(table),
		Years:     aggregateYears(table),
		Summary:   summary,
	}
	a.logger.Debug("Analysis complete", "rows", len(table), "languages", len(analysis.Languages), "years", len(analysis.Years))
	return analysis, nil
}

// summarize computes raw means rounded to one place and log means rounded to two.
func summarize(table domain.AnalyzedTable) (domain.SummaryStats, error) {
	n := len(table)
	starsData := make(stats.Float64Data, n)
	forksData := make(stats.Float64Data, n)
	watchersData := make(stats.Float64Data, n)
	logStarsData := make(stats.Float64Data, n)
	logForksData := make(stats.Float64Data, n)

	s := domain.SummaryStats{Count: n}
	for i, row := range table {
		s.TotalStars += row.Stars
		s.TotalForks += row.Forks
		s.TotalWatchers += row.Watchers
		starsData[i] = float64(row.Stars)
		forksData[i] = float64(row.Forks)
		watchersData[i] = float64(row.Watchers)
		logStarsData[i] = row.LogStars
		logForksData[i] = row.LogForks
	}

	var err error
	if s.MeanStars, err = roundedMean(starsData, 1); err != nil {
		return s, err
	}
	if s.MeanForks, err = roundedMean(forksData, 1); err != nil {
		return s, err
	}
	if s.MeanWatchers, err = roundedMean(watchersData, 1); err != nil {
		return s, err
	}
	if s.MeanLogStars, err = roundedMean(logStarsData, 2); err != nil {
		return s, err
	}
	if s.MeanLogForks, err = roundedMean(logForksData, 2); err != nil {
		return s, err
	}
	if s.MedianStars, err = stats.Median(starsData); err != nil {
		return s, &domain.AnalysisError{Message: fmt.Sprintf("median stars: %v", err)}
	}

	// Stars of a repository sitting exactly at the log-scale mean.
	s.EquivalentStars = int(math.Pow(10, s.MeanLogStars) - 1)
	return s, nil
}

func roundedMean(data stats.Float64Data, places int) (float64, error) {
	mean, err := stats.Mean(data)
	if err != nil {
		return 0, &domain.AnalysisError{Message: fmt.Sprintf("mean: %v", err)}
	}
	rounded, err := stats.Round(mean, places)
	if err != nil {
		return 0, &domain.AnalysisError{Message: fmt.Sprintf("round: %v", err)}
	}
	return rounded, nil
}
