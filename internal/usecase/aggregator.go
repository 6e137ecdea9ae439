// Package usecase contains the business logic of the application.
package usecase

import (
	"sort"

	"github.com/naka-gawa/repo-trends/internal/domain"
)

// aggregateLanguages groups rows by language and ranks the groups by summed
// stars, then summed forks, then name, so the order is fully deterministic.
func aggregateLanguages(table domain.AnalyzedTable) []domain.LanguageTotal {
	totals := make(map[string]*domain.LanguageTotal)

	// Helper function to ensure a map entry exists.
	ensureLanguage := func(lang string) *domain.LanguageTotal {
		if _, ok := totals[lang]; !ok {
			totals[lang] = &domain.LanguageTotal{Language: lang}
		}
		return totals[lang]
	}

	for _, row := range table {
		total := ensureLanguage(row.LanguageOrUnknown())
		total.Repos++
		total.Stars += row.Stars
		total.Forks += row.Forks
	}

	ranked := make([]domain.LanguageTotal, 0, len(totals))
	for _, total := range totals {
		ranked = append(ranked, *total)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Stars != ranked[j].Stars {
			return ranked[i].Stars > ranked[j].Stars
		}
		if ranked[i].Forks != ranked[j].Forks {
			return ranked[i].Forks > ranked[j].Forks
		}
		return ranked[i].Language < ranked[j].Language
	})
	return ranked
}

// aggregateYears counts repositories per creation year, oldest first.
func aggregateYears(table domain.AnalyzedTable) []domain.YearCount {
	counts := make(map[int]int)
	for _, row := range table {
		counts[row.Year]++
	}

	trend := make([]domain.YearCount, 0, len(counts))
	for year, n := range counts {
		trend = append(trend, domain.YearCount{Year: year, Repos: n})
	}
	sort.Slice(trend, func(i, j int) bool {
		return trend[i].Year < trend[j].Year
	})
	return trend
}
