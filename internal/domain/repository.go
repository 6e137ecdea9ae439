// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// UnknownLanguage is the bucket used for repositories GitHub reports no language for.
const UnknownLanguage = "unknown"

// RepositoryRecord is a single item of a repository search response.
// It is read-only once mapped from the API.
type RepositoryRecord struct {
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	HTMLURL     string    `json:"html_url"`
	Description string    `json:"description"`
	Language    *string   `json:"language"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	Watchers    int       `json:"watchers_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// LanguageOrUnknown returns the repository language, or UnknownLanguage when GitHub did not report one.
func (r RepositoryRecord) LanguageOrUnknown() string {
	if r.Language == nil || *r.Language == "" {
		return UnknownLanguage
	}
	return *r.Language
}

// AnalyzedRow is a RepositoryRecord extended with derived columns.
type AnalyzedRow struct {
	RepositoryRecord
	LogStars float64 `json:"log_stars"`
	LogForks float64 `json:"log_forks"`
	Year     int     `json:"year"`
}

// AnalyzedTable holds one row per fetched repository, in fetch order.
type AnalyzedTable []AnalyzedRow

// LanguageTotal is the per-language aggregate used for the language ranking.
type LanguageTotal struct {
	Language string `json:"language"`
	Repos    int    `json:"repos"`
	Stars    int    `json:"stars"`
	Forks    int    `json:"forks"`
}

// YearCount is the number of repositories created in a given year.
type YearCount struct {
	Year  int `json:"year"`
	Repos int `json:"repos"`
}

// SummaryStats holds the scalar aggregates of one analysis run.
type SummaryStats struct {
	Count           int     `json:"count"`
	TotalStars      int     `json:"total_stars"`
	TotalForks      int     `json:"total_forks"`
	TotalWatchers   int     `json:"total_watchers"`
	MeanStars       float64 `json:"mean_stars"`
	MeanForks       float64 `json:"mean_forks"`
	MeanWatchers    float64 `json:"mean_watchers"`
	MedianStars     float64 `json:"median_stars"`
	MeanLogStars    float64 `json:"mean_log_stars"`
	MeanLogForks    float64 `json:"mean_log_forks"`
	EquivalentStars int     `json:"equivalent_stars"`
}

// Analysis is the complete result of one user-triggered run.
// Nothing in it outlives the run.
type Analysis struct {
	ID        string          `json:"id"`
	Query     SearchQuery     `json:"query"`
	Table     AnalyzedTable   `json:"table"`
	Languages []LanguageTotal `json:"languages"`
	Years     []YearCount     `json:"years"`
	Summary   SummaryStats    `json:"summary"`
}

// TopLanguages returns at most n entries of the language ranking.
func (a *Analysis) TopLanguages(n int) []LanguageTotal {
	if n < 0 || n >= len(a.Languages) {
		return a.Languages
	}
	return a.Languages[:n]
}

// Quota is the remaining API budget reported for the configured token.
type Quota struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}
