package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/naka-gawa/repo-trends/internal/chart"
	"github.com/naka-gawa/repo-trends/internal/domain"
)

type renderer func(w io.Writer, a *domain.Analysis) error

var renderers = map[string]renderer{
	"table": writeTable,
	"json":  writeJSON,
	"csv":   writeCSV,
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func comma(n int) string {
	return humanize.Comma(int64(n))
}

// writeTable prints the analysis as styled terminal tables.
func writeTable(w io.Writer, a *domain.Analysis) error {
	s := a.Summary
	var b strings.Builder

	fmt.Fprintln(&b, titleStyle.Render(fmt.Sprintf("Analyzed %d repositories for %q (sorted by %s, %s)", s.Count, a.Query.Text, a.Query.Sort, a.Query.Order)))
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, titleStyle.Render("Raw averages"))
	fmt.Fprintf(&b, "  Stars %.1f   Forks %.1f   Watchers %.1f   Median stars %.1f\n", s.MeanStars, s.MeanForks, s.MeanWatchers, s.MedianStars)
	fmt.Fprintln(&b, titleStyle.Render("Log-transformed averages"))
	fmt.Fprintf(&b, "  Log(Stars) %.2f   Log(Forks) %.2f   Equivalent stars %s\n\n", s.MeanLogStars, s.MeanLogForks, comma(s.EquivalentStars))

	langs := newTable("Language", "Repos", "Stars", "Forks")
	for _, l := range a.TopLanguages(chart.TopLanguages) {
		langs.Row(l.Language, strconv.Itoa(l.Repos), comma(l.Stars), comma(l.Forks))
	}
	fmt.Fprintln(&b, titleStyle.Render("Top languages"))
	fmt.Fprintln(&b, langs.Render())

	years := newTable("Year", "Repos")
	for _, y := range a.Years {
		years.Row(strconv.Itoa(y.Year), strconv.Itoa(y.Repos))
	}
	fmt.Fprintln(&b, titleStyle.Render("Creation trend"))
	fmt.Fprintln(&b, years.Render())

	repos := newTable("Name", "Stars", "Forks", "Watchers", "Language", "Created")
	for _, row := range a.Table {
		repos.Row(row.FullName, comma(row.Stars), comma(row.Forks), comma(row.Watchers), row.LanguageOrUnknown(), row.CreatedAt.UTC().Format("2006-01-02"))
	}
	fmt.Fprintln(&b, titleStyle.Render("Fetched data"))
	fmt.Fprintln(&b, repos.Render())

	_, err := io.WriteString(w, b.String())
	return err
}

// writeJSON prints the whole analysis as indented JSON.
func writeJSON(w io.Writer, a *domain.Analysis) error {
	jsonData, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

// writeCSV prints one line per analyzed row, derived columns included.
func writeCSV(w io.Writer, a *domain.Analysis) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"full_name", "html_url", "language", "stars", "forks", "watchers", "created_at", "year", "log_stars", "log_forks",
	}); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, row := range a.Table {
		if err := cw.Write([]string{
			row.FullName,
			row.HTMLURL,
			row.LanguageOrUnknown(),
			strconv.Itoa(row.Stars),
			strconv.Itoa(row.Forks),
			strconv.Itoa(row.Watchers),
			row.CreatedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(row.Year),
			strconv.FormatFloat(row.LogStars, 'f', 4, 64),
			strconv.FormatFloat(row.LogForks, 'f', 4, 64),
		}); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
