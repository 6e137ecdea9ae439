// Package chart builds the visualizations shown for an analysis.
package chart

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/naka-gawa/repo-trends/internal/domain"
)

// TopLanguages is how many languages the language chart shows.
const TopLanguages = 10

const (
	width  = "100%"
	height = "420px"
)

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle: title,
		Width:     width,
		Height:    height,
	})
}

// Languages is a bar chart of summed stars and forks for the top n languages.
func Languages(a *domain.Analysis, n int) *charts.Bar {
	top := a.TopLanguages(n)
	names := make([]string, 0, len(top))
	stars := make([]opts.BarData, 0, len(top))
	forks := make([]opts.BarData, 0, len(top))
	for _, l := range top {
		names = append(names, l.Language)
		stars = append(stars, opts.BarData{Name: l.Language, Value: l.Stars})
		forks = append(forks, opts.BarData{Name: l.Language, Value: l.Forks})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Languages"),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Top %d Languages: Total Stars and Forks", len(top))}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Count"}),
	)
	bar.SetXAxis(names).
		AddSeries("Stars", stars).
		AddSeries("Forks", forks)
	return bar
}

// CreationTrend is a line chart of repositories created per year.
func CreationTrend(a *domain.Analysis) *charts.Line {
	years := make([]string, 0, len(a.Years))
	counts := make([]opts.LineData, 0, len(a.Years))
	for _, y := range a.Years {
		years = append(years, strconv.Itoa(y.Year))
		counts = append(counts, opts.LineData{Value: y.Repos})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts("Creation trend"),
		charts.WithTitleOpts(opts.Title{Title: "Repository Creation Trend Over Years"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Year"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Repositories"}),
	)
	line.SetXAxis(years).AddSeries("Repositories", counts)
	return line
}

// Popularity is a scatter of log-scaled stars and forks against creation date.
func Popularity(a *domain.Analysis) *charts.Scatter {
	stars := make([]opts.ScatterData, 0, len(a.Table))
	forks := make([]opts.ScatterData, 0, len(a.Table))
	for _, row := range a.Table {
		day := row.CreatedAt.UTC().Format("2006-01-02")
		stars = append(stars, opts.ScatterData{Name: row.FullName, Value: []interface{}{day, row.LogStars}})
		forks = append(forks, opts.ScatterData{Name: row.FullName, Value: []interface{}{day, row.LogForks}, Symbol: "triangle"})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		initOpts("Popularity"),
		charts.WithTitleOpts(opts.Title{Title: "Log-Transformed Popularity (Stars & Forks) Over Time"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Created", Type: "time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "log10(1 + count)"}),
	)
	scatter.AddSeries("Log(Stars)", stars).AddSeries("Log(Forks)", forks)
	return scatter
}

// RenderPage writes all charts of a into a standalone HTML page.
func RenderPage(w io.Writer, a *domain.Analysis) error {
	page := components.NewPage()
	page.AddCharts(Languages(a, TopLanguages), CreationTrend(a), Popularity(a))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render charts: %w", err)
	}
	return nil
}
