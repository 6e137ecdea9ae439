// Package server contains the web UI of repo-trends.
//
// The UI is a single page: a search form that, when submitted, runs one
// fetch-and-analyze pass and renders the summary metrics, the data table and
// the charts. The same pass is available as JSON under /api/analyze.
package server
