package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/naka-gawa/repo-trends/internal/chart"
	"github.com/naka-gawa/repo-trends/internal/domain"
	"github.com/naka-gawa/repo-trends/internal/gateway"
)

// pageData is the view model of index.html.
type pageData struct {
	Form     domain.SearchQuery
	Sorts    []domain.Sort
	Orders   []domain.Order
	MaxCount int
	Analysis *domain.Analysis
	Charts   string
	Quota    *domain.Quota
	Error    string
	Hint     string
}

// apiError is the JSON body of a failed /api/analyze call.
type apiError struct {
	Error  string `json:"error"`
	Hint   string `json:"hint"`
	Status int    `json:"status"`
}

func (s *Server) newPage(form domain.SearchQuery) *pageData {
	return &pageData{
		Form:     form,
		Sorts:    domain.Sorts,
		Orders:   domain.Orders,
		MaxCount: domain.MaxCount,
	}
}

// parseQuery reads the form values, falling back to the defaults for absent ones.
func (s *Server) parseQuery(r *http.Request) (domain.SearchQuery, error) {
	q := s.defaults
	values := r.URL.Query()
	if values.Has("q") {
		q.Text = values.Get("q")
	}
	if values.Has("sort") {
		q.Sort = domain.Sort(values.Get("sort"))
	}
	if values.Has("order") {
		q.Order = domain.Order(values.Get("order"))
	}
	if values.Has("count") {
		n, err := strconv.Atoi(values.Get("count"))
		if err != nil {
			return q, &domain.QueryError{Field: "count", Message: "count must be a number"}
		}
		q.Count = n
	}
	return q, q.Validate()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, s.newPage(s.defaults))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	query, err := s.parseQuery(r)
	page := s.newPage(query)
	if err != nil {
		s.renderError(w, page, err)
		return
	}

	analysis, err := s.runner.Run(r.Context(), query)
	if err != nil {
		s.renderError(w, page, err)
		return
	}
	page.Analysis = analysis

	var charts bytes.Buffer
	if err := chart.RenderPage(&charts, analysis); err != nil {
		s.logger.Error("Chart rendering failed", "err", err)
	} else {
		page.Charts = charts.String()
	}

	page.Quota = s.quota(r.Context())
	s.render(w, http.StatusOK, page)
}

// quota looks up the remaining API budget, or returns nil when it is unknown.
func (s *Server) quota(ctx context.Context) *domain.Quota {
	ctx, cancel := context.WithTimeout(ctx, s.quotaTimeout)
	defer cancel()

	quota, err := s.runner.Quota(ctx)
	if err != nil {
		if !errors.Is(err, gateway.ErrNoToken) {
			s.logger.Debug("Quota unavailable", "err", err)
		}
		return nil
	}
	return &quota
}

func (s *Server) handleAPIAnalyze(w http.ResponseWriter, r *http.Request) {
	query, err := s.parseQuery(r)
	if err == nil {
		var analysis *domain.Analysis
		if analysis, err = s.runner.Run(r.Context(), query); err == nil {
			s.writeJSON(w, http.StatusOK, analysis)
			return
		}
	}
	status := statusFor(err)
	s.writeJSON(w, status, apiError{Error: err.Error(), Hint: hintFor(err), Status: status})
}

func (s *Server) renderError(w http.ResponseWriter, page *pageData, err error) {
	page.Error = err.Error()
	page.Hint = hintFor(err)
	s.render(w, statusFor(err), page)
}

func (s *Server) render(w http.ResponseWriter, status int, page *pageData) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "index.html", page); err != nil {
		s.logger.Error("Template rendering failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", "err", err)
	}
}
