package domain

import (
	"fmt"
	"strings"
)

// Sort is the field GitHub orders search results by.
type Sort string

const (
	SortStars   Sort = "stars"
	SortForks   Sort = "forks"
	SortUpdated Sort = "updated"
)

// Order is the direction of the sort.
type Order string

const (
	OrderDesc Order = "desc"
	OrderAsc  Order = "asc"
)

// MaxCount is the largest page size the search endpoint accepts.
const MaxCount = 100

// Sorts lists the accepted sort values, in the order the UI offers them.
var Sorts = []Sort{SortStars, SortForks, SortUpdated}

// Orders lists the accepted order values, in the order the UI offers them.
var Orders = []Order{OrderDesc, OrderAsc}

// SearchQuery describes one repository search.
type SearchQuery struct {
	Text  string `json:"q"`
	Sort  Sort   `json:"sort"`
	Order Order  `json:"order"`
	Count int    `json:"count"`
}

// ParseSort converts s into a Sort, rejecting unknown values.
func ParseSort(s string) (Sort, error) {
	for _, v := range Sorts {
		if string(v) == s {
			return v, nil
		}
	}
	return "", &QueryError{Field: "sort", Message: fmt.Sprintf("unsupported sort %q", s)}
}

// ParseOrder converts s into an Order, rejecting unknown values.
func ParseOrder(s string) (Order, error) {
	for _, v := range Orders {
		if string(v) == s {
			return v, nil
		}
	}
	return "", &QueryError{Field: "order", Message: fmt.Sprintf("unsupported order %q", s)}
}

// Validate reports the first invalid field of q.
func (q SearchQuery) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return &QueryError{Field: "q", Message: "search query must not be empty"}
	}
	if _, err := ParseSort(string(q.Sort)); err != nil {
		return err
	}
	if _, err := ParseOrder(string(q.Order)); err != nil {
		return err
	}
	if q.Count < 1 || q.Count > MaxCount {
		return &QueryError{Field: "count", Message: fmt.Sprintf("count must be between 1 and %d, got %d", MaxCount, q.Count)}
	}
	return nil
}
