package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchQuery_Validate(t *testing.T) {
	valid := SearchQuery{Text: "language:Go", Sort: SortStars, Order: OrderDesc, Count: 20}

	testCases := []struct {
		name        string
		mutate      func(q *SearchQuery)
		expectField string
	}{
		{name: "valid query", mutate: func(q *SearchQuery) {}},
		{name: "count at upper bound", mutate: func(q *SearchQuery) { q.Count = MaxCount }},
		{name: "blank text", mutate: func(q *SearchQuery) { q.Text = "   " }, expectField: "q"},
		{name: "unknown sort", mutate: func(q *SearchQuery) { q.Sort = "watchers" }, expectField: "sort"},
		{name: "unknown order", mutate: func(q *SearchQuery) { q.Order = "up" }, expectField: "order"},
		{name: "zero count", mutate: func(q *SearchQuery) { q.Count = 0 }, expectField: "count"},
		{name: "count above page size", mutate: func(q *SearchQuery) { q.Count = MaxCount + 1 }, expectField: "count"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := valid
			tc.mutate(&q)
			err := q.Validate()
			if tc.expectField == "" {
				assert.NoError(t, err)
				return
			}
			qe, ok := AsQueryError(err)
			require.True(t, ok, "expected a QueryError, got %v", err)
			assert.Equal(t, tc.expectField, qe.Field)
		})
	}
}

func TestParseSortAndOrder(t *testing.T) {
	s, err := ParseSort("forks")
	require.NoError(t, err)
	assert.Equal(t, SortForks, s)

	_, err = ParseSort("Stars")
	assert.Error(t, err)

	o, err := ParseOrder("asc")
	require.NoError(t, err)
	assert.Equal(t, OrderAsc, o)

	_, err = ParseOrder("")
	assert.Error(t, err)
}

func TestFetchError(t *testing.T) {
	cause := errors.New("boom")
	err := error(&FetchError{StatusCode: 403, Hint: HintRateLimit, Message: "API rate limit exceeded", Cause: cause})

	assert.Equal(t, "fetch repositories: status 403: rate limit exceeded: API rate limit exceeded: boom", err.Error())
	assert.ErrorIs(t, err, cause)

	fe, ok := AsFetchError(err)
	require.True(t, ok)
	assert.True(t, fe.IsRateLimit())

	noStatus := &FetchError{Hint: HintMissingToken}
	assert.Equal(t, "fetch repositories: missing token", noStatus.Error())
	assert.False(t, noStatus.IsRateLimit())
}

func TestRepositoryRecord_LanguageOrUnknown(t *testing.T) {
	goLang := "Go"
	empty := ""
	assert.Equal(t, "Go", RepositoryRecord{Language: &goLang}.LanguageOrUnknown())
	assert.Equal(t, UnknownLanguage, RepositoryRecord{}.LanguageOrUnknown())
	assert.Equal(t, UnknownLanguage, RepositoryRecord{Language: &empty}.LanguageOrUnknown())
}

func TestAnalysis_TopLanguages(t *testing.T) {
	a := &Analysis{Languages: []LanguageTotal{{Language: "Rust"}, {Language: "Go"}, {Language: "C"}}}
	assert.Len(t, a.TopLanguages(2), 2)
	assert.Len(t, a.TopLanguages(10), 3)
	assert.Len(t, a.TopLanguages(-1), 3)
}
