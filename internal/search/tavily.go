package search

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/pkg/tavily"
)

// TavilySearcher adapts the Tavily API client to the Searcher interface.
type TavilySearcher struct {
	client     tavily.Client
	maxResults int
}

// NewTavilySearcher creates a searcher returning up to maxResults hits per query.
func NewTavilySearcher(client tavily.Client, maxResults int) *TavilySearcher {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &TavilySearcher{client: client, maxResults: maxResults}
}

// Name implements Searcher.
func (s *TavilySearcher) Name() string {
	return "tavily"
}

// Search implements Searcher.
func (s *TavilySearcher) Search(ctx context.Context, query string) ([]model.Evidence, error) {
	resp, err := s.client.Search(ctx, tavily.SearchRequest{
		Query:      query,
		MaxResults: s.maxResults,
	})
	if err != nil {
		return nil, eris.Wrap(err, "search: tavily query")
	}

	evidence := make([]model.Evidence, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.URL == "" {
			continue
		}
		evidence = append(evidence, model.Evidence{
			URL:   r.URL,
			Text:  r.Content,
			Title: r.Title,
		})
	}
	return evidence, nil
}
