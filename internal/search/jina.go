package search

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/pkg/jina"
)

// JinaSearcher adapts the Jina AI search client to the Searcher interface.
type JinaSearcher struct {
	client     jina.Client
	maxResults int
}

// NewJinaSearcher creates a searcher returning up to maxResults hits per query.
func NewJinaSearcher(client jina.Client, maxResults int) *JinaSearcher {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &JinaSearcher{client: client, maxResults: maxResults}
}

// Name implements Searcher.
func (s *JinaSearcher) Name() string {
	return "jina"
}

// Search implements Searcher.
func (s *JinaSearcher) Search(ctx context.Context, query string) ([]model.Evidence, error) {
	resp, err := s.client.Search(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "search: jina query")
	}

	evidence := make([]model.Evidence, 0, len(resp.Data))
	for _, r := range resp.Data {
		if r.URL == "" {
			continue
		}
		text := r.Content
		if text == "" {
			text = r.Description
		}
		evidence = append(evidence, model.Evidence{
			URL:   r.URL,
			Text:  text,
			Title: r.Title,
		})
		if len(evidence) >= s.maxResults {
			break
		}
	}
	return evidence, nil
}
