package nodes

import (
	"context"
	"fmt"
	"strings"

	ai "github.com/spetersoncode/chartflow"
	"github.com/spetersoncode/chartflow/internal/logging"
	"github.com/spetersoncode/chartflow/state"
	"github.com/spetersoncode/chartflow/workflow"
)

// NoSearchResults replaces an empty search reply.
const NoSearchResults = "No search results found for this query."

// WebSearch fetches web results for the query. A failed search is recorded
// in SearchResults as "Web search failed: <err>" and the run continues.
type WebSearch struct {
	searcher Searcher
	opts     []ai.Option
}

// NewWebSearch creates the web search step.
func NewWebSearch(searcher Searcher, opts ...ai.Option) *WebSearch {
	return &WebSearch{searcher: searcher, opts: opts}
}

func (w *WebSearch) Name() string { return NameWebSearch }

func (w *WebSearch) Contract() workflow.Contract {
	return contract(workflow.FailureRecoverable,
		reads(state.FieldUserQuery),
		state.FieldSearchResults)
}

func (w *WebSearch) Run(ctx context.Context, s *state.State) error {
	logger := logging.FromContext(ctx)
	logger.Info("performing web search", "query", s.UserQuery)

	resp, err := w.searcher.Search(ctx, s.UserQuery, w.opts...)
	if err != nil {
		logger.Error("web search failed", "error", err)
		s.SearchResults = fmt.Sprintf("Web search failed: %v", err)
		return nil
	}

	s.SearchResults = formatSearchResults(resp)
	logger.Info("web search completed", "citations", len(resp.Citations), "bytes", len(s.SearchResults))
	logger.Debug("raw search results", "results", s.SearchResults)
	return nil
}

// formatSearchResults returns the reply text followed by its sources.
func formatSearchResults(resp *ai.Response) string {
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return NoSearchResults
	}
	if len(resp.Citations) == 0 {
		return text
	}

	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\nSources:")
	seen := make(map[string]bool, len(resp.Citations))
	for _, c := range resp.Citations {
		if c.URL == "" || seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		b.WriteString("\n- ")
		if c.Title != "" {
			b.WriteString(c.Title)
			b.WriteString(": ")
		}
		b.WriteString(c.URL)
	}
	return b.String()
}
