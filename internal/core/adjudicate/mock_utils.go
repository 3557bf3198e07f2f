package adjudicate

import (
	"context"

	"github.com/claimhands/verdict/internal/core/retrieval"
)

type MockOracle struct {
	Response      string
	ResponseQueue []string
	Err           error
	Prompts       []string
}

func (m *MockOracle) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.ResponseQueue) > 0 {
		resp := m.ResponseQueue[0]
		m.ResponseQueue = m.ResponseQueue[1:]
		return resp, nil
	}
	return m.Response, nil
}

type MockRetriever struct {
	Matches []retrieval.Match
	Err     error
	Queries []string
	LastK   int
}

func (m *MockRetriever) Query(ctx context.Context, text string, k int) ([]retrieval.Match, error) {
	m.Queries = append(m.Queries, text)
	m.LastK = k
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Matches, nil
}
