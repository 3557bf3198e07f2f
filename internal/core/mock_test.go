package core

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// MockOracle replays scripted responses in call order. With a single
// adjudication worker the pipeline calls it deterministically: bundling
// first, then one scoring call per bundle.
type MockOracle struct {
	ResponseQueue []string
	Err           error
	Prompts       []string
}

func (m *MockOracle) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.ResponseQueue) == 0 {
		return "", errors.New("mock oracle exhausted")
	}
	resp := m.ResponseQueue[0]
	m.ResponseQueue = m.ResponseQueue[1:]
	return resp, nil
}

// routingOracle answers scoring prompts by body part so concurrent
// adjudication calls get the right response regardless of completion order.
type routingOracle struct {
	mu         sync.Mutex
	bundleJSON string
	scoring    map[string]string
}

func (o *routingOracle) Generate(ctx context.Context, prompt string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for part, resp := range o.scoring {
		if strings.Contains(prompt, "disability percentage for: "+part) {
			return resp, nil
		}
	}
	return o.bundleJSON, nil
}
