package retrieval

import (
	"context"
	"fmt"
)

// FakeEmbedder returns fixed vectors keyed by exact text, making retrieval
// results reproducible in tests.
type FakeEmbedder struct {
	Vectors map[string][]float32
	Err     error
}

func (f *FakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	v, ok := f.Vectors[text]
	if !ok {
		return nil, fmt.Errorf("no fixture vector for %q", text)
	}
	return v, nil
}
