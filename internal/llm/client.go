package llm

import (
	"context"
)

// OracleClient is the judgment capability both the evidence bundler and the
// organ adjudicator depend on. Implementations return the raw model text;
// callers own parsing and validation.
type OracleClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// EmbedderClient produces the sentence embedding used by the regulation
// retrieval index. Must be deterministic for identical text and model.
type EmbedderClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
