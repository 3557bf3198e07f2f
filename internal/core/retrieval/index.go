package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/claimhands/verdict/internal/llm"
)

// ErrNotBuilt means Query was called before Build. That is a programming
// error at the call site, not an empty-corpus condition.
var ErrNotBuilt = errors.New("retrieval index not built")

// RegulationChunk is one immutable corpus entry: a regulation section with
// its stable clause identifier.
type RegulationChunk struct {
	Text       string `json:"text"`
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
}

// Match is one query result. Distance is squared Euclidean distance between
// the query embedding and the chunk embedding; smaller is closer.
type Match struct {
	Chunk    RegulationChunk
	Distance float64
}

// Index is a flat exhaustive nearest-neighbor index over the embedded
// regulation corpus. It is built once per process lifetime and read-only
// afterwards, so concurrent Query calls are safe.
type Index struct {
	embedder llm.EmbedderClient
	retrier  *llm.Retrier
	logger   *zap.Logger

	chunks  []RegulationChunk
	vectors [][]float32
	built   bool
}

func NewIndex(embedder llm.EmbedderClient, retrier *llm.Retrier, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{
		embedder: embedder,
		retrier:  retrier,
		logger:   logger,
	}
}

// Build embeds every chunk and stores the vectors. Embedding calls go
// through the retrier like every other oracle call.
func (ix *Index) Build(ctx context.Context, chunks []RegulationChunk) error {
	if ix.embedder == nil {
		return errors.New("no embedder configured for retrieval index")
	}

	vectors := make([][]float32, 0, len(chunks))
	for i, chunk := range chunks {
		var vec []float32
		text := chunk.Text
		err := ix.retrier.Do(ctx, "embed corpus chunk", func(ctx context.Context) error {
			v, embedErr := ix.embedder.Embed(ctx, text)
			if embedErr != nil {
				return embedErr
			}
			if len(v) == 0 {
				return errors.New("empty embedding")
			}
			vec = v
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to embed corpus chunk %d (%s): %w", i, chunk.Identifier, err)
		}
		if len(vectors) > 0 && len(vec) != len(vectors[0]) {
			return fmt.Errorf("embedding dimension mismatch at chunk %d: got %d, want %d", i, len(vec), len(vectors[0]))
		}
		vectors = append(vectors, vec)
	}

	ix.chunks = append([]RegulationChunk(nil), chunks...)
	ix.vectors = vectors
	ix.built = true

	ix.logger.Info("retrieval index built", zap.Int("chunks", len(chunks)))
	return nil
}

// Query returns the k closest corpus entries, ascending by distance. Ties
// break on corpus order so results are reproducible for identical inputs.
func (ix *Index) Query(ctx context.Context, text string, k int) ([]Match, error) {
	if !ix.built {
		return nil, ErrNotBuilt
	}
	if k <= 0 {
		return nil, fmt.Errorf("invalid k: %d", k)
	}

	var queryVec []float32
	err := ix.retrier.Do(ctx, "embed query", func(ctx context.Context) error {
		v, embedErr := ix.embedder.Embed(ctx, text)
		if embedErr != nil {
			return embedErr
		}
		if len(v) == 0 {
			return errors.New("empty embedding")
		}
		queryVec = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	type scored struct {
		idx      int
		distance float64
	}
	scores := make([]scored, len(ix.vectors))
	for i, vec := range ix.vectors {
		scores[i] = scored{idx: i, distance: squaredL2(queryVec, vec)}
	}
	sort.Slice(scores, func(a, b int) bool {
		if scores[a].distance != scores[b].distance {
			return scores[a].distance < scores[b].distance
		}
		return scores[a].idx < scores[b].idx
	})

	if k > len(scores) {
		k = len(scores)
	}
	matches := make([]Match, k)
	for i := 0; i < k; i++ {
		matches[i] = Match{
			Chunk:    ix.chunks[scores[i].idx],
			Distance: scores[i].distance,
		}
	}
	return matches, nil
}

// ContextBlock formats matches as the labeled clause list handed to the
// scoring oracle, most relevant first.
func ContextBlock(matches []Match) string {
	var b strings.Builder
	b.WriteString("Relevant regulation clauses:\n\n")
	for i, m := range matches {
		header := fmt.Sprintf("--- relevant clause %d", i+1)
		if m.Chunk.Identifier != "" {
			header += fmt.Sprintf(" (section %s", m.Chunk.Identifier)
			if m.Chunk.Title != "" {
				header += ": " + m.Chunk.Title
			}
			header += ")"
		}
		header += " ---\n"
		b.WriteString(header)
		b.WriteString(m.Chunk.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// squaredL2 mirrors a flat L2 index: no square root, mismatched dimensions
// contribute the full component.
func squaredL2(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	for i := n; i < len(a); i++ {
		sum += float64(a[i]) * float64(a[i])
	}
	for i := n; i < len(b); i++ {
		sum += float64(b[i]) * float64(b[i])
	}
	return sum
}
