package retrieval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/claimhands/verdict/internal/llm"
)

func testRetrier() *llm.Retrier {
	r := llm.NewRetrier(2, time.Millisecond, zap.NewNop())
	r.Sleep = func(time.Duration) {}
	return r
}

func shoulderCorpus() ([]RegulationChunk, *FakeEmbedder) {
	chunks := []RegulationChunk{
		{Text: "limitation of shoulder abduction", Identifier: "41(4)(a)", Title: "Shoulder"},
		{Text: "lumbar disc herniation with radiculopathy", Identifier: "37(5)", Title: "Spine"},
		{Text: "full rotator cuff tear", Identifier: "41(4)(c)", Title: "Shoulder"},
	}
	emb := &FakeEmbedder{Vectors: map[string][]float32{
		"limitation of shoulder abduction":           {1, 0, 0},
		"lumbar disc herniation with radiculopathy":  {0, 1, 0},
		"full rotator cuff tear":                     {0.9, 0.1, 0},
		"right shoulder: rotator cuff tear on MRI":   {1, 0.05, 0},
	}}
	return chunks, emb
}

func TestQueryBeforeBuildFailsLoudly(t *testing.T) {
	_, emb := shoulderCorpus()
	ix := NewIndex(emb, testRetrier(), zap.NewNop())

	_, err := ix.Query(context.Background(), "anything", 3)
	assert.ErrorIs(t, err, ErrNotBuilt)
}

func TestQueryReturnsAscendingDistances(t *testing.T) {
	chunks, emb := shoulderCorpus()
	ix := NewIndex(emb, testRetrier(), zap.NewNop())
	require.NoError(t, ix.Build(context.Background(), chunks))

	matches, err := ix.Query(context.Background(), "right shoulder: rotator cuff tear on MRI", 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	// Both shoulder clauses sit closer than the spine clause.
	assert.Equal(t, "41(4)(a)", matches[0].Chunk.Identifier)
	assert.Equal(t, "41(4)(c)", matches[1].Chunk.Identifier)
	assert.Equal(t, "37(5)", matches[2].Chunk.Identifier)
	assert.LessOrEqual(t, matches[0].Distance, matches[1].Distance)
	assert.LessOrEqual(t, matches[1].Distance, matches[2].Distance)
}

func TestQueryCapsKAtCorpusSize(t *testing.T) {
	chunks, emb := shoulderCorpus()
	ix := NewIndex(emb, testRetrier(), zap.NewNop())
	require.NoError(t, ix.Build(context.Background(), chunks))

	matches, err := ix.Query(context.Background(), "right shoulder: rotator cuff tear on MRI", 7)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestQueryIsReproducible(t *testing.T) {
	chunks, emb := shoulderCorpus()
	ix := NewIndex(emb, testRetrier(), zap.NewNop())
	require.NoError(t, ix.Build(context.Background(), chunks))

	first, err := ix.Query(context.Background(), "right shoulder: rotator cuff tear on MRI", 3)
	require.NoError(t, err)
	second, err := ix.Query(context.Background(), "right shoulder: rotator cuff tear on MRI", 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestContextBlockLabelsClausesInOrder(t *testing.T) {
	block := ContextBlock([]Match{
		{Chunk: RegulationChunk{Text: "clause body A", Identifier: "41(4)(a)", Title: "Shoulder"}, Distance: 0.1},
		{Chunk: RegulationChunk{Text: "clause body B", Identifier: "37(5)"}, Distance: 0.4},
	})

	assert.Contains(t, block, "--- relevant clause 1 (section 41(4)(a): Shoulder) ---\nclause body A")
	assert.Contains(t, block, "--- relevant clause 2 (section 37(5)) ---\nclause body B")
	assert.Less(t, // clause 1 appears before clause 2
		indexOf(block, "relevant clause 1"), indexOf(block, "relevant clause 2"))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestParseCorpusMappingForm(t *testing.T) {
	data := []byte(`{"37(5)": "lumbar disc herniation", "41(4)(a)": "shoulder abduction"}`)
	chunks, err := ParseCorpus(data)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	// Ordered by identifier.
	assert.Equal(t, "37(5)", chunks[0].Identifier)
	assert.Equal(t, "lumbar disc herniation", chunks[0].Text)
	assert.Equal(t, "41(4)(a)", chunks[1].Identifier)
}

func TestParseCorpusListForm(t *testing.T) {
	data := []byte(`[
		{"id": "37(5)", "title": "Spine", "content": "lumbar disc herniation"},
		{"section": "41(4)(a)", "title": "Shoulder", "text": "shoulder abduction"}
	]`)
	chunks, err := ParseCorpus(data)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "37(5)", chunks[0].Identifier)
	assert.Equal(t, "Spine", chunks[0].Title)
	assert.Equal(t, "41(4)(a)", chunks[1].Identifier)
	assert.Equal(t, "shoulder abduction", chunks[1].Text)
}

func TestParseCorpusRejectsGarbage(t *testing.T) {
	_, err := ParseCorpus([]byte(`"just a string"`))
	assert.Error(t, err)
}

func TestBuildPropagatesEmbedderFailure(t *testing.T) {
	chunks, _ := shoulderCorpus()
	emb := &FakeEmbedder{Err: assert.AnError}
	ix := NewIndex(emb, testRetrier(), zap.NewNop())

	err := ix.Build(context.Background(), chunks)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to embed corpus chunk")
}
