package adjudicate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/claimhands/verdict/internal/core/model"
	"github.com/claimhands/verdict/internal/core/retrieval"
	"github.com/claimhands/verdict/internal/llm"
)

func testRetrier() *llm.Retrier {
	r := llm.NewRetrier(3, time.Millisecond, zap.NewNop())
	r.Sleep = func(time.Duration) {}
	return r
}

func shoulderBundle() model.EvidenceBundle {
	return model.EvidenceBundle{
		BodyPart:      "right shoulder",
		EvidenceText:  "massive rotator cuff tear on MRI; internal rotation 30 degrees",
		MainDiagnosis: "rotator cuff tear",
	}
}

func shoulderMatches() []retrieval.Match {
	return []retrieval.Match{
		{Chunk: retrieval.RegulationChunk{Text: "limitation of shoulder motion", Identifier: "41(4)(a)"}, Distance: 0.2},
		{Chunk: retrieval.RegulationChunk{Text: "full rotator cuff tear", Identifier: "41(4)(c)"}, Distance: 0.5},
	}
}

func TestAssessComplete(t *testing.T) {
	oracle := &MockOracle{Response: `{
		"body_part": "right shoulder",
		"disability_percentage": 25,
		"section_used": "41(4)(c)",
		"reasoning": "massive tear with restricted internal rotation matches the full tear clause",
		"confidence": "high"
	}`}
	ret := &MockRetriever{Matches: shoulderMatches()}
	a := New(oracle, ret, testRetrier(), "", 0, zap.NewNop())

	got, err := a.Assess(context.Background(), shoulderBundle())
	require.NoError(t, err)

	assert.Equal(t, "right shoulder", got.BodyPart)
	assert.Equal(t, 25, got.DisabilityPercentage)
	assert.Equal(t, "41(4)(c)", got.SectionUsed)
	assert.Equal(t, model.ConfidenceHigh, got.Confidence)
	assert.Equal(t, model.StatusComplete, got.Status)
	assert.Nil(t, got.MissingInfo)

	// Query concatenates the body part and its evidence; k defaults to 7.
	require.Len(t, ret.Queries, 1)
	assert.Contains(t, ret.Queries[0], "right shoulder")
	assert.Contains(t, ret.Queries[0], "rotator cuff tear")
	assert.Equal(t, DefaultTopK, ret.LastK)
}

func TestAssessPromptCarriesContextBlock(t *testing.T) {
	oracle := &MockOracle{Response: `{
		"body_part": "right shoulder", "disability_percentage": 25,
		"section_used": "41(4)(c)", "reasoning": "r", "confidence": "medium"
	}`}
	a := New(oracle, &MockRetriever{Matches: shoulderMatches()}, testRetrier(), "", 0, zap.NewNop())

	_, err := a.Assess(context.Background(), shoulderBundle())
	require.NoError(t, err)
	require.Len(t, oracle.Prompts, 1)

	// Clauses appear labeled, most relevant first.
	assert.Contains(t, oracle.Prompts[0], "relevant clause 1 (section 41(4)(a))")
	assert.Contains(t, oracle.Prompts[0], "relevant clause 2 (section 41(4)(c))")
	assert.Contains(t, oracle.Prompts[0], "internal rotation 30 degrees")
}

func TestAssessZeroPercentageIsMissingInformation(t *testing.T) {
	oracle := &MockOracle{Response: `{
		"body_part": "right shoulder",
		"disability_percentage": 0,
		"section_used": "N/A",
		"reasoning": "range of motion in degrees required",
		"confidence": "low"
	}`}
	a := New(oracle, &MockRetriever{Matches: shoulderMatches()}, testRetrier(), "", 0, zap.NewNop())

	got, err := a.Assess(context.Background(), shoulderBundle())
	require.NoError(t, err)

	// Insufficient evidence is a successful assessment, not an error.
	assert.Equal(t, 0, got.DisabilityPercentage)
	assert.Equal(t, model.StatusMissingInformation, got.Status)
	assert.Equal(t, model.NoSectionMarker, got.SectionUsed)
	if assert.NotNil(t, got.MissingInfo) {
		assert.Equal(t, "range of motion in degrees required", *got.MissingInfo)
	}
}

func TestAssessRetriesMalformedThenSucceeds(t *testing.T) {
	oracle := &MockOracle{ResponseQueue: []string{
		`{"body_part": "right shoulder", "disability_percentage": 250, "section_used": "x", "reasoning": "r", "confidence": "high"}`,
		`{"body_part": "right shoulder", "disability_percentage": 20, "section_used": "41(4)(a)", "reasoning": "r", "confidence": "high"}`,
	}}
	a := New(oracle, &MockRetriever{Matches: shoulderMatches()}, testRetrier(), "", 0, zap.NewNop())

	got, err := a.Assess(context.Background(), shoulderBundle())
	require.NoError(t, err)
	assert.Equal(t, 20, got.DisabilityPercentage)
	assert.Len(t, oracle.Prompts, 2)
}

func TestAssessRejectsUnknownConfidence(t *testing.T) {
	oracle := &MockOracle{Response: `{"body_part": "knee", "disability_percentage": 10, "section_used": "35", "reasoning": "r", "confidence": "certain"}`}
	a := New(oracle, &MockRetriever{Matches: shoulderMatches()}, testRetrier(), "", 0, zap.NewNop())

	_, err := a.Assess(context.Background(), shoulderBundle())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "organ scoring failed after 3 attempts")
}

func TestAssessFailsStageOnOracleExhaustion(t *testing.T) {
	oracle := &MockOracle{Err: assert.AnError}
	a := New(oracle, &MockRetriever{Matches: shoulderMatches()}, testRetrier(), "", 0, zap.NewNop())

	got, err := a.Assess(context.Background(), shoulderBundle())
	assert.Error(t, err)
	// Never a partial assessment on infrastructure failure.
	assert.Equal(t, model.OrganAssessment{}, got)
}

func TestAssessPropagatesRetrievalFailure(t *testing.T) {
	oracle := &MockOracle{Response: "unused"}
	a := New(oracle, &MockRetriever{Err: retrieval.ErrNotBuilt}, testRetrier(), "", 0, zap.NewNop())

	_, err := a.Assess(context.Background(), shoulderBundle())
	assert.ErrorIs(t, err, retrieval.ErrNotBuilt)
	assert.Empty(t, oracle.Prompts)
}

func TestAssessNormalizesConfidenceCase(t *testing.T) {
	oracle := &MockOracle{Response: `{"body_part": "knee", "disability_percentage": 10, "section_used": "35(2)", "reasoning": "r", "confidence": "High"}`}
	a := New(oracle, &MockRetriever{Matches: shoulderMatches()}, testRetrier(), "", 0, zap.NewNop())

	got, err := a.Assess(context.Background(), shoulderBundle())
	require.NoError(t, err)
	assert.Equal(t, model.ConfidenceHigh, got.Confidence)
}
