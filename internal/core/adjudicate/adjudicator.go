package adjudicate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/claimhands/verdict/internal/core/common"
	"github.com/claimhands/verdict/internal/core/model"
	"github.com/claimhands/verdict/internal/core/retrieval"
	"github.com/claimhands/verdict/internal/llm"
)

// DefaultTopK is how many regulation clauses ground each scoring call.
const DefaultTopK = 7

// DefaultPrompt takes body part, evidence text and the retrieval context
// block, in that order.
const DefaultPrompt = `You are a medical expert for national-insurance disability boards.

**Task**: set a precise disability percentage for: %s

**The medical findings (the evidence)**:
%s

**The relevant regulation sections**:
%s

**Rules for setting the percentage**:
1. Choose the section that best matches the clinical findings
2. Match finding severity (e.g. "severe restriction of motion") to section severity
3. When several sections are plausible, pick the one that best reflects the overall condition
4. If no section fits or the findings are inconclusive, return 0
5. Be conservative - only well-documented findings earn a percentage

**Response format** (JSON only):
{
    "body_part": "the body part exactly as given",
    "disability_percentage": whole_number_only (0 when nothing matches),
    "section_used": "the exact section number (e.g. 'section 5(4)(e)') or 'N/A' when 0",
    "reasoning": "when disability_percentage is 0, state exactly what is missing (e.g. 'range of motion in degrees required', 'EMG required', 'no documentation of pain frequency'); otherwise a short explanation of which clinical finding led to which section and why",
    "confidence": "high/medium/low"
}`

// ContextRetriever is the slice of the retrieval index the adjudicator
// needs. Matches come back ascending by distance.
type ContextRetriever interface {
	Query(ctx context.Context, text string, k int) ([]retrieval.Match, error)
}

// scoringResponse is the structured shape the scoring oracle must return.
type scoringResponse struct {
	BodyPart             string `json:"body_part"`
	DisabilityPercentage int    `json:"disability_percentage"`
	SectionUsed          string `json:"section_used"`
	Reasoning            string `json:"reasoning"`
	Confidence           string `json:"confidence"`
}

// Adjudicator grounds each evidence bundle in the regulation corpus and asks
// the oracle for a percentage. One scoring call per bundle per run; bundles
// are never batched because the retrieval context differs per organ.
type Adjudicator struct {
	Oracle    llm.OracleClient
	Retriever ContextRetriever
	Retrier   *llm.Retrier
	Prompt    string
	TopK      int
	Logger    *zap.Logger
}

func New(oracle llm.OracleClient, retriever ContextRetriever, retrier *llm.Retrier, prompt string, topK int, logger *zap.Logger) *Adjudicator {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adjudicator{
		Oracle:    oracle,
		Retriever: retriever,
		Retrier:   retrier,
		Prompt:    prompt,
		TopK:      topK,
		Logger:    logger,
	}
}

// Assess scores one bundle. Retrieval and scoring failures (including
// malformed responses) exhaust the retry budget and then fail the stage;
// the caller must abort the run rather than aggregate around a hole.
func (a *Adjudicator) Assess(ctx context.Context, bundle model.EvidenceBundle) (model.OrganAssessment, error) {
	var zero model.OrganAssessment

	query := fmt.Sprintf("disability regulation sections for %s: %s", bundle.BodyPart, bundle.EvidenceText)
	matches, err := a.Retriever.Query(ctx, query, a.TopK)
	if err != nil {
		return zero, fmt.Errorf("retrieval failed for %s: %w", bundle.BodyPart, err)
	}

	prompt := fmt.Sprintf(a.Prompt, bundle.BodyPart, bundle.EvidenceText, retrieval.ContextBlock(matches))

	var assessment model.OrganAssessment
	err = a.Retrier.Do(ctx, "organ scoring", func(ctx context.Context) error {
		response, genErr := a.Oracle.Generate(ctx, prompt)
		if genErr != nil {
			return genErr
		}

		parsed, parseErr := common.ParseJSON[scoringResponse](response)
		if parseErr != nil {
			return parseErr
		}
		if parsed.DisabilityPercentage < 0 || parsed.DisabilityPercentage > 100 {
			return fmt.Errorf("disability_percentage out of range: %d", parsed.DisabilityPercentage)
		}
		confidence := model.Confidence(strings.ToLower(strings.TrimSpace(parsed.Confidence)))
		if !model.ValidConfidence(confidence) {
			return fmt.Errorf("invalid confidence level: %q", parsed.Confidence)
		}

		bodyPart := parsed.BodyPart
		if bodyPart == "" {
			bodyPart = bundle.BodyPart
		}

		assessment = model.OrganAssessment{
			BodyPart:             bodyPart,
			DisabilityPercentage: parsed.DisabilityPercentage,
			SectionUsed:          parsed.SectionUsed,
			Reasoning:            parsed.Reasoning,
			Confidence:           confidence,
		}
		return nil
	})
	if err != nil {
		return zero, err
	}

	assessment.Finalize()

	a.Logger.Info("organ assessed",
		zap.String("body_part", assessment.BodyPart),
		zap.Int("percentage", assessment.DisabilityPercentage),
		zap.String("section", assessment.SectionUsed),
		zap.String("status", string(assessment.Status)))
	return assessment, nil
}
