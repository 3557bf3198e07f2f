package bundler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/claimhands/verdict/internal/core/common"
	"github.com/claimhands/verdict/internal/core/model"
	"github.com/claimhands/verdict/internal/llm"
)

// DefaultPrompt carries the merge policy the oracle must follow. The single
// %s is the serialized raw diagnoses mapping.
const DefaultPrompt = `Critical task: consolidate all medical findings into unique body parts only.

Strict merge rules:
1. **Merge duplicates**: a bare label and a lateralized label for the same body part ("shoulder" and "right shoulder") become one entry, named for the more specific lateralized form.
2. **Keep findings complete**: do not summarize! Copy every clinical finding verbatim:
   - range-of-motion in degrees (e.g. "internal rotation 30 degrees")
   - full procedure names (e.g. "Bankart repair")
   - imaging findings (e.g. "massive rotator cuff tear", "L4-L5 disc bulge")
   - objective signs (e.g. "instability", "tenderness on palpation")
3. **Each body part once**: if both "right shoulder" and "shoulder" appear, attach everything to a single "right shoulder".
4. **Distinct regions stay separate**: lower back, hip, knee, ankle are each their own entry.

Raw data:
%s

Return JSON in this structure:
{
   "bundles": [
      {
        "body_part": "the exact body part name (e.g. 'right shoulder', 'lower back')",
        "evidence_text": "all clinical and technical findings from every source",
        "main_diagnosis": "the central diagnosis"
      }
   ]
}

Example:
if "shoulder" carries "rotator cuff tear" and "right shoulder" carries "motion restricted to 30 degrees",
return one "right shoulder" entry holding both findings together.`

// Bundler consolidates the raw per-document diagnoses into one evidence
// bundle per anatomically distinct body part. The dedup policy itself is an
// oracle contract: label unification is delivered as prompt instruction, and
// the structured response is validated rather than trusted.
type Bundler struct {
	Oracle  llm.OracleClient
	Retrier *llm.Retrier
	Prompt  string
	Logger  *zap.Logger
}

func New(oracle llm.OracleClient, retrier *llm.Retrier, prompt string, logger *zap.Logger) *Bundler {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bundler{
		Oracle:  oracle,
		Retrier: retrier,
		Prompt:  prompt,
		Logger:  logger,
	}
}

// Bundle runs the merge call. A malformed response fails the attempt and is
// retried; exhaustion fails the stage so no source finding is silently
// dropped. Empty input short-circuits to an empty bundle list.
func (b *Bundler) Bundle(ctx context.Context, raw model.RawDiagnoses) ([]model.EvidenceBundle, error) {
	if len(raw) == 0 {
		b.Logger.Info("no raw diagnoses to bundle")
		return nil, nil
	}

	payload, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize raw diagnoses: %w", err)
	}

	prompt := fmt.Sprintf(b.Prompt, string(payload))

	var bundles []model.EvidenceBundle
	err = b.Retrier.Do(ctx, "evidence bundling", func(ctx context.Context) error {
		response, genErr := b.Oracle.Generate(ctx, prompt)
		if genErr != nil {
			return genErr
		}

		set, parseErr := common.ParseJSON[model.BundleSet](response)
		if parseErr != nil {
			return parseErr
		}
		if len(set.Bundles) == 0 {
			return errors.New("bundling response carries no bundles")
		}
		for i, bundle := range set.Bundles {
			if bundle.BodyPart == "" {
				return fmt.Errorf("bundle %d is missing body_part", i)
			}
			if bundle.EvidenceText == "" {
				return fmt.Errorf("bundle %d (%s) is missing evidence_text", i, bundle.BodyPart)
			}
		}

		bundles = set.Bundles
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.Logger.Info("evidence consolidated",
		zap.Int("raw_labels", len(raw)),
		zap.Int("bundles", len(bundles)))
	return bundles, nil
}
