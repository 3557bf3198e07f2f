package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/claimhands/verdict/internal/core/model"
)

// AuditStore persists completed assessment runs for later review. Only
// successful runs reach it: the pipeline never emits a partial result, so
// nothing partial can ever be persisted.
type AuditStore struct {
	Driver GraphDriver
	Logger *zap.Logger

	// UUIDGenerator is swappable in tests.
	UUIDGenerator func() string
}

func NewAuditStore(driver GraphDriver, logger *zap.Logger) *AuditStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditStore{
		Driver:        driver,
		Logger:        logger,
		UUIDGenerator: func() string { return uuid.New().String() },
	}
}

// SaveRun writes the run node plus one organ node per assessment, including
// the missing-information ones. The audit trail keeps everything the
// breakdown omits.
func (s *AuditStore) SaveRun(ctx context.Context, runID string, result model.DisabilityResult) error {
	runParams := map[string]interface{}{
		"uuid":               runID,
		"created_at":         time.Now().UTC().Format(time.RFC3339),
		"total_disability":   result.TotalDisability,
		"organ_count":        len(result.FullResults),
		"contributing_count": len(result.Breakdown),
	}
	if _, err := s.Driver.ExecuteQuery(ctx, SaveAssessmentRunQuery, runParams); err != nil {
		return fmt.Errorf("failed to save assessment run: %w", err)
	}

	for rank, a := range result.FullResults {
		organUUID := s.UUIDGenerator()

		var missingInfo interface{}
		if a.MissingInfo != nil {
			missingInfo = *a.MissingInfo
		}
		organParams := map[string]interface{}{
			"uuid":                  organUUID,
			"run_uuid":              runID,
			"body_part":             a.BodyPart,
			"disability_percentage": a.DisabilityPercentage,
			"section_used":          a.SectionUsed,
			"reasoning":             a.Reasoning,
			"confidence":            string(a.Confidence),
			"status":                string(a.Status),
			"missing_info":          missingInfo,
		}
		if _, err := s.Driver.ExecuteQuery(ctx, SaveOrganAssessmentQuery, organParams); err != nil {
			return fmt.Errorf("failed to save organ assessment for %s: %w", a.BodyPart, err)
		}

		edgeParams := map[string]interface{}{
			"run_uuid":   runID,
			"organ_uuid": organUUID,
			"rank":       rank,
		}
		if _, err := s.Driver.ExecuteQuery(ctx, SaveHasOrganEdgeQuery, edgeParams); err != nil {
			return fmt.Errorf("failed to link organ assessment for %s: %w", a.BodyPart, err)
		}
	}

	s.Logger.Info("assessment run persisted",
		zap.String("run_id", runID),
		zap.Int("organs", len(result.FullResults)))
	return nil
}
