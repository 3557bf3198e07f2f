package model

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

type Status string

const (
	StatusComplete           Status = "complete"
	StatusMissingInformation Status = "missing-information"
)

// NoSectionMarker is the null-marker stored in SectionUsed when no
// regulation clause applied.
const NoSectionMarker = "N/A"

// OrganAssessment is the adjudication outcome for one evidence bundle.
// A zero percentage is not an error: it means no applicable clause was found
// or the evidence was judged insufficient, and Reasoning explains what is
// missing.
type OrganAssessment struct {
	BodyPart             string     `json:"body_part"`
	DisabilityPercentage int        `json:"disability_percentage"`
	SectionUsed          string     `json:"section_used"`
	Reasoning            string     `json:"reasoning"`
	Confidence           Confidence `json:"confidence"`
	Status               Status     `json:"status"`
	MissingInfo          *string    `json:"missing_info"`
}

// Finalize derives Status and MissingInfo from the percentage. Status is a
// pure function of DisabilityPercentage: zero means missing-information,
// anything else means complete.
func (a *OrganAssessment) Finalize() {
	if a.DisabilityPercentage == 0 {
		a.Status = StatusMissingInformation
		reason := a.Reasoning
		if reason == "" {
			reason = "no matching regulation section found"
			a.Reasoning = reason
		}
		a.MissingInfo = &reason
		a.SectionUsed = NoSectionMarker
		return
	}
	a.Status = StatusComplete
	a.MissingInfo = nil
}

// ValidConfidence reports whether the oracle returned one of the three
// accepted confidence levels.
func ValidConfidence(c Confidence) bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}
