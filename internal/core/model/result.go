package model

// BreakdownEntry is one contributing organ in the final total, in the same
// descending-percentage order the aggregation used.
type BreakdownEntry struct {
	Organ   string  `json:"organ"`
	Percent float64 `json:"percent"`
	Section string  `json:"section"`
}

// DisabilityResult is the pipeline's terminal artifact. Breakdown carries
// only organs with a positive percentage; FullResults keeps every
// assessment, including missing-information ones, for audit.
type DisabilityResult struct {
	TotalDisability float64           `json:"total_disability"`
	Breakdown       []BreakdownEntry  `json:"breakdown"`
	FullResults     []OrganAssessment `json:"full_results"`
}
