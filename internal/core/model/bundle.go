package model

// DiagnosisRecord is deliberately schemaless. Upstream extraction emits
// free-form clinical fields (severity markers, dates, imaging findings) and
// the merge policy forbids dropping any of them, so the record is carried
// verbatim into the bundling prompt.
type DiagnosisRecord map[string]interface{}

// BodyPartGroup is the upstream consolidation unit: every diagnosis that any
// source document attributed to one raw body-part label.
type BodyPartGroup struct {
	BodyPart   string            `json:"body_part"`
	Conditions []DiagnosisRecord `json:"conditions"`
}

// RawDiagnoses is the pipeline input, keyed by the raw (possibly duplicated)
// body-part label as written in the source documents.
type RawDiagnoses map[string]BodyPartGroup

// EvidenceBundle is the consolidated evidence record for one anatomically
// distinct body part. EvidenceText is the union of all clinical findings for
// that part across every source document, never a summary.
type EvidenceBundle struct {
	BodyPart      string `json:"body_part"`
	EvidenceText  string `json:"evidence_text"`
	MainDiagnosis string `json:"main_diagnosis"`
}

// BundleSet is the structured shape of the bundling oracle response.
type BundleSet struct {
	Bundles []EvidenceBundle `json:"bundles"`
}
