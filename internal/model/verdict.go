package model

// VerificationResult is the fixed set of outcomes for a verified claim.
type VerificationResult string

const (
	ResultSupported           VerificationResult = "Supported"
	ResultRefuted             VerificationResult = "Refuted"
	ResultInsufficientInfo    VerificationResult = "Insufficient Information"
	ResultConflictingEvidence VerificationResult = "Conflicting Evidence"
)

// AllVerificationResults returns every valid verdict outcome.
func AllVerificationResults() []VerificationResult {
	return []VerificationResult{
		ResultSupported,
		ResultRefuted,
		ResultInsufficientInfo,
		ResultConflictingEvidence,
	}
}

// ValidVerificationResult reports whether r is one of the four allowed
// outcomes.
func ValidVerificationResult(r VerificationResult) bool {
	switch r {
	case ResultSupported, ResultRefuted, ResultInsufficientInfo, ResultConflictingEvidence:
		return true
	default:
		return false
	}
}

// Evidence is a single retrieved web snippet used to support or refute a
// claim. Evidence pools are deduplicated by URL, first occurrence wins.
type Evidence struct {
	URL   string `json:"url"`
	Text  string `json:"text"`
	Title string `json:"title,omitempty"`
}

// Verdict is the final judgment on one validated claim. Sources holds only
// the evidence the evaluator actually cited, not the full retrieved pool.
type Verdict struct {
	ClaimText             string             `json:"claim_text"`
	DisambiguatedSentence string             `json:"disambiguated_sentence"`
	OriginalSentence      string             `json:"original_sentence"`
	OriginalIndex         int                `json:"original_index"`
	Result                VerificationResult `json:"result"`
	Reasoning             string             `json:"reasoning"`
	Sources               []Evidence         `json:"sources"`
}
