package model

import "time"

// FactCheckReport is the terminal output of one pipeline run.
// ClaimsVerified always equals len(VerifiedClaims); claims whose verifier
// sub-workflow failed are absent from both.
type FactCheckReport struct {
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	ClaimsVerified int       `json:"claims_verified"`
	VerifiedClaims []Verdict `json:"verified_claims"`
	Summary        string    `json:"summary"`
	Timestamp      time.Time `json:"timestamp"`
}

// CountByResult tallies verdicts per outcome.
func (r *FactCheckReport) CountByResult() map[VerificationResult]int {
	counts := make(map[VerificationResult]int, 4)
	for _, v := range r.VerifiedClaims {
		counts[v.Result]++
	}
	return counts
}
