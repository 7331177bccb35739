package claimerrors

import "time"

// AnalysisError represents a persisted pipeline error entry. Per-file
// extraction failures are contained inside the run but still audited
// here so reviewers can see what degraded a report.
type AnalysisError struct {
	ID        int64     `json:"id"`
	ClaimID   string    `json:"claim_id"`
	FileKey   string    `json:"file_key,omitempty"`
	Phase     string    `json:"phase,omitempty"` // listing | extraction | synthesis | video
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
