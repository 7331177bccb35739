package claims

import (
	"errors"
	"time"
)

// ErrClaimClosed is returned when an operation would move a claim
// backwards in its lifecycle.
var ErrClaimClosed = errors.New("claim lifecycle is closed")

// ID tipe untuk Claim
type ClaimID string

// Status enum
type Status string

const (
	StatusUploadInProgress Status = "upload_in_progress"
	StatusAnalyzing        Status = "analyzing"
	StatusReadyForReview   Status = "ready_for_review"
	StatusEscalated        Status = "escalated"
)

// rank orders the lifecycle; a claim never moves backwards.
func (s Status) rank() int {
	switch s {
	case StatusUploadInProgress:
		return 0
	case StatusAnalyzing:
		return 1
	case StatusReadyForReview:
		return 2
	case StatusEscalated:
		return 3
	}
	return -1
}

// CanAdvanceTo reports whether the lifecycle allows moving to next.
func (s Status) CanAdvanceTo(next Status) bool {
	return next.rank() >= s.rank()
}

// RiskReport value object. Replaced atomically on the claim; never
// partially populated.
type RiskReport struct {
	Summary        string   `json:"summary"`
	FraudRiskScore int      `json:"fraud_risk_score"`
	KeyRiskFactors []string `json:"key_risk_factors"`
}

// FallbackScore is the sentinel outside the valid 0-100 range. A report
// carrying it is a failure substitute and needs manual review.
const FallbackScore = -1

// IsFallback reports whether the report is the failure sentinel.
func (r RiskReport) IsFallback() bool {
	return r.FraudRiskScore == FallbackScore
}

// Aggregate Root: Claim
type Claim struct {
	ID            ClaimID     `json:"id"`
	AdjusterID    string      `json:"adjuster_id"`
	Status        Status      `json:"status"`
	AdjusterNotes string      `json:"adjuster_notes,omitempty"`
	FileKeys      []string    `json:"file_keys"`
	Report        *RiskReport `json:"report,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
