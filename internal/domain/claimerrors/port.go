package claimerrors

import (
	"context"
)

// Repository defines persistence for pipeline error entries
type Repository interface {
	Save(ctx context.Context, e *AnalysisError) error
	ListByClaim(ctx context.Context, claimID string, limit int) ([]*AnalysisError, error)
}
