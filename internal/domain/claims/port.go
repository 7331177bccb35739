package claims

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, c *Claim) error
	Get(ctx context.Context, adjuster string, id ClaimID) (*Claim, error)
	UpdateStatus(ctx context.Context, id ClaimID, status Status) error
	// UpdateReport commits report + status in one statement so the claim
	// record is never observed with a half-written result.
	UpdateReport(ctx context.Context, id ClaimID, report RiskReport, status Status) error
	Latest(ctx context.Context, adjuster string, limit int) ([]*Claim, error)
}
