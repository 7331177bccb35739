package documents

import "context"

// Repository port (interface untuk persistence). Inserts and updates of
// distinct document IDs must be safe to run concurrently.
type Repository interface {
	Save(ctx context.Context, d *Document) error
	Get(ctx context.Context, id DocumentID) (*Document, error)
	GetByVideoJob(ctx context.Context, jobID string) (*Document, error)
	ListByClaim(ctx context.Context, claimID string) ([]*Document, error)
	DeleteByClaim(ctx context.Context, claimID string) error
}
