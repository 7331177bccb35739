package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/veritasai/veritas-claims/internal/application"
	domain "github.com/veritasai/veritas-claims/internal/domain/documents"
)

// Tracker owns the lifecycle state of each uploaded file. It is the only
// writer of Document records during a run; distinct documents never share
// state, so concurrent per-file goroutines can use it without extra locks.
type Tracker struct {
	Repo  domain.Repository
	Clock application.Clock
}

// StartProcessing creates the Document record for a file and puts it in
// the processing state.
func (t *Tracker) StartProcessing(ctx context.Context, claimID, fileKey string) (*domain.Document, error) {
	name := originalFilename(fileKey)
	doc := &domain.Document{
		ID:               domain.DocumentID(uuid.New().String()),
		ClaimID:          claimID,
		FileKey:          fileKey,
		OriginalFilename: name,
		Kind:             domain.KindForFilename(name),
		Status:           domain.StatusProcessing,
		UploadedAt:       t.Clock.Now(),
	}
	if err := t.Repo.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving document for %s: %w", fileKey, err)
	}
	return doc, nil
}

// RecordResult persists a document with its evidence and terminal status.
func (t *Tracker) RecordResult(ctx context.Context, doc *domain.Document, status domain.Status) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}
	doc.Status = status
	return t.Repo.Save(ctx, doc)
}

// SaveProgress persists evidence gathered so far without moving the
// document to a terminal state. Used when a video job has been submitted
// and the result will arrive out of band.
func (t *Tracker) SaveProgress(ctx context.Context, doc *domain.Document) error {
	return t.Repo.Save(ctx, doc)
}

// RecordFailure marks the document failed and stores a diagnostic in the
// extracted-text slot so the failure stays visible in the evidence bundle
// instead of silently disappearing.
func (t *Tracker) RecordFailure(ctx context.Context, doc *domain.Document, cause error) error {
	doc.ExtractedText = fmt.Sprintf("Error extracting text from file: %s. Reason: %v", doc.FileKey, cause)
	doc.Status = domain.StatusFailed
	return t.Repo.Save(ctx, doc)
}

// ListForAggregation returns the claim's documents in stored order,
// excluding any that are still processing. Failed documents are included;
// the aggregator surfaces their diagnostics as text evidence.
func (t *Tracker) ListForAggregation(ctx context.Context, claimID string) ([]*domain.Document, error) {
	all, err := t.Repo.ListByClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Document, 0, len(all))
	for _, d := range all {
		if d.Status.Terminal() {
			out = append(out, d)
		}
	}
	return out, nil
}

// FindByVideoJob resolves the document a video analysis job belongs to.
func (t *Tracker) FindByVideoJob(ctx context.Context, jobID string) (*domain.Document, error) {
	return t.Repo.GetByVideoJob(ctx, jobID)
}

// ClearForClaim removes all prior documents so a re-analysis starts from
// a clean slate.
func (t *Tracker) ClearForClaim(ctx context.Context, claimID string) error {
	return t.Repo.DeleteByClaim(ctx, claimID)
}

// originalFilename is the last segment of the blob key.
func originalFilename(fileKey string) string {
	if i := strings.LastIndex(fileKey, "/"); i >= 0 {
		return fileKey[i+1:]
	}
	return fileKey
}
