package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/veritasai/veritas-claims/internal/domain/analysis"
	domain "github.com/veritasai/veritas-claims/internal/domain/documents"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Save insert/update Document record. Distinct document ids upsert
// independent rows, so concurrent per-file writers never contend.
func (r *DocumentRepository) Save(ctx context.Context, d *domain.Document) error {
	const q = `
INSERT INTO claim_documents
(id, claim_id, file_key, original_filename, kind, status,
 extracted_text, forensics, reverse_search, image_metadata,
 video_results, video_job_id, uploaded_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 status=VALUES(status), extracted_text=VALUES(extracted_text),
 forensics=VALUES(forensics), reverse_search=VALUES(reverse_search),
 image_metadata=VALUES(image_metadata), video_results=VALUES(video_results),
 video_job_id=VALUES(video_job_id);
`
	uploaded := d.UploadedAt
	if uploaded.IsZero() {
		uploaded = time.Now()
	}

	forensics, err := jsonColumn(d.Forensics)
	if err != nil {
		return fmt.Errorf("encoding forensics: %w", err)
	}
	reverse, err := jsonColumn(d.ReverseSearch)
	if err != nil {
		return fmt.Errorf("encoding reverse search: %w", err)
	}
	meta, err := jsonColumn(d.Metadata)
	if err != nil {
		return fmt.Errorf("encoding image metadata: %w", err)
	}
	video, err := jsonColumn(d.Video)
	if err != nil {
		return fmt.Errorf("encoding video results: %w", err)
	}

	_, err = r.db.ExecContext(ctx, q,
		d.ID, d.ClaimID, d.FileKey, d.OriginalFilename, d.Kind, d.Status,
		d.ExtractedText, forensics, reverse, meta,
		video, d.VideoJobID, uploaded,
	)
	return err
}

// Get by ID
func (r *DocumentRepository) Get(ctx context.Context, id domain.DocumentID) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, selectDocuments+` WHERE id=? LIMIT 1;`, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, analysis.ErrNotFound
	}
	return d, err
}

// GetByVideoJob resolves the document owning an async video job.
func (r *DocumentRepository) GetByVideoJob(ctx context.Context, jobID string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, selectDocuments+` WHERE video_job_id=? LIMIT 1;`, jobID)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, analysis.ErrNotFound
	}
	return d, err
}

// ListByClaim returns the claim's documents in insertion order. The
// aggregator depends on this ordering being stable across reads.
func (r *DocumentRepository) ListByClaim(ctx context.Context, claimID string) ([]*domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, selectDocuments+` WHERE claim_id=? ORDER BY uploaded_at ASC, id ASC;`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteByClaim clears all documents before a re-analysis cycle.
func (r *DocumentRepository) DeleteByClaim(ctx context.Context, claimID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM claim_documents WHERE claim_id=?;`, claimID)
	return err
}

const selectDocuments = `
SELECT id, claim_id, file_key, original_filename, kind, status,
       extracted_text, forensics, reverse_search, image_metadata,
       video_results, video_job_id, uploaded_at
FROM claim_documents`

func scanDocument(row rowScanner) (*domain.Document, error) {
	var d domain.Document
	var forensics, reverse, meta, video sql.NullString
	var jobID sql.NullString
	if err := row.Scan(
		&d.ID, &d.ClaimID, &d.FileKey, &d.OriginalFilename, &d.Kind, &d.Status,
		&d.ExtractedText, &forensics, &reverse, &meta,
		&video, &jobID, &d.UploadedAt,
	); err != nil {
		return nil, err
	}
	d.VideoJobID = jobID.String

	if forensics.Valid {
		d.Forensics = &domain.ForensicsResult{}
		if err := scanJSON(forensics, d.Forensics); err != nil {
			return nil, fmt.Errorf("decoding forensics: %w", err)
		}
	}
	if reverse.Valid {
		d.ReverseSearch = &domain.ReverseSearchResult{}
		if err := scanJSON(reverse, d.ReverseSearch); err != nil {
			return nil, fmt.Errorf("decoding reverse search: %w", err)
		}
	}
	if meta.Valid {
		d.Metadata = &domain.ImageMetadata{}
		if err := scanJSON(meta, d.Metadata); err != nil {
			return nil, fmt.Errorf("decoding image metadata: %w", err)
		}
	}
	if video.Valid {
		d.Video = &domain.VideoResult{}
		if err := scanJSON(video, d.Video); err != nil {
			return nil, fmt.Errorf("decoding video results: %w", err)
		}
	}
	return &d, nil
}
