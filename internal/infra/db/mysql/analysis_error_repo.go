package mysql

import (
    "context"
    "database/sql"
    "strings"
    "time"

    domain "github.com/veritasai/veritas-claims/internal/domain/claimerrors"
)

type AnalysisErrorRepository struct {
    db *sql.DB
}

func NewAnalysisErrorRepository(db *sql.DB) *AnalysisErrorRepository {
    return &AnalysisErrorRepository{db: db}
}

func (r *AnalysisErrorRepository) Save(ctx context.Context, e *domain.AnalysisError) error {
    const q = `
INSERT INTO claim_analysis_errors
  (claim_id, file_key, phase, message, created_at)
VALUES (?,?,?,?,?)
`
    claim := stringOrDash(e.ClaimID)
    phase := stringOrDash(e.Phase)
    msg := e.Message
    if strings.TrimSpace(msg) == "" {
        msg = "-"
    }
    created := e.CreatedAt
    if created.IsZero() {
        created = time.Now()
    }
    _, err := r.db.ExecContext(ctx, q, claim, e.FileKey, phase, msg, created)
    return err
}

func (r *AnalysisErrorRepository) ListByClaim(ctx context.Context, claimID string, limit int) ([]*domain.AnalysisError, error) {
    if limit <= 0 {
        limit = 20
    }
    const q = `
SELECT id, claim_id, file_key, phase, message, created_at
FROM claim_analysis_errors
WHERE claim_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?;`
    rows, err := r.db.QueryContext(ctx, q, claimID, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []*domain.AnalysisError
    for rows.Next() {
        var e domain.AnalysisError
        if err := rows.Scan(&e.ID, &e.ClaimID, &e.FileKey, &e.Phase, &e.Message, &e.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, &e)
    }
    return out, rows.Err()
}
