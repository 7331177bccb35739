package postgres

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "reflect"
    "strings"
    "time"

    "github.com/veritasai/veritas-claims/internal/domain/analysis"
    domain "github.com/veritasai/veritas-claims/internal/domain/claims"
)

type ClaimRepository struct{ db *sql.DB }

func NewClaimRepository(db *sql.DB) *ClaimRepository { return &ClaimRepository{db: db} }

// Save insert/update Claim record
func (r *ClaimRepository) Save(ctx context.Context, c *domain.Claim) error {
    const q = `
INSERT INTO claims
(id, adjuster_id, status, adjuster_notes, file_keys,
 summary, fraud_risk_score, key_risk_factors, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
 status = EXCLUDED.status,
 adjuster_notes = EXCLUDED.adjuster_notes,
 file_keys = EXCLUDED.file_keys,
 summary = EXCLUDED.summary,
 fraud_risk_score = EXCLUDED.fraud_risk_score,
 key_risk_factors = EXCLUDED.key_risk_factors,
 updated_at = EXCLUDED.updated_at;`

    adjuster := stringOrDash(c.AdjusterID)
    created := c.CreatedAt
    if created.IsZero() { created = time.Now() }
    updated := c.UpdatedAt
    if updated.IsZero() { updated = created }

    keys, err := jsonColumn(c.FileKeys)
    if err != nil {
        return fmt.Errorf("encoding file keys: %w", err)
    }

    var summary sql.NullString
    var score sql.NullInt64
    var factors sql.NullString
    if c.Report != nil {
        summary = sql.NullString{String: c.Report.Summary, Valid: true}
        score = sql.NullInt64{Int64: int64(c.Report.FraudRiskScore), Valid: true}
        factors, err = jsonColumn(c.Report.KeyRiskFactors)
        if err != nil {
            return fmt.Errorf("encoding risk factors: %w", err)
        }
    }

    _, err = r.db.ExecContext(ctx, q,
        c.ID, adjuster, c.Status, c.AdjusterNotes, keys,
        summary, score, factors, created, updated,
    )
    return err
}

// Get by ID + adjuster
func (r *ClaimRepository) Get(ctx context.Context, adjuster string, id domain.ClaimID) (*domain.Claim, error) {
    const q = selectClaims + ` WHERE adjuster_id=$1 AND id=$2 LIMIT 1;`
    row := r.db.QueryRowContext(ctx, q, adjuster, id)
    c, err := scanClaim(row)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, analysis.ErrNotFound
    }
    return c, err
}

// Latest claims per adjuster
func (r *ClaimRepository) Latest(ctx context.Context, adjuster string, limit int) ([]*domain.Claim, error) {
    if limit <= 0 { limit = 20 }
    const q = selectClaims + ` WHERE adjuster_id=$1 ORDER BY created_at DESC LIMIT $2;`
    rows, err := r.db.QueryContext(ctx, q, adjuster, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []*domain.Claim
    for rows.Next() {
        c, err := scanClaim(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, c)
    }
    return out, rows.Err()
}

// UpdateStatus hanya update kolom status
func (r *ClaimRepository) UpdateStatus(ctx context.Context, id domain.ClaimID, status domain.Status) error {
    const q = `UPDATE claims SET status = $1, updated_at = $2 WHERE id = $3;`
    _, err := r.db.ExecContext(ctx, q, status, time.Now(), id)
    return err
}

// UpdateReport commits report fields and status atomically.
func (r *ClaimRepository) UpdateReport(ctx context.Context, id domain.ClaimID, report domain.RiskReport, status domain.Status) error {
    const q = `
UPDATE claims
SET summary = $1,
    fraud_risk_score = $2,
    key_risk_factors = $3,
    status = $4,
    updated_at = $5
WHERE id = $6;`
    factors, err := jsonColumn(report.KeyRiskFactors)
    if err != nil {
        return fmt.Errorf("encoding risk factors: %w", err)
    }
    _, err = r.db.ExecContext(ctx, q,
        report.Summary, report.FraudRiskScore, factors,
        status, time.Now(), id,
    )
    return err
}

const selectClaims = `
SELECT id, adjuster_id, status, adjuster_notes, file_keys,
       summary, fraud_risk_score, key_risk_factors, created_at, updated_at
FROM claims`

type rowScanner interface{ Scan(dest ...any) error }

func scanClaim(row rowScanner) (*domain.Claim, error) {
    var c domain.Claim
    var keys, summary, factors sql.NullString
    var score sql.NullInt64
    if err := row.Scan(
        &c.ID, &c.AdjusterID, &c.Status, &c.AdjusterNotes, &keys,
        &summary, &score, &factors, &c.CreatedAt, &c.UpdatedAt,
    ); err != nil {
        return nil, err
    }
    if keys.Valid && keys.String != "" {
        if err := json.Unmarshal([]byte(keys.String), &c.FileKeys); err != nil {
            return nil, fmt.Errorf("decoding file keys: %w", err)
        }
    }
    if summary.Valid && score.Valid {
        report := domain.RiskReport{
            Summary:        summary.String,
            FraudRiskScore: int(score.Int64),
            KeyRiskFactors: []string{},
        }
        if factors.Valid && factors.String != "" {
            if err := json.Unmarshal([]byte(factors.String), &report.KeyRiskFactors); err != nil {
                return nil, fmt.Errorf("decoding risk factors: %w", err)
            }
        }
        c.Report = &report
    }
    return &c, nil
}

func jsonColumn(v any) (sql.NullString, error) {
    if v == nil {
        return sql.NullString{}, nil
    }
    // typed-nil pointers are non-nil as any, Marshal would store "null"
    if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
        return sql.NullString{}, nil
    }
    b, err := json.Marshal(v)
    if err != nil {
        return sql.NullString{}, err
    }
    return sql.NullString{String: string(b), Valid: true}, nil
}

func stringOrDash(s string) string {
    if strings.TrimSpace(s) == "" { return "-" }
    return s
}
