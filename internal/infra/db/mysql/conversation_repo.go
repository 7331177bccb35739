package mysql

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/veritasai/veritas-claims/internal/domain/analysis"
    domain "github.com/veritasai/veritas-claims/internal/domain/conversations"
)

type ConversationRepository struct {
    db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
    return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Save(ctx context.Context, s *domain.Session) error {
    const q = `
INSERT INTO conversation_sessions (id, turns, last_turn_id, updated_at)
VALUES (?,?,?,?)
ON DUPLICATE KEY UPDATE
 turns=VALUES(turns), last_turn_id=VALUES(last_turn_id), updated_at=VALUES(updated_at);
`
    turns, err := jsonColumn(s.Turns)
    if err != nil {
        return fmt.Errorf("encoding turns: %w", err)
    }
    updated := s.UpdatedAt
    if updated.IsZero() {
        updated = time.Now()
    }
    _, err = r.db.ExecContext(ctx, q, s.ID, turns, s.LastTurnID, updated)
    return err
}

func (r *ConversationRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
    const q = `
SELECT id, turns, last_turn_id, updated_at
FROM conversation_sessions
WHERE id = ? LIMIT 1;`
    var s domain.Session
    var turns sql.NullString
    err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &turns, &s.LastTurnID, &s.UpdatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, analysis.ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    if err := scanJSON(turns, &s.Turns); err != nil {
        return nil, fmt.Errorf("decoding turns: %w", err)
    }
    return &s, nil
}
