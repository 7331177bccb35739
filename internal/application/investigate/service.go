package investigate

import (
	"context"
	"fmt"
	"strings"

	appclaims "github.com/veritasai/veritas-claims/internal/application/claims"
	"github.com/veritasai/veritas-claims/internal/domain/analysis"
	domain "github.com/veritasai/veritas-claims/internal/domain/claims"
)

const (
	investigatorInstruction = "You are an AI insurance investigator. Use the information in the case file to answer."
	sessionGreeting         = "Context loaded. You can now ask questions about this claim."
)

// Service bridges adjusters to the conversational co-pilot. Each session
// is seeded with the claim's rendered evidence context; every follow-up
// must thread the previous turn id or the dialogue loses coherence.
type Service struct {
	Claims domain.Repository
	Store  analysis.BlobStore
	Conv   analysis.ConversationService
}

type SessionStart struct {
	SessionID string `json:"conversation_id"`
	Greeting  string `json:"system_message"`
	TurnID    string `json:"system_message_id"`
}

type Answer struct {
	Answer string `json:"answer"`
	TurnID string `json:"system_message_id"`
}

// StartSession opens a dialogue seeded with the claim's case file. A
// missing context artifact gets a minimal placeholder so session start
// never hard-fails purely on absent context.
func (s *Service) StartSession(ctx context.Context, adjuster string, claimID domain.ClaimID) (SessionStart, error) {
	if _, err := s.Claims.Get(ctx, adjuster, claimID); err != nil {
		return SessionStart{}, err
	}

	key := appclaims.ContextKey(string(claimID))
	contextBlob, err := s.Store.Get(ctx, key)
	if err != nil {
		placeholder := fmt.Sprintf("Initial context for claim %s.", claimID)
		if perr := s.Store.Put(ctx, key, []byte(placeholder), "text/plain"); perr != nil {
			return SessionStart{}, fmt.Errorf("creating placeholder context: %w", perr)
		}
		contextBlob = []byte(placeholder)
	}

	seed := investigatorInstruction + "\n\n" + string(contextBlob)
	sessionID, _, turnID, err := s.Conv.StartChat(ctx, seed)
	if err != nil {
		return SessionStart{}, fmt.Errorf("starting conversation: %w", err)
	}

	return SessionStart{SessionID: sessionID, Greeting: sessionGreeting, TurnID: turnID}, nil
}

// Ask sends a follow-up question on an existing session. The parent turn
// id is required from the caller on every call; dropping it silently
// would break multi-turn coherence, so its absence is an error instead.
func (s *Service) Ask(ctx context.Context, adjuster string, claimID domain.ClaimID, sessionID, parentTurnID, question string) (Answer, error) {
	if _, err := s.Claims.Get(ctx, adjuster, claimID); err != nil {
		return Answer{}, err
	}
	if strings.TrimSpace(sessionID) == "" {
		return Answer{}, fmt.Errorf("conversation id is required")
	}
	if strings.TrimSpace(parentTurnID) == "" {
		return Answer{}, analysis.ErrMissingParentTurn
	}

	reply, turnID, err := s.Conv.Chat(ctx, sessionID, parentTurnID, question)
	if err != nil {
		return Answer{}, fmt.Errorf("querying conversation: %w", err)
	}
	return Answer{Answer: reply, TurnID: turnID}, nil
}
