package openai

import (
    "context"
    "fmt"
    "time"

    "github.com/google/uuid"
    "github.com/sashabaranov/go-openai"

    "github.com/veritasai/veritas-claims/internal/domain/conversations"
)

// Conversation adapts the chat API to the multi-turn ConversationService
// port. The upstream API is stateless, so the dialogue history lives in
// the session repository; turn ids enforce correct threading, a
// follow-up must reference the id of the turn it answers.
type Conversation struct {
    client   *openai.Client
    model    string
    sessions conversations.Repository
}

func NewConversation(apiKey, model string, sessions conversations.Repository) *Conversation {
    if model == "" {
        model = "gpt-4o"
    }
    if sessions == nil {
        sessions = conversations.NewMemoryRepository()
    }
    return &Conversation{
        client:   openai.NewClient(apiKey),
        model:    model,
        sessions: sessions,
    }
}

// StartChat opens a session seeded with the claim context and returns
// the session id plus the id of the opening turn.
func (c *Conversation) StartChat(ctx context.Context, seedContext string) (string, string, string, error) {
    turns := []conversations.Turn{
        {Role: openai.ChatMessageRoleSystem, Content: seedContext},
        {Role: openai.ChatMessageRoleUser, Content: "Confirm you have loaded the case file."},
    }

    reply, err := c.complete(ctx, turns)
    if err != nil {
        return "", "", "", fmt.Errorf("failed to start conversation: %w", err)
    }
    turns = append(turns, conversations.Turn{Role: openai.ChatMessageRoleAssistant, Content: reply})

    sess := &conversations.Session{
        ID:         uuid.New().String(),
        Turns:      turns,
        LastTurnID: uuid.New().String(),
        UpdatedAt:  time.Now(),
    }
    if err := c.sessions.Save(ctx, sess); err != nil {
        return "", "", "", fmt.Errorf("saving conversation: %w", err)
    }
    return sess.ID, reply, sess.LastTurnID, nil
}

// Chat sends a follow-up on an existing session. parentTurnID must match
// the id handed out on the previous turn; a stale or missing id means
// the caller lost the thread.
func (c *Conversation) Chat(ctx context.Context, sessionID, parentTurnID, message string) (string, string, error) {
    sess, err := c.sessions.Get(ctx, sessionID)
    if err != nil {
        return "", "", fmt.Errorf("unknown conversation %s: %w", sessionID, err)
    }
    if sess.LastTurnID != parentTurnID {
        return "", "", fmt.Errorf("parent turn %s does not match the latest turn of conversation %s", parentTurnID, sessionID)
    }

    sess.Turns = append(sess.Turns, conversations.Turn{Role: openai.ChatMessageRoleUser, Content: message})
    reply, err := c.complete(ctx, sess.Turns)
    if err != nil {
        return "", "", fmt.Errorf("failed to continue conversation: %w", err)
    }

    sess.Turns = append(sess.Turns, conversations.Turn{Role: openai.ChatMessageRoleAssistant, Content: reply})
    sess.LastTurnID = uuid.New().String()
    sess.UpdatedAt = time.Now()
    // Concurrent turns on one session race; whoever commits last wins.
    if err := c.sessions.Save(ctx, sess); err != nil {
        return "", "", fmt.Errorf("saving conversation: %w", err)
    }
    return reply, sess.LastTurnID, nil
}

func (c *Conversation) complete(ctx context.Context, turns []conversations.Turn) (string, error) {
    messages := make([]openai.ChatCompletionMessage, 0, len(turns))
    for _, t := range turns {
        messages = append(messages, openai.ChatCompletionMessage{Role: t.Role, Content: t.Content})
    }
    resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
        Model:    c.model,
        Messages: messages,
    })
    if err != nil {
        return "", err
    }
    if len(resp.Choices) == 0 {
        return "", fmt.Errorf("conversation returned no choices")
    }
    return resp.Choices[0].Message.Content, nil
}
