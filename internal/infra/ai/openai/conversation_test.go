package openai

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/http/httptest"
    "sync/atomic"
    "testing"

    "github.com/sashabaranov/go-openai"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/veritasai/veritas-claims/internal/domain/conversations"
)

func newTestConversation(t *testing.T, handler http.HandlerFunc) (*Conversation, *httptest.Server) {
    t.Helper()
    srv := httptest.NewServer(handler)
    t.Cleanup(srv.Close)

    cfg := openai.DefaultConfig("test-key")
    cfg.BaseURL = srv.URL + "/v1"
    return &Conversation{
        client:   openai.NewClientWithConfig(cfg),
        model:    "gpt-4o",
        sessions: conversations.NewMemoryRepository(),
    }, srv
}

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
    t.Helper()
    resp := openai.ChatCompletionResponse{
        Choices: []openai.ChatCompletionChoice{
            {Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
        },
    }
    require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestConversationStartThenChat(t *testing.T) {
    var calls int64
    conv, _ := newTestConversation(t, func(w http.ResponseWriter, r *http.Request) {
        n := atomic.AddInt64(&calls, 1)

        var req openai.ChatCompletionRequest
        require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
        assert.Equal(t, "gpt-4o", req.Model)

        if n == 1 {
            require.Len(t, req.Messages, 2)
            assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
            assert.Equal(t, "case file for claim c1", req.Messages[0].Content)
            chatReply(t, w, "Context loaded.")
            return
        }
        // follow-up carries the full history plus the new question
        require.Len(t, req.Messages, 4)
        assert.Equal(t, "Context loaded.", req.Messages[2].Content)
        assert.Equal(t, "Is the damage consistent?", req.Messages[3].Content)
        chatReply(t, w, "The damage is consistent with the report.")
    })

    ctx := context.Background()
    sessionID, greeting, turnID, err := conv.StartChat(ctx, "case file for claim c1")
    require.NoError(t, err)
    assert.NotEmpty(t, sessionID)
    assert.NotEmpty(t, turnID)
    assert.Equal(t, "Context loaded.", greeting)

    reply, nextTurn, err := conv.Chat(ctx, sessionID, turnID, "Is the damage consistent?")
    require.NoError(t, err)
    assert.Equal(t, "The damage is consistent with the report.", reply)
    assert.NotEqual(t, turnID, nextTurn)
}

func TestConversationRejectsStaleParentTurn(t *testing.T) {
    conv, _ := newTestConversation(t, func(w http.ResponseWriter, r *http.Request) {
        chatReply(t, w, "ok")
    })

    ctx := context.Background()
    sessionID, _, turnID, err := conv.StartChat(ctx, "seed")
    require.NoError(t, err)

    _, secondTurn, err := conv.Chat(ctx, sessionID, turnID, "first follow-up")
    require.NoError(t, err)

    // replaying the original turn id after a newer turn exists must fail
    _, _, err = conv.Chat(ctx, sessionID, turnID, "second follow-up")
    require.Error(t, err)
    assert.Contains(t, err.Error(), "does not match the latest turn")

    _, _, err = conv.Chat(ctx, sessionID, secondTurn, "second follow-up")
    require.NoError(t, err)
}

func TestConversationUnknownSession(t *testing.T) {
    conv, _ := newTestConversation(t, func(w http.ResponseWriter, r *http.Request) {
        chatReply(t, w, "ok")
    })

    _, _, err := conv.Chat(context.Background(), "missing-session", "turn-1", "hello")
    require.Error(t, err)
    assert.Contains(t, err.Error(), "unknown conversation missing-session")
}

func TestConversationNoChoices(t *testing.T) {
    conv, _ := newTestConversation(t, func(w http.ResponseWriter, r *http.Request) {
        fmt.Fprint(w, `{"choices":[]}`)
    })

    _, _, _, err := conv.StartChat(context.Background(), "seed")
    require.Error(t, err)
    assert.Contains(t, err.Error(), "no choices")
}
