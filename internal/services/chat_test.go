package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos/testutil"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/requestdata"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
)

type fakeAI struct {
	reply       string
	err         error
	calls       int
	lastMessage string
	lastHistory []*types.ChatMessage
}

func (f *fakeAI) Generate(ctx context.Context, message string, history []*types.ChatMessage, language string) (string, error) {
	f.calls++
	f.lastMessage = message
	f.lastHistory = history
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newChatFixture(t *testing.T, ai AIClient) (ChatService, context.Context) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	convRepo := repos.NewChatConversationRepo(db, log)
	msgRepo := repos.NewChatMessageRepo(db, log)
	svc := NewChatService(db, log, convRepo, msgRepo, ai, defaultClarifyTemplates())
	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{SessionID: "sess-1"})
	return svc, ctx
}

const ambiguousMsg = "tư vấn giúp mình với"
const clearMsg = "điện thoại pin trâu 7 triệu chơi game"

func TestSendMessageAmbiguousAsksClarification(t *testing.T) {
	ai := &fakeAI{reply: "should not be called"}
	svc, ctx := newChatFixture(t, ai)

	reply, conv, err := svc.SendMessage(ctx, nil, ambiguousMsg, "")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if ai.calls != 0 {
		t.Errorf("AI called %d times for ambiguous message, want 0", ai.calls)
	}
	if reply.Role != types.ChatRoleAssistant || reply.Intent != types.ChatIntentClarify {
		t.Errorf("reply role=%q intent=%q, want assistant/clarify", reply.Role, reply.Intent)
	}
	if conv.Title != ambiguousMsg {
		t.Errorf("conversation title = %q, want first message", conv.Title)
	}

	messages, total, err := svc.GetMessages(ctx, conv.ID, 0)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(messages) != 2 || total != 2 {
		t.Fatalf("got %d messages (total %d), want 2", len(messages), total)
	}
	if messages[0].Role != types.ChatRoleUser || !messages[0].IsAmbiguous || messages[0].Intent != types.ChatIntentNeedClarify {
		t.Errorf("user message not tagged: role=%q ambiguous=%v intent=%q",
			messages[0].Role, messages[0].IsAmbiguous, messages[0].Intent)
	}
	if messages[1].ID != reply.ID {
		t.Errorf("assistant message not last in conversation order")
	}
}

func TestSendMessageFallbackAfterTwoClarifies(t *testing.T) {
	ai := &fakeAI{reply: "should not be called"}
	svc, ctx := newChatFixture(t, ai)

	first, conv, err := svc.SendMessage(ctx, nil, ambiguousMsg, "")
	if err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	if first.Intent != types.ChatIntentClarify {
		t.Fatalf("turn 1 intent = %q, want clarify", first.Intent)
	}
	second, _, err := svc.SendMessage(ctx, &conv.ID, "ok", "")
	if err != nil {
		t.Fatalf("turn 2: %v", err)
	}
	if second.Intent != types.ChatIntentClarify {
		t.Fatalf("turn 2 intent = %q, want clarify", second.Intent)
	}
	third, _, err := svc.SendMessage(ctx, &conv.ID, "ok", "")
	if err != nil {
		t.Fatalf("turn 3: %v", err)
	}
	if third.Intent != types.ChatIntentFallback {
		t.Errorf("turn 3 intent = %q, want fallback", third.Intent)
	}
	if third.Content != defaultClarifyTemplates().Fallback["en"] {
		t.Errorf("turn 3 content = %q, want fallback text", third.Content)
	}
	if ai.calls != 0 {
		t.Errorf("AI called %d times, want 0", ai.calls)
	}
}

func TestSendMessageClearForwardsToAI(t *testing.T) {
	ai := &fakeAI{reply: "Gợi ý: Galaxy A55 pin 5000mAh trong tầm giá."}
	svc, ctx := newChatFixture(t, ai)

	reply, conv, err := svc.SendMessage(ctx, nil, clearMsg, "")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if ai.calls != 1 {
		t.Errorf("AI called %d times, want 1", ai.calls)
	}
	if reply.Content != ai.reply {
		t.Errorf("reply content = %q, want AI text", reply.Content)
	}
	if reply.Intent != "" {
		t.Errorf("forwarded reply intent = %q, want empty", reply.Intent)
	}
	// the client appends the current message itself, so the history must not
	// repeat it
	for _, m := range ai.lastHistory {
		if m.Content == clearMsg {
			t.Errorf("current message duplicated into AI history")
		}
	}
	if ai.lastMessage != clearMsg {
		t.Errorf("AI message = %q, want %q", ai.lastMessage, clearMsg)
	}

	messages, total, err := svc.GetMessages(ctx, conv.ID, 0)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(messages) != 2 || total != 2 {
		t.Fatalf("got %d messages (total %d), want 2", len(messages), total)
	}
	if messages[0].IsAmbiguous {
		t.Error("clear user message tagged ambiguous")
	}
}

func TestSendMessageSecondTurnHistoryExcludesCurrent(t *testing.T) {
	ai := &fakeAI{reply: "x"}
	svc, ctx := newChatFixture(t, ai)

	_, conv, err := svc.SendMessage(ctx, nil, clearMsg, "")
	if err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	followUp := "laptop văn phòng 15 triệu màn đẹp"
	if _, _, err := svc.SendMessage(ctx, &conv.ID, followUp, ""); err != nil {
		t.Fatalf("turn 2: %v", err)
	}
	// prior turns (user + assistant) stay in the history, the current turn
	// only travels as the message argument
	if len(ai.lastHistory) != 2 {
		t.Fatalf("history has %d messages, want 2", len(ai.lastHistory))
	}
	for _, m := range ai.lastHistory {
		if m.Content == followUp {
			t.Errorf("current message duplicated into AI history")
		}
	}
}

func TestSendMessageAIFailureKeepsUserMessage(t *testing.T) {
	ai := &fakeAI{err: ErrAIQuotaExceeded}
	svc, ctx := newChatFixture(t, ai)

	_, _, err := svc.SendMessage(ctx, nil, clearMsg, "")
	var unavailable *ChatUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want ChatUnavailableError", err)
	}
	if unavailable.Message == "" {
		t.Error("unavailable message is empty")
	}

	conversations, err := svc.ListConversations(ctx, 0)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(conversations) != 1 {
		t.Fatalf("got %d conversations, want 1", len(conversations))
	}
	messages, _, err := svc.GetMessages(ctx, conversations[0].ID, 0)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(messages) != 1 || messages[0].Role != types.ChatRoleUser {
		t.Errorf("expected only the durable user message, got %d messages", len(messages))
	}
}

func TestSendMessageClarifyCountIsPerConversation(t *testing.T) {
	ai := &fakeAI{reply: "x"}
	svc, ctx := newChatFixture(t, ai)

	_, conv1, err := svc.SendMessage(ctx, nil, ambiguousMsg, "")
	if err != nil {
		t.Fatalf("conv1 turn 1: %v", err)
	}
	if _, _, err := svc.SendMessage(ctx, &conv1.ID, "ok", ""); err != nil {
		t.Fatalf("conv1 turn 2: %v", err)
	}

	// a new conversation starts with a clean clarify budget
	reply, _, err := svc.SendMessage(ctx, nil, ambiguousMsg, "")
	if err != nil {
		t.Fatalf("conv2 turn 1: %v", err)
	}
	if reply.Intent != types.ChatIntentClarify {
		t.Errorf("new conversation intent = %q, want clarify", reply.Intent)
	}
}

func TestChatOwnershipIsEnforced(t *testing.T) {
	ai := &fakeAI{reply: "x"}
	svc, ctx := newChatFixture(t, ai)

	_, conv, err := svc.SendMessage(ctx, nil, ambiguousMsg, "")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	otherCtx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{SessionID: "sess-2"})
	if _, _, err := svc.GetMessages(otherCtx, conv.ID, 0); err == nil {
		t.Error("GetMessages allowed cross-session read")
	}
	if err := svc.DeleteConversation(otherCtx, conv.ID); err == nil {
		t.Error("DeleteConversation allowed cross-session delete")
	}
	if _, _, err := svc.SendMessage(otherCtx, &conv.ID, "hello there my friend", ""); err == nil {
		t.Error("SendMessage allowed posting into another session's conversation")
	}

	userID := uuid.New()
	userCtx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
	if _, _, err := svc.GetMessages(userCtx, conv.ID, 0); err == nil {
		t.Error("GetMessages allowed user read of a guest conversation")
	}
}

func TestDeleteConversationRemovesMessages(t *testing.T) {
	ai := &fakeAI{reply: "x"}
	svc, ctx := newChatFixture(t, ai)

	_, conv, err := svc.SendMessage(ctx, nil, ambiguousMsg, "")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if err := svc.DeleteConversation(ctx, conv.ID); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if _, _, err := svc.GetMessages(ctx, conv.ID, 0); err == nil {
		t.Error("conversation still readable after delete")
	}
	conversations, err := svc.ListConversations(ctx, 0)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(conversations) != 0 {
		t.Errorf("got %d conversations after delete, want 0", len(conversations))
	}
}
