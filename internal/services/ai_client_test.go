package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos/testutil"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/requestdata"
)

func newTestGeminiServer(t *testing.T, reply string, requests *[]geminiRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		*requests = append(*requests, req)
		resp := geminiResponse{}
		resp.Candidates = []struct {
			Content geminiContent `json:"content"`
		}{
			{Content: geminiContent{Role: "model", Parts: []geminiPart{{Text: reply}}}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func countOccurrences(req geminiRequest, text string) int {
	n := 0
	for _, c := range req.Contents {
		for _, p := range c.Parts {
			if p.Text == text {
				n++
			}
		}
	}
	return n
}

func TestGenerateSendsCurrentMessageOnce(t *testing.T) {
	var requests []geminiRequest
	srv := newTestGeminiServer(t, "Gợi ý: Galaxy A55.", &requests)
	defer srv.Close()

	db := testutil.DB(t)
	log := testutil.Logger(t)
	ai := &geminiClient{
		log:        log,
		baseURL:    srv.URL,
		apiKey:     "test-key",
		model:      "test-model",
		httpClient: srv.Client(),
	}
	svc := NewChatService(db, log,
		repos.NewChatConversationRepo(db, log),
		repos.NewChatMessageRepo(db, log),
		ai, defaultClarifyTemplates())
	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{SessionID: "sess-ai"})

	_, conv, err := svc.SendMessage(ctx, nil, clearMsg, "")
	if err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	followUp := "so sánh iPhone 15 và Galaxy S24 về camera"
	if _, _, err := svc.SendMessage(ctx, &conv.ID, followUp, ""); err != nil {
		t.Fatalf("turn 2: %v", err)
	}

	if len(requests) != 2 {
		t.Fatalf("got %d AI requests, want 2", len(requests))
	}
	if got := countOccurrences(requests[0], clearMsg); got != 1 {
		t.Errorf("first turn: message appears %d times in AI request, want 1", got)
	}
	if got := countOccurrences(requests[1], followUp); got != 1 {
		t.Errorf("second turn: message appears %d times in AI request, want 1", got)
	}
	// the second request still carries the first exchange as history
	if got := countOccurrences(requests[1], clearMsg); got != 1 {
		t.Errorf("second turn: prior user message appears %d times in history, want 1", got)
	}
	last := requests[1].Contents[len(requests[1].Contents)-1]
	if last.Role != "user" || last.Parts[0].Text != followUp {
		t.Errorf("current message is not the final content element")
	}
}
