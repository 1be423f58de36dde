package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaStream(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		chunks := []chatResponse{
			{Model: "llama3", Message: Message{Role: RoleAssistant, Content: "안녕"}},
			{Model: "llama3", Message: Message{Role: RoleAssistant, Content: "하세요"}},
			{Model: "llama3", Done: true, PromptEvalCount: 12, EvalCount: 7},
		}
		enc := json.NewEncoder(w)
		for _, c := range chunks {
			if err := enc.Encode(c); err != nil {
				t.Errorf("encode chunk: %v", err)
			}
		}
	}))
	defer srv.Close()

	client := NewOllamaClient(srv.URL, "llama3")

	var got []string
	comp, err := client.Stream(context.Background(), Request{
		System:    "시스템 프롬프트",
		History:   []Message{{Role: RoleUser, Content: "이전"}, {Role: RoleAssistant, Content: "응답"}},
		Input:     "현재 발언",
		MaxTokens: 200,
	}, func(chunk string) error {
		got = append(got, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	if comp.Content != "안녕하세요" {
		t.Errorf("Content = %q", comp.Content)
	}
	if len(got) != 2 || got[0] != "안녕" || got[1] != "하세요" {
		t.Errorf("chunks = %v", got)
	}
	if comp.InputTokens != 12 || comp.OutputTokens != 7 {
		t.Errorf("tokens = %d/%d", comp.InputTokens, comp.OutputTokens)
	}
	if comp.ResponseID != "" {
		t.Errorf("ResponseID = %q, want empty for ollama", comp.ResponseID)
	}

	if !gotReq.Stream {
		t.Error("request not marked streaming")
	}
	if gotReq.Model != "llama3" {
		t.Errorf("model = %q", gotReq.Model)
	}
	// system + 2 history + input
	if len(gotReq.Messages) != 4 {
		t.Fatalf("messages = %d, want 4", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != RoleSystem || gotReq.Messages[3].Content != "현재 발언" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
	if gotReq.Options == nil || gotReq.Options.NumPredict != 200 {
		t.Errorf("options = %+v", gotReq.Options)
	}
}

func TestOllamaComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("Complete sent a streaming request")
		}
		json.NewEncoder(w).Encode(chatResponse{
			Model:           "llama3",
			Message:         Message{Role: RoleAssistant, Content: "전체 응답"},
			Done:            true,
			PromptEvalCount: 5,
			EvalCount:       3,
		})
	}))
	defer srv.Close()

	client := NewOllamaClient(srv.URL, "llama3")
	comp, err := client.Complete(context.Background(), Request{Input: "질문"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if comp.Content != "전체 응답" {
		t.Errorf("Content = %q", comp.Content)
	}
	if comp.InputTokens != 5 || comp.OutputTokens != 3 {
		t.Errorf("tokens = %d/%d", comp.InputTokens, comp.OutputTokens)
	}
}

func TestOllamaStreamConsumerStop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enc := json.NewEncoder(w)
		for _, c := range []string{"하나", "둘", "셋"} {
			enc.Encode(chatResponse{Message: Message{Content: c}})
		}
		enc.Encode(chatResponse{Done: true})
	}))
	defer srv.Close()

	client := NewOllamaClient(srv.URL, "m")
	n := 0
	comp, err := client.Stream(context.Background(), Request{Input: "q"}, func(chunk string) error {
		n++
		if n == 2 {
			return fmt.Errorf("stop")
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected consumer error")
	}
	if comp == nil || comp.Content != "하나둘" {
		t.Errorf("partial content = %+v", comp)
	}
}

func TestOllamaAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewOllamaClient(srv.URL, "missing")
	if _, err := client.Complete(context.Background(), Request{Input: "q"}); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestOllamaPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	client := NewOllamaClient(srv.URL, "m")
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestOllamaDefaultBaseURL(t *testing.T) {
	client := NewOllamaClient("", "m")
	if client.baseURL != "http://localhost:11434" {
		t.Errorf("baseURL = %q", client.baseURL)
	}
}
