package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	domai "github.com/bryanwahyu/phish-detector/internal/domain/ai"
)

func TestClient_Answer(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  Enable 2FA.  "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test", "", srv.URL+"/v1")
	got, err := c.Answer(context.Background(), "how do I secure my account")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Enable 2FA." {
		t.Errorf("answer = %q", got)
	}
	if gotModel == "" {
		t.Error("default model not sent")
	}
}

func TestClient_AnswerQuota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota","type":"insufficient_quota","code":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test", "gpt-4o-mini", srv.URL+"/v1")
	if _, err := c.Answer(context.Background(), "hi"); !errors.Is(err, domai.ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
}

func TestIsReasoningModel(t *testing.T) {
	for model, want := range map[string]bool{"o3-mini": true, "gpt-5": true, "gpt-4o-mini": false} {
		if got := isReasoningModel(model); got != want {
			t.Errorf("isReasoningModel(%q) = %v", model, got)
		}
	}
}
