package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"safespend/internal/core"
)

func testRequest() core.AdviceRequest {
	return core.AdviceRequest{
		Amounts: core.Amounts{
			Income:        decimal.NewFromInt(5000),
			Expenses:      decimal.NewFromInt(3000),
			Savings:       decimal.NewFromInt(10000),
			DebtRepayment: decimal.NewFromInt(2000),
		},
		Goal: "Pay off my car loan",
	}
}

func completionBody(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1/", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error without API key")
	}
}

func TestGenerateAdviceSendsPromptAndReturnsContent(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var auth string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody("## Plan\nSave **more**."))
	})

	asOf := time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)
	out, err := c.GenerateAdvice(context.Background(), testRequest(), asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "## Plan\nSave **more**." {
		t.Fatalf("gateway should return raw text, got %q", out)
	}
	if auth != "Bearer test-key" {
		t.Fatalf("unexpected Authorization header %q", auth)
	}
	if got.Model != DefaultModel {
		t.Fatalf("expected model %q, got %q", DefaultModel, got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
	for _, part := range []string{"$5000", "$3000", "$10000", "$2000", "Pay off my car loan", "March 07, 2024"} {
		if !strings.Contains(got.Messages[1].Content, part) {
			t.Errorf("user prompt missing %q", part)
		}
	}
}

func TestGenerateAdviceFailuresAreServiceErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"unauthorized": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`)
		},
		"rate limited": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`)
		},
		"no choices": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4","choices":[]}`)
		},
		"empty content": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, completionBody("   "))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, handler)
			_, err := c.GenerateAdvice(context.Background(), testRequest(), time.Now())
			var se *core.ServiceError
			if !errors.As(err, &se) {
				t.Fatalf("expected ServiceError, got %v", err)
			}
		})
	}
}

func TestGenerateAdviceDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	if _, err := c.GenerateAdvice(context.Background(), testRequest(), time.Now()); err == nil {
		t.Fatalf("expected error")
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected exactly one call, got %d", n)
	}
}

func TestGenerateAdviceNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{APIKey: "k", BaseURL: url + "/v1/"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.GenerateAdvice(context.Background(), testRequest(), time.Now())
	var se *core.ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
}
