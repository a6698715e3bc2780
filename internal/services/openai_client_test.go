package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newRetryTestClient(t *testing.T, baseURL string, maxRetries int) *openAIClient {
	t.Helper()
	return &openAIClient{
		log:        testLogger(t),
		baseURL:    baseURL,
		apiKey:     "test-key",
		model:      "test-model",
		imageModel: "test-image-model",
		httpClient: &http.Client{Timeout: 5 * time.Second},
		maxRetries: maxRetries,
	}
}

func TestIsRetryableErr_Classification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"wrapped canceled", fmt.Errorf("request: %w", context.Canceled), false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"http 429", &providerHTTPError{Provider: "openai", StatusCode: 429}, true},
		{"http 503", &providerHTTPError{Provider: "openai", StatusCode: 503}, true},
		{"http 400", &providerHTTPError{Provider: "openai", StatusCode: 400}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableErr(tt.err); got != tt.want {
				t.Fatalf("expected %v for %v, got %v", tt.want, tt.err, got)
			}
		})
	}
}

func TestDo_CanceledContextSkipsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		// The caller gives up mid-flight; the retry loop must not sleep a
		// backoff interval before noticing.
		cancel()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newRetryTestClient(t, srv.URL, 3)

	start := time.Now()
	_, err := c.Chat(ctx, "system", nil)
	elapsed := time.Since(start)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n := requests.Load(); n != 1 {
		t.Fatalf("expected a single request before cancellation, got %d", n)
	}
	if elapsed >= 500*time.Millisecond {
		t.Fatalf("expected immediate return after cancellation, took %s", elapsed)
	}
}

func TestDo_RetriesServerErrorsThenSucceeds(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"hello"}}]}`)
	}))
	defer srv.Close()

	c := newRetryTestClient(t, srv.URL, 3)

	reply, err := c.Chat(context.Background(), "system", nil)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply != "hello" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if n := requests.Load(); n != 2 {
		t.Fatalf("expected one retry, got %d requests", n)
	}
}
