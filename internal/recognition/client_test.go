package recognition

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lotscan/internal/config"
)

func testConfig(url string) config.Recognition {
	return config.Recognition{APIKey: "test", BaseURL: url, Model: "demo-model"}
}

func TestRecognizeReturnsModelText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		var req struct {
			Messages []struct {
				Content []struct {
					Type     string `json:"type"`
					Text     string `json:"text"`
					ImageURL *struct {
						URL string `json:"url"`
					} `json:"image_url"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || len(req.Messages[0].Content) != 3 {
			t.Fatalf("expected prompt plus two images, got %#v", req.Messages)
		}
		if req.Messages[0].Content[0].Type != "text" {
			t.Fatalf("expected text part first, got %q", req.Messages[0].Content[0].Type)
		}
		for _, part := range req.Messages[0].Content[1:] {
			if part.ImageURL == nil || !strings.HasPrefix(part.ImageURL.URL, "data:image/jpeg;base64,") {
				t.Fatalf("expected jpeg data url, got %#v", part)
			}
		}

		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{"content": "1G1FW1R77J4100000"},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	text, err := client.Recognize(context.Background(), [][]byte{{0x01}, {0x02}}, "read the VIN")
	if err != nil {
		t.Fatalf("Recognize returned error: %v", err)
	}
	if text != "1G1FW1R77J4100000" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestRecognizeHTTPFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.Recognize(context.Background(), [][]byte{{0x01}}, "read the VIN")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRecognizeUnreachableIsUnavailable(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:1/unreachable"))
	_, err := client.Recognize(context.Background(), [][]byte{{0x01}}, "read the VIN")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRecognizeEmptyContentIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"content": "   "}},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.Recognize(context.Background(), [][]byte{{0x01}}, "read the VIN")
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestRecognizeAPIErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{"error": map[string]any{"message": "model overloaded"}}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.Recognize(context.Background(), [][]byte{{0x01}}, "read the VIN")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("expected api message in error, got %v", err)
	}
}

func TestRecognizeRequiresInputs(t *testing.T) {
	client := NewClient(testConfig("http://example.invalid"))
	if _, err := client.Recognize(context.Background(), nil, "prompt"); err == nil {
		t.Fatal("expected error for missing images")
	}
	if _, err := client.Recognize(context.Background(), [][]byte{{0x01}}, "  "); err == nil {
		t.Fatal("expected error for missing prompt")
	}
}
