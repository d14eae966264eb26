package ai

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
)

var testCatalog = []string{"model-a", "model-b", "model-c"}

const goodResponse = `{"title":"Đề thi","questions":[{"id":1,"question":"Q?","correct_answer":"A"}]}`

func newTestClient(attempt attemptFunc) *Client {
	c := NewClient(testCatalog, time.Second, zerolog.Nop())
	c.attempt = attempt
	return c
}

func TestFallbackOrder(t *testing.T) {
	tests := []struct {
		selected string
		want     []string
	}{
		{"model-a", []string{"model-a", "model-b", "model-c"}},
		{"model-b", []string{"model-b", "model-a", "model-c"}},
		{"model-c", []string{"model-c", "model-a", "model-b"}},
		{"", []string{"model-a", "model-b", "model-c"}},
		{"unknown", []string{"model-a", "model-b", "model-c"}},
	}

	for _, tt := range tests {
		if got := FallbackOrder(testCatalog, tt.selected); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("FallbackOrder(%q) = %v, want %v", tt.selected, got, tt.want)
		}
	}
}

func TestExtractTextFallsThroughToNextModel(t *testing.T) {
	var tried []string
	c := newTestClient(func(_ context.Context, _, modelName string, _ []genai.Part) (string, error) {
		tried = append(tried, modelName)
		if modelName == "model-b" {
			return "", errors.New("model overloaded, try again later")
		}
		return goodResponse, nil
	})

	draft, err := c.ExtractText(context.Background(), "key", "model-b", "văn bản đề thi")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(draft.Questions) != 1 {
		t.Fatalf("got %d questions", len(draft.Questions))
	}
	if want := []string{"model-b", "model-a"}; !reflect.DeepEqual(tried, want) {
		t.Errorf("tried %v, want %v", tried, want)
	}
}

func TestExtractTextCredentialShortCircuit(t *testing.T) {
	attempts := 0
	c := newTestClient(func(_ context.Context, _, _ string, _ []genai.Part) (string, error) {
		attempts++
		return "", errors.New("googleapi: Error 401: API key not valid. Please pass a valid API key.")
	})

	_, err := c.ExtractText(context.Background(), "bad-key", "model-a", "text")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("err = %v, want ErrInvalidCredential", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (chain must abort)", attempts)
	}
}

func TestExtractTextExhaustion(t *testing.T) {
	var tried []string
	c := newTestClient(func(_ context.Context, _, modelName string, _ []genai.Part) (string, error) {
		tried = append(tried, modelName)
		return "", errors.New("googleapi: Error 429: quota exceeded")
	})

	_, err := c.ExtractText(context.Background(), "key", "model-a", "text")
	if !errors.Is(err, ErrAllModelsFailed) {
		t.Fatalf("err = %v, want ErrAllModelsFailed", err)
	}
	if len(tried) != len(testCatalog) {
		t.Errorf("tried %d models, want %d", len(tried), len(testCatalog))
	}
}

func TestExtractTextUnparseableAdvances(t *testing.T) {
	var tried []string
	c := newTestClient(func(_ context.Context, _, modelName string, _ []genai.Part) (string, error) {
		tried = append(tried, modelName)
		if modelName == "model-a" {
			return "xin lỗi, tôi không thể phân tích đề thi này", nil
		}
		return goodResponse, nil
	})

	if _, err := c.ExtractText(context.Background(), "key", "model-a", "text"); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if want := []string{"model-a", "model-b"}; !reflect.DeepEqual(tried, want) {
		t.Errorf("tried %v, want %v", tried, want)
	}
}

func TestIsCredentialErr(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"googleapi: Error 401: unauthorized", true},
		{"googleapi: Error 403: forbidden", true},
		{"googleapi: Error 400: API key not valid", true},
		{"Invalid API Key provided", true},
		{"googleapi: Error 429: quota exceeded", false},
		{"connection reset by peer", false},
	}
	for _, tt := range tests {
		if got := isCredentialErr(errors.New(tt.msg)); got != tt.want {
			t.Errorf("isCredentialErr(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}
