// Package ai extracts structured exam questions from documents using
// the Gemini API, with sequential model fallback.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/hocthi/examroom-backend/internal/extract"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

var (
	// ErrInvalidCredential aborts the fallback chain: retrying other
	// models with a bad API key cannot succeed.
	ErrInvalidCredential = errors.New("invalid API credential")
	// ErrAllModelsFailed is returned after every model in the chain has
	// been attempted once.
	ErrAllModelsFailed = errors.New("all models failed")
)

// attemptFunc performs one generation call against one model and
// returns the raw text response. Swappable in tests.
type attemptFunc func(ctx context.Context, apiKey, modelName string, parts []genai.Part) (string, error)

// Client runs the extraction pipeline: prompt, model fallback chain,
// response parsing and normalization.
type Client struct {
	models  []string
	timeout time.Duration
	attempt attemptFunc
	log     zerolog.Logger
}

// NewClient creates a Client over the given model catalog. Each attempt
// is bounded by timeout.
func NewClient(models []string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		models:  models,
		timeout: timeout,
		attempt: generate,
		log:     log.With().Str("component", "ai_client").Logger(),
	}
}

// Models returns the model catalog.
func (c *Client) Models() []string {
	return c.models
}

// ExtractText runs the extraction chain over plain document text.
func (c *Client) ExtractText(ctx context.Context, apiKey, selectedModel, text string) (*ExamDraft, error) {
	parts := []genai.Part{genai.Text(BuildTextPrompt(text))}
	return c.run(ctx, apiKey, selectedModel, parts)
}

// ExtractImages runs the extraction chain over rendered page images
// for documents whose text layer is empty (scanned exams).
func (c *Client) ExtractImages(ctx context.Context, apiKey, selectedModel string, pages []extract.PageImage) (*ExamDraft, error) {
	parts := make([]genai.Part, 0, len(pages)+1)
	for _, p := range pages {
		parts = append(parts, genai.ImageData(p.Format, p.Data))
	}
	parts = append(parts, genai.Text(BuildVisionPrompt()))
	return c.run(ctx, apiKey, selectedModel, parts)
}

// run tries each model in fallback order, one attempt per model. A
// credential error aborts the whole chain; any other failure advances
// to the next model.
func (c *Client) run(ctx context.Context, apiKey, selectedModel string, parts []genai.Part) (*ExamDraft, error) {
	var lastErr error

	for _, modelName := range FallbackOrder(c.models, selectedModel) {
		raw, err := c.tryModel(ctx, apiKey, modelName, parts)
		if err != nil {
			if isCredentialErr(err) {
				c.log.Warn().Err(err).Str("model", modelName).Msg("Credential rejected, aborting chain")
				return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
			}
			c.log.Warn().Err(err).Str("model", modelName).Msg("Model attempt failed, trying next")
			lastErr = err
			continue
		}

		draft, err := ParseDraft(raw)
		if err != nil {
			c.log.Warn().Err(err).Str("model", modelName).Msg("Unparseable response, trying next")
			lastErr = err
			continue
		}

		c.log.Info().
			Str("model", modelName).
			Int("questions", len(draft.Questions)).
			Msg("Extraction succeeded")
		return draft, nil
	}

	if lastErr == nil {
		lastErr = errors.New("empty model catalog")
	}
	return nil, fmt.Errorf("%w: %v", ErrAllModelsFailed, lastErr)
}

func (c *Client) tryModel(ctx context.Context, apiKey, modelName string, parts []genai.Part) (string, error) {
	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.attempt(attemptCtx, apiKey, modelName, parts)
}

// FallbackOrder returns the catalog reordered so selected comes first,
// with the remaining models kept in catalog order. An unknown selected
// model leaves the catalog order unchanged.
func FallbackOrder(catalog []string, selected string) []string {
	order := make([]string, 0, len(catalog))
	found := false
	for _, m := range catalog {
		if m == selected {
			found = true
			continue
		}
		order = append(order, m)
	}
	if !found {
		return catalog
	}
	return append([]string{selected}, order...)
}

// isCredentialErr reports whether an API error indicates a bad key
// rather than a transient model failure.
func isCredentialErr(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, signal := range []string{"api key not valid", "invalid api key", "400", "401", "403"} {
		if strings.Contains(msg, signal) {
			return true
		}
	}
	return false
}

// generate is the production attemptFunc backed by the Gemini API.
func generate(ctx context.Context, apiKey, modelName string, parts []genai.Part) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(modelName)
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("empty response from model")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("response has no text parts")
	}
	return sb.String(), nil
}
