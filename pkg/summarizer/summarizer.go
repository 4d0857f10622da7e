// Package summarizer turns an audio clip into a short summary plus suggested
// replies using a generative model that answers in JSON.
package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/logging"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/utils"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultLanguage  = "English"
	expectedReplies  = 3
	schemaName       = "audio_summary"
	networkMessage   = "Failed to get a response from the AI model."
	schemaMessage    = "The AI model returned an invalid response format."
	emptyAudioReason = "audio payload is empty"
)

type Request struct {
	Audio      model.SelectedAudio
	Language   string
	Credential model.Credential
}

// Backend performs the single outbound call and returns the raw response text.
type Backend interface {
	Generate(ctx context.Context, req Request) (string, model.GenerationMetadata, error)
}

type Client struct {
	backend Backend
}

func New(backend Backend) *Client {
	return &Client{backend: backend}
}

// NewBackend builds the backend registered for provider.
func NewBackend(provider string, opts ...model.GeneratorOption) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderGemini:
		return NewGeminiBackend(opts...), nil
	case ProviderOpenAI:
		return NewOpenAIBackend(opts...), nil
	default:
		return nil, utils.WrapIfNotNil(fmt.Errorf("unknown summarization provider %q", provider))
	}
}

// Summarize calls the backend once and validates the response. A response that
// does not match {summary: string, replies: []string} is rejected as a whole.
func (c *Client) Summarize(ctx context.Context, req Request) (model.SummaryResult, model.GenerationMetadata, error) {
	log := logging.NewLogger(ctx)
	if c.backend == nil {
		return model.SummaryResult{}, nil, model.NewError(model.KindNetwork, networkMessage, errors.New("no summarization backend configured"))
	}
	if req.Audio.IsZero() || strings.TrimSpace(req.Audio.PayloadBase64) == "" {
		return model.SummaryResult{}, nil, model.NewError(model.KindPrecondition, "Please select an audio file first.", errors.New(emptyAudioReason))
	}
	if req.Credential.IsZero() {
		return model.SummaryResult{}, nil, model.NewError(model.KindPrecondition, "Please provide an API key first.", nil)
	}
	req.Language = resolveLanguage(req.Language)

	raw, meta, err := c.backend.Generate(ctx, req)
	if err != nil {
		if utils.ContainsAnyErrorSubstring(err, "API key not valid", "invalid_api_key", "401") {
			log.Warn("summarization request was rejected; the API key may be invalid")
		}
		log.Errorf("error: %v", err)
		if model.KindOf(err) != "" {
			return model.SummaryResult{}, meta, err
		}
		return model.SummaryResult{}, meta, model.NewError(model.KindNetwork, networkMessage, err)
	}

	result, err := ParseSummary(raw)
	if err != nil {
		log.Errorf("invalid summary response: %v", err)
		return model.SummaryResult{}, meta, err
	}
	if len(result.Replies) != expectedReplies {
		log.Warnf("summary returned %d replies, expected %d", len(result.Replies), expectedReplies)
	}
	return result, meta, nil
}

// ParseSummary trims and decodes raw model output. It fails with ErrSchema when
// the text is not JSON, summary is not a string or replies is not a list of strings.
func ParseSummary(raw string) (model.SummaryResult, error) {
	text := strings.TrimSpace(raw)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return model.SummaryResult{}, schemaError(fmt.Errorf("response is not a JSON object: %w", err))
	}

	summary, ok := parsed["summary"].(string)
	if !ok {
		return model.SummaryResult{}, schemaError(errors.New("summary is missing or not a string"))
	}

	items, ok := parsed["replies"].([]any)
	if !ok {
		return model.SummaryResult{}, schemaError(errors.New("replies is missing or not an array"))
	}
	replies := make([]string, 0, len(items))
	for i, item := range items {
		reply, ok := item.(string)
		if !ok {
			return model.SummaryResult{}, schemaError(fmt.Errorf("replies[%d] is not a string", i))
		}
		replies = append(replies, reply)
	}

	return model.SummaryResult{Summary: summary, Replies: replies}, nil
}

func schemaError(cause error) error {
	return model.NewError(model.KindSchema, schemaMessage, cause)
}

func resolveLanguage(language string) string {
	if trimmed := strings.TrimSpace(language); trimmed != "" {
		return trimmed
	}
	return DefaultLanguage
}

// BuildPrompt returns the instruction sent alongside the audio.
func BuildPrompt(language string) string {
	language = resolveLanguage(language)
	return strings.Join([]string{
		"You are an expert audio analyst. Listen to this audio carefully.",
		"1. Provide a concise summary of the audio content in 2-5 lines.",
		"2. Suggest 3 short, distinct, and plausible replies to the message.",
		fmt.Sprintf("3. The entire response, including summary and replies, must be in %s.", language),
		"4. Your response must be in JSON format according to the provided schema.",
	}, "\n")
}
