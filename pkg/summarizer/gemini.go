package summarizer

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/logging"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/utils"
	"google.golang.org/genai"
)

const defaultGeminiModelName = "gemini-2.5-flash"

// GeminiBackend sends the audio inline to the Gemini API and asks for JSON
// matching the summary schema.
type GeminiBackend struct {
	cfg model.GeneratorConfig
}

var _ Backend = (*GeminiBackend)(nil)

func NewGeminiBackend(opts ...model.GeneratorOption) *GeminiBackend {
	return &GeminiBackend{cfg: model.ResolveGeneratorOpts(opts...)}
}

func (b *GeminiBackend) Generate(ctx context.Context, req Request) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveModelName(b.cfg, defaultGeminiModelName)
	meta := initMetadata(ProviderGemini, modelName)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	audioBytes, err := req.Audio.Bytes()
	if err != nil {
		return "", meta, model.NewError(model.KindRead, "Could not read the selected file.", utils.WrapIfNotNil(err))
	}

	schema, err := OutputSchema(req.Language)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	client, err := newGeminiClient(ctx, b.cfg, resolveAPIKey(b.cfg, req))
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	config := buildGenerateContentConfig(b.cfg)
	config.ResponseMIMEType = "application/json"
	config.ResponseJsonSchema = schema

	contents := []*genai.Content{
		genai.NewContentFromParts(
			[]*genai.Part{
				genai.NewPartFromBytes(audioBytes, req.Audio.MIMEType),
				genai.NewPartFromText(BuildPrompt(req.Language)),
			},
			genai.RoleUser,
		),
	}

	log.Infof(
		"summarize_request provider=%s model=%q mime=%s bytes=%d language=%q",
		ProviderGemini,
		modelName,
		req.Audio.MIMEType,
		len(audioBytes),
		req.Language,
	)

	response, err := generateWithThinkingFallback(ctx, client, modelName, contents, config)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	if response == nil {
		return "", meta, utils.WrapIfNotNil(errors.New("gemini returned a nil response"))
	}

	applyGeminiMetadata(meta, response)
	return strings.TrimSpace(response.Text()), meta, nil
}

func newGeminiClient(ctx context.Context, cfg model.GeneratorConfig, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, utils.WrapIfNotNil(errors.New("gemini api key is required"))
	}

	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	}
	if baseURL := strings.TrimSpace(cfg.URL); baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{
			BaseURL: baseURL,
		}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return client, nil
}

func buildGenerateContentConfig(cfg model.GeneratorConfig) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if cfg.Temperature != nil {
		temp := float32(*cfg.Temperature)
		config.Temperature = &temp
	}
	if cfg.MaxTokens != nil {
		config.MaxOutputTokens = int32(*cfg.MaxTokens)
	}
	if cfg.ReasoningLevel != nil {
		config.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingLevel: mapThinkingLevel(*cfg.ReasoningLevel),
		}
	}
	return config
}

func mapThinkingLevel(level model.ReasoningLevel) genai.ThinkingLevel {
	switch level {
	case model.ReasoningLevelNone:
		return genai.ThinkingLevelMinimal
	case model.ReasoningLevelLow:
		return genai.ThinkingLevelLow
	case model.ReasoningLevelMed:
		return genai.ThinkingLevelMedium
	case model.ReasoningLevelHigh:
		return genai.ThinkingLevelHigh
	default:
		return genai.ThinkingLevelMedium
	}
}

func generateWithThinkingFallback(
	ctx context.Context,
	client *genai.Client,
	modelName string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	response, err := client.Models.GenerateContent(ctx, modelName, contents, config)
	if err == nil {
		return response, nil
	}

	if config == nil || config.ThinkingConfig == nil || !utils.ContainsErrorSubstring(err, "Thinking level is not supported for this model") {
		return nil, utils.WrapIfNotNil(err)
	}

	logging.NewLogger(ctx).Warnf(
		"thinking level unsupported for model %q; retrying without thinking config",
		modelName,
	)
	retryConfig := *config
	retryConfig.ThinkingConfig = nil
	response, err = client.Models.GenerateContent(ctx, modelName, contents, &retryConfig)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return response, nil
}

func applyGeminiMetadata(meta model.GenerationMetadata, response *genai.GenerateContentResponse) {
	if meta == nil || response == nil {
		return
	}

	meta[model.MetadataKeyAPICalls] = "1"
	if usage := response.UsageMetadata; usage != nil {
		meta[model.MetadataKeyInputTokens] = strconv.Itoa(int(usage.PromptTokenCount))
		meta[model.MetadataKeyOutputTokens] = strconv.Itoa(int(usage.CandidatesTokenCount))
		meta[model.MetadataKeyTotalTokens] = strconv.Itoa(int(usage.TotalTokenCount))
		meta[model.MetadataKeyCachedInputTokens] = strconv.Itoa(int(usage.CachedContentTokenCount))
		meta[model.MetadataKeyReasoningTokens] = strconv.Itoa(int(usage.ThoughtsTokenCount))
	}
	if strings.TrimSpace(response.ResponseID) != "" {
		meta[model.MetadataKeyResponseID] = response.ResponseID
	}
	if len(response.Candidates) > 0 && response.Candidates[0] != nil {
		meta[model.MetadataKeyResponseStatus] = string(response.Candidates[0].FinishReason)
	}
}
