package summarizer

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/logging"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/utils"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

const (
	defaultOpenAIModelName        = "gpt-5-mini"
	defaultTranscriptionModelName = "whisper-1"
	transcriptPromptHeader        = "Transcript of the audio message:"
)

// OpenAIBackend transcribes the audio first and then asks the Responses API for
// a strict JSON-schema summary of the transcript.
type OpenAIBackend struct {
	cfg model.GeneratorConfig
}

var _ Backend = (*OpenAIBackend)(nil)

func NewOpenAIBackend(opts ...model.GeneratorOption) *OpenAIBackend {
	return &OpenAIBackend{cfg: model.ResolveGeneratorOpts(opts...)}
}

func (b *OpenAIBackend) Generate(ctx context.Context, req Request) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveModelName(b.cfg, defaultOpenAIModelName)
	meta := initMetadata(ProviderOpenAI, modelName)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	audioBytes, err := req.Audio.Bytes()
	if err != nil {
		return "", meta, model.NewError(model.KindRead, "Could not read the selected file.", utils.WrapIfNotNil(err))
	}

	apiKey := resolveAPIKey(b.cfg, req)
	if apiKey == "" {
		return "", meta, utils.WrapIfNotNil(errors.New("openai api key is required"))
	}
	client := newOpenAIClient(b.cfg, apiKey)

	transcript, err := b.transcribe(ctx, client, req, audioBytes)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	meta[model.MetadataKeyTranscriptChars] = strconv.Itoa(len(transcript))

	schema, err := OutputSchema(req.Language)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	params := b.buildResponseParams(modelName, req.Language, transcript, schema)
	log.Infof(
		"summarize_request provider=%s model=%q transcript_chars=%d language=%q",
		ProviderOpenAI,
		modelName,
		len(transcript),
		req.Language,
	)

	response, err := client.Responses.New(ctx, params)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	if response == nil {
		return "", meta, utils.WrapIfNotNil(errors.New("responses API returned nil response"))
	}

	applyOpenAIResponseMetadata(meta, response)
	return strings.TrimSpace(response.OutputText()), meta, nil
}

func newOpenAIClient(cfg model.GeneratorConfig, apiKey string) openai.Client {
	requestOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.URL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.URL))
	}
	return openai.NewClient(requestOpts...)
}

func (b *OpenAIBackend) transcribe(ctx context.Context, client openai.Client, req Request, audioBytes []byte) (string, error) {
	fileName := strings.TrimSpace(req.Audio.Name)
	if fileName == "" {
		fileName = "audio" + extensionFor(req.Audio.MIMEType)
	}

	params := openai.AudioTranscriptionNewParams{
		File:           openai.File(bytes.NewReader(audioBytes), fileName, req.Audio.MIMEType),
		Model:          openai.AudioModel(b.transcriptionModelName()),
		ResponseFormat: openai.AudioResponseFormatJSON,
	}

	response, err := client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}
	if response == nil {
		return "", utils.WrapIfNotNil(errors.New("audio transcriptions API returned nil response"))
	}

	transcript := strings.TrimSpace(response.Text)
	if transcript == "" {
		return "", utils.WrapIfNotNil(errors.New("transcription response is empty"))
	}
	return transcript, nil
}

func (b *OpenAIBackend) transcriptionModelName() string {
	if b.cfg.TranscriptionModel != nil {
		if name := strings.TrimSpace(*b.cfg.TranscriptionModel); name != "" {
			return name
		}
	}
	return defaultTranscriptionModelName
}

func (b *OpenAIBackend) buildResponseParams(
	modelName string,
	language string,
	transcript string,
	schema map[string]any,
) responses.ResponseNewParams {
	prompt := BuildPrompt(language) + "\n\n" + transcriptPromptHeader + "\n" + transcript

	params := responses.ResponseNewParams{
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
			},
		},
		Model: shared.ResponsesModel(modelName),
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:   schemaName,
					Schema: schema,
					Strict: openai.Bool(true),
				},
			},
		},
	}

	if b.cfg.Temperature != nil {
		params.Temperature = openai.Float(*b.cfg.Temperature)
	}
	if b.cfg.MaxTokens != nil {
		params.MaxOutputTokens = openai.Int(int64(*b.cfg.MaxTokens))
	}
	if b.cfg.ReasoningLevel != nil {
		params.Reasoning = shared.ReasoningParam{
			Effort: mapReasoningEffort(*b.cfg.ReasoningLevel),
		}
	}
	return params
}

func mapReasoningEffort(level model.ReasoningLevel) shared.ReasoningEffort {
	switch level {
	case model.ReasoningLevelNone:
		return shared.ReasoningEffortNone
	case model.ReasoningLevelLow:
		return shared.ReasoningEffortLow
	case model.ReasoningLevelMed:
		return shared.ReasoningEffortMedium
	case model.ReasoningLevelHigh:
		return shared.ReasoningEffortHigh
	default:
		return shared.ReasoningEffortMedium
	}
}

func applyOpenAIResponseMetadata(meta model.GenerationMetadata, response *responses.Response) {
	if meta == nil || response == nil {
		return
	}

	meta[model.MetadataKeyAPICalls] = "2"
	meta[model.MetadataKeyInputTokens] = strconv.FormatInt(response.Usage.InputTokens, 10)
	meta[model.MetadataKeyOutputTokens] = strconv.FormatInt(response.Usage.OutputTokens, 10)
	meta[model.MetadataKeyTotalTokens] = strconv.FormatInt(response.Usage.TotalTokens, 10)
	meta[model.MetadataKeyCachedInputTokens] = strconv.FormatInt(response.Usage.InputTokensDetails.CachedTokens, 10)
	meta[model.MetadataKeyReasoningTokens] = strconv.FormatInt(response.Usage.OutputTokensDetails.ReasoningTokens, 10)
	if response.ID != "" {
		meta[model.MetadataKeyResponseID] = response.ID
	}
	if response.Status != "" {
		meta[model.MetadataKeyResponseStatus] = string(response.Status)
	}
}
