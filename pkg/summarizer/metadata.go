package summarizer

import (
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
)

func initMetadata(provider string, modelName string) model.GenerationMetadata {
	if strings.TrimSpace(modelName) == "" {
		modelName = "unknown"
	}

	return model.GenerationMetadata{
		model.MetadataKeyProvider: provider,
		model.MetadataKeyModel:    modelName,
	}
}

func setLatencyMetadata(meta model.GenerationMetadata, start time.Time) {
	if meta == nil {
		return
	}
	meta[model.MetadataKeyLatencyMs] = strconv.FormatInt(time.Since(start).Milliseconds(), 10)
}

func resolveModelName(cfg model.GeneratorConfig, fallback string) string {
	if cfg.Model != nil {
		name := strings.TrimSpace(*cfg.Model)
		if name != "" {
			return name
		}
	}
	return fallback
}

// resolveAPIKey prefers the per-request credential over a configured token.
func resolveAPIKey(cfg model.GeneratorConfig, req Request) string {
	if !req.Credential.IsZero() {
		return strings.TrimSpace(req.Credential.Value())
	}
	return strings.TrimSpace(cfg.AuthToken)
}
