package model

import (
	"encoding/base64"
	"errors"
	"strings"
)

// SelectedAudio is the audio picked for the current interaction. A new selection
// replaces it wholesale.
type SelectedAudio struct {
	Name          string
	PayloadBase64 string
	MIMEType      string
}

func NewSelectedAudio(name string, mimeType string, payload []byte) SelectedAudio {
	return SelectedAudio{
		Name:          name,
		PayloadBase64: base64.StdEncoding.EncodeToString(payload),
		MIMEType:      mimeType,
	}
}

func (a SelectedAudio) IsZero() bool {
	return a.Name == "" && a.PayloadBase64 == "" && a.MIMEType == ""
}

func (a SelectedAudio) Bytes() ([]byte, error) {
	if strings.TrimSpace(a.PayloadBase64) == "" {
		return nil, errors.New("audio payload is empty")
	}
	return base64.StdEncoding.DecodeString(a.PayloadBase64)
}

// SummaryResult is the validated summarization output.
type SummaryResult struct {
	Summary string   `json:"summary" jsonschema:"required"`
	Replies []string `json:"replies" jsonschema:"required"`
}
