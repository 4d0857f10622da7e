package orchestrator

import "strings"

const DefaultLanguage = "English"

type Language struct {
	Value string
	Label string
}

// SupportedLanguages is the list offered to users. Other values are passed
// through to the model as free text.
var SupportedLanguages = []Language{
	{Value: "English", Label: "English"},
	{Value: "Spanish", Label: "Español"},
	{Value: "French", Label: "Français"},
	{Value: "German", Label: "Deutsch"},
	{Value: "Italian", Label: "Italiano"},
	{Value: "Portuguese", Label: "Português"},
	{Value: "Japanese", Label: "日本語"},
	{Value: "Korean", Label: "한국어"},
	{Value: "Mandarin Chinese", Label: "中文"},
}

// ResolveLanguage matches value against the supported list by value or label,
// case-insensitively. Unknown values are returned trimmed.
func ResolveLanguage(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultLanguage
	}
	for _, lang := range SupportedLanguages {
		if strings.EqualFold(lang.Value, value) || strings.EqualFold(lang.Label, value) {
			return lang.Value
		}
	}
	return value
}
