// Package config loads runtime settings from defaults, an optional config file,
// a .env file and SUMMARIZER_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// PlaceholderPrefix marks a value copied from the sample config and never filled in.
const PlaceholderPrefix = "REPLACE_WITH"

const envPrefix = "SUMMARIZER"

const (
	KeyClientID       = "google.client_id"
	KeyClientSecret   = "google.client_secret"
	KeyDeveloperKey   = "google.developer_key"
	KeyProvider       = "provider"
	KeyModel          = "model"
	KeyTranscribe     = "transcription_model"
	KeyBaseURL        = "base_url"
	KeyLanguage       = "language"
	KeyStoreDir       = "store_dir"
	KeyEphemeral      = "ephemeral"
	KeyLogLevel       = "log_level"
	KeyListenAddr     = "oauth.listen_addr"
	KeyConsentTimeout = "oauth.timeout"
	KeyDriveBaseURL   = "drive.base_url"
)

type Google struct {
	ClientID     string
	ClientSecret string
	DeveloperKey string
}

type OAuth struct {
	ListenAddr string
	Timeout    time.Duration
}

type Config struct {
	Google             Google
	OAuth              OAuth
	Provider           string
	Model              string
	TranscriptionModel string
	BaseURL            string
	Language           string
	StoreDir           string
	Ephemeral          bool
	LogLevel           string
	DriveBaseURL       string
}

// IsConfigured is false for empty values and untouched placeholders.
func IsConfigured(value string) bool {
	trimmed := strings.TrimSpace(value)
	return trimmed != "" && !strings.HasPrefix(trimmed, PlaceholderPrefix)
}

func (c Config) SignInConfigured() bool {
	return IsConfigured(c.Google.ClientID)
}

func (c Config) PickerConfigured() bool {
	return IsConfigured(c.Google.DeveloperKey)
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyClientID, PlaceholderPrefix+"_YOUR_GOOGLE_CLIENT_ID")
	v.SetDefault(KeyClientSecret, "")
	v.SetDefault(KeyDeveloperKey, PlaceholderPrefix+"_YOUR_GOOGLE_DEVELOPER_KEY")
	v.SetDefault(KeyProvider, "gemini")
	v.SetDefault(KeyModel, "")
	v.SetDefault(KeyTranscribe, "")
	v.SetDefault(KeyBaseURL, "")
	v.SetDefault(KeyLanguage, "English")
	v.SetDefault(KeyStoreDir, defaultStoreDir())
	v.SetDefault(KeyEphemeral, false)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyListenAddr, "127.0.0.1:0")
	v.SetDefault(KeyConsentTimeout, 5*time.Minute)
	v.SetDefault(KeyDriveBaseURL, "https://www.googleapis.com/drive/v3")
}

// Load reads the optional .env file, then configFile (when non-empty) and the
// environment. A missing .env is not an error; a missing configFile is.
func Load(v *viper.Viper, configFile string, envFile string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	if err := loadDotEnv(envFile); err != nil {
		return Config{}, err
	}

	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(configFile) != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", configFile, err)
		}
	}

	return FromViper(v), nil
}

func FromViper(v *viper.Viper) Config {
	return Config{
		Google: Google{
			ClientID:     strings.TrimSpace(v.GetString(KeyClientID)),
			ClientSecret: strings.TrimSpace(v.GetString(KeyClientSecret)),
			DeveloperKey: strings.TrimSpace(v.GetString(KeyDeveloperKey)),
		},
		OAuth: OAuth{
			ListenAddr: strings.TrimSpace(v.GetString(KeyListenAddr)),
			Timeout:    v.GetDuration(KeyConsentTimeout),
		},
		Provider:           strings.ToLower(strings.TrimSpace(v.GetString(KeyProvider))),
		Model:              strings.TrimSpace(v.GetString(KeyModel)),
		TranscriptionModel: strings.TrimSpace(v.GetString(KeyTranscribe)),
		BaseURL:            strings.TrimSpace(v.GetString(KeyBaseURL)),
		Language:           strings.TrimSpace(v.GetString(KeyLanguage)),
		StoreDir:           strings.TrimSpace(v.GetString(KeyStoreDir)),
		Ephemeral:          v.GetBool(KeyEphemeral),
		LogLevel:           strings.TrimSpace(v.GetString(KeyLogLevel)),
		DriveBaseURL:       strings.TrimRight(strings.TrimSpace(v.GetString(KeyDriveBaseURL)), "/"),
	}
}

func loadDotEnv(envFile string) error {
	explicit := strings.TrimSpace(envFile) != ""
	if !explicit {
		envFile = ".env"
	}

	err := godotenv.Load(envFile)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return nil
	}
	return fmt.Errorf("load env file %q: %w", envFile, err)
}

func defaultStoreDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "audio-summarizer", "credentials")
	}
	return filepath.Join(os.TempDir(), "audio-summarizer", "credentials")
}
