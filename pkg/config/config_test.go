package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"
)

type ConfigSuite struct {
	suite.Suite
	dir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *ConfigSuite) TestIsConfigured() {
	s.False(IsConfigured(""))
	s.False(IsConfigured("   "))
	s.False(IsConfigured("REPLACE_WITH_YOUR_GOOGLE_CLIENT_ID"))
	s.True(IsConfigured("1234-abc.apps.googleusercontent.com"))
}

func (s *ConfigSuite) TestDefaultsAreUnconfigured() {
	cfg, err := Load(viper.New(), "", filepath.Join(s.dir, "absent.env.never"))
	s.Require().Error(err, "an explicit env file must exist")

	cfg, err = Load(viper.New(), "", "")
	s.Require().NoError(err)
	s.False(cfg.SignInConfigured())
	s.False(cfg.PickerConfigured())
	s.Equal("gemini", cfg.Provider)
	s.Equal("English", cfg.Language)
	s.Equal(5*time.Minute, cfg.OAuth.Timeout)
	s.Equal("https://www.googleapis.com/drive/v3", cfg.DriveBaseURL)
}

func (s *ConfigSuite) TestConfigFileAndEnvironment() {
	configFile := filepath.Join(s.dir, "summarizer.toml")
	s.Require().NoError(os.WriteFile(configFile, []byte(`
provider = "OpenAI"
language = "Deutsch"

[google]
client_id = "1234-abc.apps.googleusercontent.com"
developer_key = "REPLACE_WITH_YOUR_GOOGLE_DEVELOPER_KEY"

[oauth]
timeout = "90s"
`), 0o600))
	s.T().Setenv("SUMMARIZER_LOG_LEVEL", "debug")
	s.T().Setenv("SUMMARIZER_GOOGLE_DEVELOPER_KEY", "AIza-picker-key")

	cfg, err := Load(viper.New(), configFile, "")
	s.Require().NoError(err)
	s.Equal("openai", cfg.Provider)
	s.Equal("Deutsch", cfg.Language)
	s.Equal("debug", cfg.LogLevel)
	s.True(cfg.SignInConfigured())
	s.True(cfg.PickerConfigured())
	s.Equal("AIza-picker-key", cfg.Google.DeveloperKey)
	s.Equal(90*time.Second, cfg.OAuth.Timeout)
}

func (s *ConfigSuite) TestDotEnvFileIsLoaded() {
	envFile := filepath.Join(s.dir, "test.env")
	s.Require().NoError(os.WriteFile(envFile, []byte("SUMMARIZER_MODEL=gemini-2.5-pro\n"), 0o600))
	s.T().Cleanup(func() { _ = os.Unsetenv("SUMMARIZER_MODEL") })

	cfg, err := Load(viper.New(), "", envFile)
	s.Require().NoError(err)
	s.Equal("gemini-2.5-pro", cfg.Model)
}

func (s *ConfigSuite) TestMissingConfigFileFails() {
	_, err := Load(viper.New(), filepath.Join(s.dir, "nope.toml"), "")
	s.Require().Error(err)
}
