package tests

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ExternalDependenciesSuite loads SETTINGS_FILE (default $HOME/.env) before
// suites that talk to real services. Suites skip when their keys are unset.
type ExternalDependenciesSuite struct {
	suite.Suite
	settingsFile string
}

func (s *ExternalDependenciesSuite) SetupSuite() {
	settingsFromEnv := strings.TrimSpace(os.Getenv("SETTINGS_FILE"))
	settingsFile := settingsFromEnv
	if settingsFile == "" {
		homeDir, err := os.UserHomeDir()
		require.NoError(s.T(), err)
		settingsFile = filepath.Join(homeDir, ".env")
	}
	s.settingsFile = settingsFile

	if _, err := os.Stat(settingsFile); err != nil {
		if errors.Is(err, os.ErrNotExist) && settingsFromEnv == "" {
			return
		}
		require.NoError(s.T(), err)
	}

	require.NoError(s.T(), godotenv.Overload(settingsFile))
}

// envOrSkip returns the trimmed value of name or skips the suite.
func (s *ExternalDependenciesSuite) envOrSkip(name string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		s.T().Skipf("%s is not set; skipping external dependency integration test", name)
	}
	return value
}

// audioFixture returns AUDIO_FIXTURE or skips when it is unset or unreadable.
func (s *ExternalDependenciesSuite) audioFixture() string {
	path := s.envOrSkip("AUDIO_FIXTURE")
	if _, err := os.Stat(path); err != nil {
		s.T().Skipf("%s is not accessible (%v); skipping audio integration test", path, err)
	}
	return path
}
