package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/config"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/credentials"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/identity"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/logging"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/orchestrator"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/picker"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/secrets"
	filestore "github.com/Nephrolytics-ai/audio-summarizer/pkg/secrets/file"
	memorystore "github.com/Nephrolytics-ai/audio-summarizer/pkg/secrets/memory"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/session"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/summarizer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type app struct {
	cfg          config.Config
	secrets      secrets.Store
	identity     *identity.Session
	session      *session.Session
	picker       *picker.Source
	summarizer   *summarizer.Client
	orchestrator *orchestrator.Orchestrator
}

type wireOptions struct {
	backend     summarizer.Backend
	secrets     secrets.Store
	consent     identity.ConsentLoader
	userInfo    identity.UserInfoFetcher
	driveLoader picker.ClientLoader
}

type wireOption func(*wireOptions)

func withBackend(backend summarizer.Backend) wireOption {
	return func(o *wireOptions) { o.backend = backend }
}

func withSecretStore(store secrets.Store) wireOption {
	return func(o *wireOptions) { o.secrets = store }
}

func withConsent(load identity.ConsentLoader, userInfo identity.UserInfoFetcher) wireOption {
	return func(o *wireOptions) {
		o.consent = load
		o.userInfo = userInfo
	}
}

func withDriveLoader(load picker.ClientLoader) wireOption {
	return func(o *wireOptions) { o.driveLoader = load }
}

func wireApp(cmd *cobra.Command, flags rootFlags, opts ...wireOption) (*app, error) {
	options := wireOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	cfg, err := config.Load(viper.New(), flags.configFile, flags.envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.ephemeral {
		cfg.Ephemeral = true
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	logging.Configure(cmd.ErrOrStderr(), cfg.LogLevel)

	store := options.secrets
	if store == nil {
		store, err = newSecretStore(cfg)
		if err != nil {
			return nil, err
		}
	}

	consent := options.consent
	userInfo := options.userInfo
	if consent == nil {
		consent = identity.NewOAuthLoader(identity.OAuthConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			ListenAddr:   cfg.OAuth.ListenAddr,
			Timeout:      cfg.OAuth.Timeout,
			OpenURL: func(authURL string) error {
				_, err := fmt.Fprintf(cmd.ErrOrStderr(), "Open this URL in your browser to sign in with Google:\n\n%s\n\n", authURL)
				return err
			},
		})
	}
	if userInfo == nil {
		userInfo = identity.NewHTTPUserInfo(nil)
	}

	identitySession := identity.NewSession(consent, userInfo)
	sess := session.New(identitySession, credentials.NewStore(store))

	driveLoader := options.driveLoader
	if driveLoader == nil {
		driveLoader = picker.NewDriveLoader(picker.DriveConfig{
			BaseURL:      cfg.DriveBaseURL,
			DeveloperKey: cfg.Google.DeveloperKey,
		}, &picker.PromptChooser{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()})
	}
	source := picker.NewSource(driveLoader, cfg.Google.DeveloperKey, sess)

	backend := options.backend
	if backend == nil {
		backend, err = summarizer.NewBackend(cfg.Provider, generatorOptions(cfg)...)
		if err != nil {
			return nil, fmt.Errorf("wire summarizer: %w", err)
		}
	}
	client := summarizer.New(backend)

	return &app{
		cfg:          cfg,
		secrets:      store,
		identity:     identitySession,
		session:      sess,
		picker:       source,
		summarizer:   client,
		orchestrator: orchestrator.New(sess, client, source),
	}, nil
}

func newSecretStore(cfg config.Config) (secrets.Store, error) {
	if cfg.Ephemeral {
		return memorystore.NewStore(), nil
	}
	if strings.TrimSpace(cfg.StoreDir) == "" {
		return nil, errors.New("store_dir is empty; set SUMMARIZER_STORE_DIR or use --ephemeral")
	}
	return filestore.NewStore(cfg.StoreDir), nil
}

func generatorOptions(cfg config.Config) []model.GeneratorOption {
	opts := make([]model.GeneratorOption, 0, 3)
	if cfg.Model != "" {
		opts = append(opts, model.WithModel(cfg.Model))
	}
	if cfg.TranscriptionModel != "" {
		opts = append(opts, model.WithTranscriptionModel(cfg.TranscriptionModel))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, model.WithURL(cfg.BaseURL))
	}
	return opts
}

// start initializes the session and, when asked, runs sign-in before the command body.
func (a *app) start(ctx context.Context, signIn bool) error {
	a.session.Start(ctx)
	if !signIn {
		return nil
	}
	return a.signIn(ctx)
}

func (a *app) signIn(ctx context.Context) error {
	if a.identity.WaitInitialized(ctx) != identity.InitReady {
		return userError(ctx, model.NewError(model.KindNotReady, "Google Sign-In is not configured.", identity.ErrMisconfigured))
	}
	if _, err := a.session.SignIn(ctx); err != nil {
		return userError(ctx, err)
	}
	return nil
}

// userError logs the full cause and returns only the user-facing message.
func userError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	logging.NewLogger(ctx).Debugf("command failed: %v", err)
	return errors.New(model.UserMessage(err))
}
