// Package handler implements one operation per endpoint of the translation
// desk. Operations are transport-neutral: they take a Request and return a
// payload or a classified error.
package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/pricofy/translation-desk/internal/authz"
	"github.com/pricofy/translation-desk/internal/config"
	"github.com/pricofy/translation-desk/internal/identity"
	"github.com/pricofy/translation-desk/internal/projects"
	"github.com/pricofy/translation-desk/internal/roles"
	"github.com/pricofy/translation-desk/internal/store"
	"github.com/pricofy/translation-desk/internal/translator"
)

// App holds the clients built once per process and shared by all calls.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	projects   *projects.Service
	gate       *authz.Gate
	resolver   *roles.Resolver
	directory  *roles.Directory
	translator *translator.Gateway
}

// New builds the App and all of its clients from cfg. Missing secrets do not
// fail here; the operations that need them report ConfigurationMissing.
func New(cfg *config.Config, logger *zap.Logger, opts ...projects.Option) *App {
	storeClient := store.New(store.Config{
		BaseURL:    cfg.Store.URL,
		ServiceKey: cfg.Store.ServiceKey,
		Timeout:    cfg.Store.Timeout,
	}, logger)

	identityClient := identity.New(identity.Config{
		BaseURL:    cfg.Store.URL,
		APIKey:     cfg.Auth.APIKey,
		ServiceKey: cfg.Store.ServiceKey,
		Timeout:    cfg.Store.Timeout,
	}, logger)

	resolver := roles.NewResolver(storeClient, cfg.Auth.RoleLookupPolicy, logger)

	return &App{
		cfg:       cfg,
		logger:    logger.Named("handler"),
		projects:  projects.NewService(storeClient, logger, opts...),
		gate:      authz.NewGate(identityClient, resolver, logger),
		resolver:  resolver,
		directory: roles.NewDirectory(identityClient, resolver, cfg.Auth.UserPageSize, cfg.Auth.UserMaxPages, logger),
		translator: translator.New(translator.Config{
			APIKey:         cfg.Translation.APIKey,
			BaseURL:        cfg.Translation.BaseURL,
			Model:          cfg.Translation.Model,
			Temperature:    cfg.Translation.Temperature,
			Delay:          cfg.Translation.Delay,
			MaxInputTokens: cfg.Translation.MaxInputTokens,
		}, logger),
	}
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// RequireStore reports ConfigurationMissing unless the store settings are present.
func (a *App) RequireStore() error {
	return a.cfg.RequireStore()
}

// RequireTranslation reports ConfigurationMissing unless an OpenAI key is set.
func (a *App) RequireTranslation() error {
	return a.cfg.RequireTranslation()
}

// Health reports that the process is serving.
func (a *App) Health(_ context.Context, _ *Request) (any, error) {
	return map[string]string{"status": "ok"}, nil
}
