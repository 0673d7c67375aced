// Package app wires the storage, transport, and orchestration layers into
// one application instance.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/prdforai/prdchat/src/apiclient"
	"github.com/prdforai/prdchat/src/attach"
	"github.com/prdforai/prdchat/src/config"
	"github.com/prdforai/prdchat/src/convstore"
	"github.com/prdforai/prdchat/src/orchestrator"
	"github.com/prdforai/prdchat/src/storage"
)

// App holds the initialized services.
type App struct {
	Client       *apiclient.Client
	DB           *storage.DB
	Codec        *storage.Codec
	Store        *convstore.Store
	Orchestrator *orchestrator.Orchestrator
	Stager       *attach.Stager
	Logger       *slog.Logger

	// SidebarCollapsed is a persisted UI preference the store doesn't own.
	SidebarCollapsed bool
}

// AppConfig holds the inputs for creating an App instance.
type AppConfig struct {
	Config       *config.Config
	DatabasePath string
	Notifier     orchestrator.Notifier
	Logger       *slog.Logger
}

// New opens the database, loads the persisted conversations and settings,
// and wires the send pipeline. Corrupt or missing persisted state falls
// back to defaults rather than failing startup.
func New(ctx context.Context, cfg AppConfig) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	codec := storage.NewCodec(db, logger)
	conversations := codec.LoadConversations()
	activeID := codec.LoadActiveConversationID()

	store := convstore.NewStore(conversations, activeID, codec, logger)

	client := apiclient.NewClient(apiclient.Config{
		BaseURL:   cfg.Config.BaseURL,
		AuthToken: cfg.Config.AuthToken,
		Logger:    logger,
	})

	settings := orchestrator.DefaultSettings(
		codec.LoadSelectedModel(),
		codec.LoadStreaming(),
		codec.LoadOutputFormat(),
	)

	orch := orchestrator.New(store, client, cfg.Notifier, settings, logger)

	stager := attach.NewStager(afero.NewOsFs(), config.DefaultAttachmentsPath(), logger)

	return &App{
		Client:           client,
		DB:               db,
		Codec:            codec,
		Store:            store,
		Orchestrator:     orch,
		Stager:           stager,
		Logger:           logger,
		SidebarCollapsed: codec.LoadSidebarCollapsed(),
	}, nil
}

// SaveSettings persists the current generation settings and UI preferences.
func (a *App) SaveSettings() {
	a.Codec.SaveSelectedModel(a.Orchestrator.Settings.Model)
	a.Codec.SaveStreaming(a.Orchestrator.Settings.Streaming)
	a.Codec.SaveOutputFormat(a.Orchestrator.Settings.OutputFormat)
	a.Codec.SaveSidebarCollapsed(a.SidebarCollapsed)
}

// Close releases the database handle.
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
