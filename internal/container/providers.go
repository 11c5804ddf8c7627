package container

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/garyjia/secu-devis/internal/application/port"
	"github.com/garyjia/secu-devis/internal/application/service"
	"github.com/garyjia/secu-devis/internal/export"
	"github.com/garyjia/secu-devis/internal/infrastructure/external/htmlpdf"
	"github.com/garyjia/secu-devis/internal/infrastructure/external/openai"
	"github.com/garyjia/secu-devis/internal/infrastructure/persistence/repository"
	"github.com/garyjia/secu-devis/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/secu-devis/internal/infrastructure/storage"
	"github.com/garyjia/secu-devis/internal/preview"
	"github.com/garyjia/secu-devis/internal/render"
	"github.com/garyjia/secu-devis/migrations"
	"github.com/garyjia/secu-devis/pkg/database"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Conn           *database.DB
	TransactionMgr *sqlite.DB
}

// ExternalBundle holds the optional collaborators. A nil field means the
// feature is not configured.
type ExternalBundle struct {
	Converter   port.DocumentConverter
	Extractor   port.QuoteExtractor
	Thumbnailer port.Thumbnailer
	Spreadsheet port.SpreadsheetExporter
}

// ProvideDatabase opens the sqlite file, runs pending migrations and wraps
// the connection in a transaction manager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	conn, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	var migrationFS fs.FS = migrations.FS
	if cfg.MigrationsDir != "" {
		migrationFS = os.DirFS(cfg.MigrationsDir)
	}
	if err := database.NewMigrator(conn, logger).RunMigrations(migrationFS); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		Conn:           conn,
		TransactionMgr: sqlite.NewDB(conn.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories over the transaction manager.
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Quote:    repository.NewQuoteRepository(db, logger),
		Settings: repository.NewSettingsRepository(db, logger),
		Layout:   repository.NewLayoutRepository(db, logger),
		Document: repository.NewDocumentRepository(db, logger),
	}, nil
}

// ProvideStorage creates the artifact storage, creating its directory.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (port.FileStorage, error) {
	if cfg == nil || cfg.BaseDir == "" {
		return nil, fmt.Errorf("storage base directory is required")
	}
	if err := os.MkdirAll(cfg.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return storage.NewLocalFileStorage(cfg.BaseDir, logger), nil
}

// ProvideExternal creates the converter and extractor clients when they are
// configured, and the local exporters which are always available.
func ProvideExternal(cfg *Config, logger *zap.Logger) (*ExternalBundle, error) {
	bundle := &ExternalBundle{
		Thumbnailer: preview.NewThumbnailer(cfg.Preview.MaxWidth, logger),
		Spreadsheet: export.NewXLSXExporter(logger),
	}

	if cfg.Converter.BaseURL != "" {
		bundle.Converter = htmlpdf.NewClient(htmlpdf.Config{
			BaseURL:    cfg.Converter.BaseURL,
			APIToken:   cfg.Converter.APIToken,
			Timeout:    cfg.Converter.Timeout,
			PageFormat: cfg.Converter.PageFormat,
			Margins: htmlpdf.Margins{
				Top:    cfg.Converter.MarginTop,
				Right:  cfg.Converter.MarginRight,
				Bottom: cfg.Converter.MarginBottom,
				Left:   cfg.Converter.MarginLeft,
			},
			Scale:            cfg.Converter.Scale,
			ImageQuality:     cfg.Converter.ImageQuality,
			PageBreakBefore:  cfg.Converter.PageBreakBefore,
			AvoidBreakInside: cfg.Converter.AvoidBreakInside,
		}, logger)
	} else {
		logger.Warn("Converter not configured, PDF and DOCX export disabled")
	}

	if cfg.OpenAI.APIKey != "" {
		var prompts *openai.PromptConfig
		if cfg.OpenAI.PromptsPath != "" {
			loaded, err := openai.LoadPrompts(cfg.OpenAI.PromptsPath)
			if err != nil {
				return nil, err
			}
			prompts = loaded
		}
		bundle.Extractor = openai.NewQuoteExtractor(openai.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			Timeout:     cfg.OpenAI.Timeout,
		}, prompts, logger)
	} else {
		logger.Warn("OpenAI API key not configured, email extraction disabled")
	}

	return bundle, nil
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Storage    port.FileStorage
	External   *ExternalBundle
	DateLayout string
	Logger     *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil || deps.External == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	settings := service.NewSettingsService(deps.Repos.Settings, deps.Repos.Layout, deps.Logger)
	layouts := service.NewLayoutService(deps.Repos.Layout, deps.TxManager, deps.Logger)
	quotes := service.NewQuoteService(deps.Repos.Quote, settings, deps.External.Extractor, deps.TxManager, deps.Logger)

	documents := service.NewDocumentService(service.DocumentServiceDeps{
		Quotes:      deps.Repos.Quote,
		Documents:   deps.Repos.Document,
		Settings:    settings,
		Layouts:     layouts,
		Engine:      render.NewEngine(deps.Logger, render.WithDateLayout(deps.DateLayout)),
		Storage:     deps.Storage,
		Converter:   deps.External.Converter,
		Thumbnailer: deps.External.Thumbnailer,
		Spreadsheet: deps.External.Spreadsheet,
		Logger:      deps.Logger,
	})

	return &ServiceBundle{
		Quote:    quotes,
		Settings: settings,
		Layout:   layouts,
		Document: documents,
	}, nil
}
