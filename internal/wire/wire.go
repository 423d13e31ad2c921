// Package wire provides dependency injection for the thoughtstream
// application. It creates singleton services with lazy initialization.
package wire

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	cliadapter "github.com/example/thoughtstream/internal/adapters/cli"
	"github.com/example/thoughtstream/internal/adapters/llm"
	"github.com/example/thoughtstream/internal/adapters/sqlite"
	"github.com/example/thoughtstream/internal/app"
	"github.com/example/thoughtstream/internal/config"
	"github.com/example/thoughtstream/internal/db"
	"github.com/example/thoughtstream/internal/logging"
	"github.com/example/thoughtstream/internal/ports/primary"
	"github.com/example/thoughtstream/internal/ports/secondary"
)

var (
	cfg                 *config.Config
	logger              *zap.Logger
	sessionService      primary.SessionService
	conversationService primary.ConversationService
	once                sync.Once
)

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// Logger returns the application logger.
func Logger() *zap.Logger {
	once.Do(initServices)
	return logger
}

// SessionService returns the singleton SessionService instance.
func SessionService() primary.SessionService {
	once.Do(initServices)
	return sessionService
}

// ConversationService returns the singleton ConversationService instance.
func ConversationService() primary.ConversationService {
	once.Do(initServices)
	return conversationService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	var err error
	cfg, err = config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dir, err := config.ConfigDir()
	if err != nil {
		log.Fatalf("failed to resolve config dir: %v", err)
	}
	logger, err = logging.New(filepath.Join(dir, "thoughtstream.log"), cfg.Debug)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	conversationRepo := sqlite.NewConversationRepository(database)
	messageRepo := sqlite.NewMessageRepository(database)
	taskRepo := sqlite.NewPendingTaskRepository(database)
	analysisRepo := sqlite.NewAnalysisRepository(database)

	var executor secondary.ExecutionClient
	switch cfg.Backend {
	case config.BackendLocal:
		executor = llm.NewLocalClient(40 * time.Millisecond)
	default:
		executor = llm.NewClient(llm.Config{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey(),
			Stream:  cfg.Stream,
		}, logger)
	}

	sessionService = app.NewSessionService(conversationRepo, messageRepo, taskRepo, analysisRepo, executor, logger)
	conversationService = app.NewConversationService(conversationRepo, messageRepo, analysisRepo, logger)
}

// SessionAdapter returns a new SessionAdapter writing to stdout.
// Each call creates a new adapter.
func SessionAdapter() *cliadapter.SessionAdapter {
	return SessionAdapterWithOutput(os.Stdout)
}

// SessionAdapterWithOutput returns a new SessionAdapter writing to the
// given output. This variant allows testing or alternate destinations.
func SessionAdapterWithOutput(out io.Writer) *cliadapter.SessionAdapter {
	once.Do(initServices)
	return cliadapter.NewSessionAdapter(sessionService, out)
}

// ConversationAdapter returns a new ConversationAdapter writing to stdout.
func ConversationAdapter() *cliadapter.ConversationAdapter {
	return ConversationAdapterWithOutput(os.Stdout)
}

// ConversationAdapterWithOutput returns a new ConversationAdapter
// writing to the given output.
func ConversationAdapterWithOutput(out io.Writer) *cliadapter.ConversationAdapter {
	once.Do(initServices)
	return cliadapter.NewConversationAdapter(conversationService, out)
}
