package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/myrjola/dietplan/internal/envstruct"
	"github.com/myrjola/dietplan/internal/errors"
	"github.com/myrjola/dietplan/internal/flightrecorder"
	"github.com/myrjola/dietplan/internal/genai"
	"github.com/myrjola/dietplan/internal/logging"
	"github.com/myrjola/dietplan/internal/program"
	"github.com/myrjola/dietplan/internal/sqlite"
)

type application struct {
	logger    *slog.Logger
	generator program.Generator
	store     *program.Store
	requests  *requestTracker
	// requestTimeout bounds a whole HTTP request including retries.
	requestTimeout time.Duration
	// flightRecorder is nil unless DIETPLAN_TRACES_DIR is set.
	flightRecorder *flightrecorder.Recorder
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"DIETPLAN_ADDR" envDefault:"localhost:8081"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"DIETPLAN_SQLITE_URL" envDefault:"./dietplan.sqlite3"`
	// GenAIProvider selects the model backend: "gemini" or "openai".
	GenAIProvider string `env:"DIETPLAN_GENAI_PROVIDER" envDefault:"gemini"`

	GeminiBaseURL string `env:"DIETPLAN_GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	GeminiModel   string `env:"DIETPLAN_GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	GeminiAPIKey  string `env:"DIETPLAN_GEMINI_API_KEY" envDefault:""`

	OpenAIBaseURL string `env:"DIETPLAN_OPENAI_BASE_URL" envDefault:""`
	OpenAIModel   string `env:"DIETPLAN_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIAPIKey  string `env:"DIETPLAN_OPENAI_API_KEY" envDefault:""`

	Temperature     float64 `env:"DIETPLAN_GENAI_TEMPERATURE" envDefault:"0.7"`
	TopK            int     `env:"DIETPLAN_GENAI_TOP_K" envDefault:"40"`
	TopP            float64 `env:"DIETPLAN_GENAI_TOP_P" envDefault:"0.95"`
	MaxOutputTokens int     `env:"DIETPLAN_GENAI_MAX_OUTPUT_TOKENS" envDefault:"8192"`

	// GenerationTimeout bounds a single model call.
	GenerationTimeout time.Duration `env:"DIETPLAN_GENERATION_TIMEOUT" envDefault:"30s"`
	// RetryAttempts counts the first call. 1 disables retries.
	RetryAttempts  int           `env:"DIETPLAN_RETRY_ATTEMPTS" envDefault:"3"`
	RetryBaseDelay time.Duration `env:"DIETPLAN_RETRY_BASE_DELAY" envDefault:"1s"`
	// RequestTimeout bounds a whole HTTP request. It should cover every generation attempt.
	RequestTimeout time.Duration `env:"DIETPLAN_REQUEST_TIMEOUT" envDefault:"100s"`
	// ProgramCacheSize is the number of stored programs kept in memory.
	ProgramCacheSize int `env:"DIETPLAN_PROGRAM_CACHE_SIZE" envDefault:"256"`
	// TracesDir receives runtime traces of timed out requests. Empty disables the flight recorder.
	TracesDir string `env:"DIETPLAN_TRACES_DIR" envDefault:""`
}

func (cfg config) params() genai.Params {
	return genai.Params{
		Temperature:     cfg.Temperature,
		TopK:            cfg.TopK,
		TopP:            cfg.TopP,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
}

var errUnknownProvider = errors.NewSentinel("unknown generation provider")

func newModelClient(cfg config, logger *slog.Logger) (genai.Generator, error) {
	switch cfg.GenAIProvider {
	case "gemini":
		client, err := genai.NewGeminiClient(genai.GeminiConfig{
			BaseURL:    cfg.GeminiBaseURL,
			Model:      cfg.GeminiModel,
			APIKey:     cfg.GeminiAPIKey,
			Params:     cfg.params(),
			HTTPClient: nil,
		}, logger)
		if err != nil {
			return nil, errors.Wrap(err, "new gemini client")
		}
		return client, nil
	case "openai":
		client, err := genai.NewOpenAIClient(genai.OpenAIConfig{
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			APIKey:  cfg.OpenAIAPIKey,
			Params:  cfg.params(),
		}, logger)
		if err != nil {
			return nil, errors.Wrap(err, "new openai client")
		}
		return client, nil
	default:
		return nil, errors.Wrap(errUnknownProvider, "select provider", slog.String("provider", cfg.GenAIProvider))
	}
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	modelClient, err := newModelClient(cfg, logger)
	if err != nil {
		return err
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(context.WithoutCancel(ctx), slog.LevelError, "failed to close db",
				errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	store, err := program.NewStore(db, logger, cfg.ProgramCacheSize)
	if err != nil {
		return errors.Wrap(err, "new program store")
	}

	var recorder *flightrecorder.Recorder
	if cfg.TracesDir != "" {
		if recorder, err = flightrecorder.New(flightrecorder.Config{
			Dir:      cfg.TracesDir,
			MinAge:   0,
			MaxBytes: 0,
			Cooldown: 0,
		}, logger); err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = recorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer recorder.Stop(context.WithoutCancel(ctx))
	}

	service := program.NewService(modelClient, logger, cfg.GenerationTimeout)
	app := application{
		logger: logger,
		generator: program.NewRetrying(service, program.RetryPolicy{
			MaxAttempts: cfg.RetryAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.GenerationTimeout,
		}, logger),
		store:          store,
		requests:       newRequestTracker(),
		requestTimeout: cfg.RequestTimeout,
		flightRecorder: recorder,
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

// loadDotEnv reads .env into the process environment without overriding variables that are already set.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "load .env")
	}
	return nil
}

func main() {
	ctx := context.Background()
	dotEnvErr := loadDotEnv()
	// DIETPLAN_LOG_FORMAT is "text" or "json".
	format, _ := os.LookupEnv("DIETPLAN_LOG_FORMAT")
	logger := logging.New(os.Stdout, format, slog.LevelDebug)
	if err := dotEnvErr; err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure loading environment", errors.SlogError(err))
		os.Exit(1)
	}
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
