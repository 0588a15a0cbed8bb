package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/advocata/intakepipe/internal/api"
	"github.com/advocata/intakepipe/internal/flow"
	"github.com/advocata/intakepipe/internal/genai"
	"github.com/advocata/intakepipe/internal/lockfile"
	"github.com/advocata/intakepipe/internal/messaging"
	"github.com/advocata/intakepipe/internal/store"
	"github.com/advocata/intakepipe/internal/twiliowhatsapp"
	"github.com/advocata/intakepipe/internal/util"
	"github.com/advocata/intakepipe/internal/whatsapp"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for IntakePipe state data
	DefaultStateDir = "/var/lib/intakepipe"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "intakepipe.db"
	// DefaultWhatsmeowDBFileName is the default SQLite database for the
	// whatsmeow device store, kept separate from application data
	DefaultWhatsmeowDBFileName = "whatsmeow.db"
)

func main() {
	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Initialize structured logger
	initializeLogger(*flags.debug)

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Acquire the state directory lock to prevent concurrent instances
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err, "state_dir", *flags.stateDir)
		os.Exit(1)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			slog.Warn("Failed to release state directory lock", "error", err)
		}
	}()

	slog.Info("Bootstrapping IntakePipe with configured modules")
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "api_addr", *flags.apiAddr, "twilio", *flags.twilio)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flags); err != nil {
		slog.Error("IntakePipe failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("IntakePipe exited successfully")
}

// run wires the store, GenAI client, messaging transport, orchestrators,
// dispatcher, and API server together, then blocks until ctx is cancelled.
func run(ctx context.Context, flags Flags) error {
	st, err := openStore(flags)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Warn("Failed to close store", "error", err)
		}
	}()

	gen, err := genai.NewClient(buildGenAIOptions(flags)...)
	if err != nil {
		return err
	}

	svc, err := openMessagingService(flags)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(); err != nil {
			slog.Warn("Failed to stop messaging service", "error", err)
		}
	}()

	orcOpts := buildOrchestratorOptions(flags)

	// The API serves the guided intake flow; inbound WhatsApp messages go
	// straight to the assistant with lead extraction.
	guidedOrc, err := flow.NewOrchestrator(st, gen, svc, orcOpts...)
	if err != nil {
		return err
	}
	aiOrc, err := flow.NewOrchestrator(st, gen, svc, append(orcOpts, flow.WithStrategy(flow.StrategyAIFirst))...)
	if err != nil {
		return err
	}

	if err := svc.Start(ctx); err != nil {
		return err
	}

	dispatcher := messaging.NewDispatcher(svc, aiOrc)
	dispatcher.Start(ctx)

	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	server := api.NewServer(guidedOrc, svc, apiOpts...)
	err = server.Run(ctx)

	dispatcher.Wait()
	return err
}

// Config holds environment configuration
type Config struct {
	DatabaseURL    string
	WhatsAppDSN    string
	StateDir       string
	OpenAIKey      string
	OpenAIModel    string
	APIAddr        string
	PromptFile     string
	HeuristicsFile string
	Twilio         bool
	Debug          bool
}

// Flags holds command line flag values
type Flags struct {
	qrOutput       *string
	numeric        *bool
	stateDir       *string
	dbDSN          *string
	waDSN          *string
	openaiKey      *string
	model          *string
	apiAddr        *string
	promptFile     *string
	heuristicsFile *string
	twilio         *bool
	debug          *bool
}

// initializeLogger sets up structured logging on stdout
func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		WhatsAppDSN:    os.Getenv("WHATSAPP_DB_DSN"),
		StateDir:       os.Getenv("INTAKEPIPE_STATE_DIR"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    os.Getenv("OPENAI_MODEL"),
		APIAddr:        os.Getenv("API_ADDR"),
		PromptFile:     os.Getenv("INTAKEPIPE_PROMPT_FILE"),
		HeuristicsFile: os.Getenv("INTAKEPIPE_HEURISTICS_FILE"),
		Twilio:         util.ParseBoolEnv("TWILIO_ENABLED", false),
		Debug:          util.ParseBoolEnv("INTAKEPIPE_DEBUG", false),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
	}

	// The whatsmeow device store defaults to its own SQLite file
	if config.WhatsAppDSN == "" {
		config.WhatsAppDSN = filepath.Join(config.StateDir, DefaultWhatsmeowDBFileName)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"WHATSAPP_DB_DSN_SET", config.WhatsAppDSN != "",
		"INTAKEPIPE_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"OPENAI_MODEL", config.OpenAIModel,
		"API_ADDR", config.APIAddr,
		"TWILIO_ENABLED", config.Twilio)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		qrOutput:       flag.String("qr-output", "", "path to write login QR code"),
		numeric:        flag.Bool("numeric-code", false, "use numeric login code instead of QR code"),
		stateDir:       flag.String("state-dir", config.StateDir, "state directory for IntakePipe data (overrides $INTAKEPIPE_STATE_DIR)"),
		dbDSN:          flag.String("db-dsn", config.DatabaseURL, "database DSN for the conversation store (overrides $DATABASE_URL)"),
		waDSN:          flag.String("whatsapp-db-dsn", config.WhatsAppDSN, "database DSN for the whatsmeow device store (overrides $WHATSAPP_DB_DSN)"),
		openaiKey:      flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		model:          flag.String("openai-model", config.OpenAIModel, "OpenAI model for assistant replies (overrides $OPENAI_MODEL)"),
		apiAddr:        flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		promptFile:     flag.String("system-prompt-file", config.PromptFile, "JSON file with the assistant system prompt (overrides $INTAKEPIPE_PROMPT_FILE)"),
		heuristicsFile: flag.String("heuristics-file", config.HeuristicsFile, "JSON file with extraction heuristic dictionaries (overrides $INTAKEPIPE_HEURISTICS_FILE)"),
		twilio:         flag.Bool("twilio", config.Twilio, "send via the Twilio WhatsApp API instead of a paired device (overrides $TWILIO_ENABLED)"),
		debug:          flag.Bool("debug", config.Debug, "enable debug logging (overrides $INTAKEPIPE_DEBUG)"),
	}

	flag.Parse()

	// Follow a moved state directory when the DSNs were left at their defaults
	if *flags.stateDir != config.StateDir {
		if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) {
			*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		}
		if *flags.waDSN == filepath.Join(config.StateDir, DefaultWhatsmeowDBFileName) {
			*flags.waDSN = filepath.Join(*flags.stateDir, DefaultWhatsmeowDBFileName)
		}
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	for _, dsn := range []string{*flags.dbDSN, *flags.waDSN} {
		if store.DetectDSNType(dsn) != "sqlite3" {
			continue
		}
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.MkdirAll(*flags.stateDir, 0755)
}

// openStore selects a store backend from the DSN scheme.
func openStore(flags Flags) (store.Store, error) {
	dsn := *flags.dbDSN
	switch store.DetectDSNType(dsn) {
	case "postgres":
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_set", true)
		return store.NewPostgresStore(store.WithDSN(dsn))
	case "redis":
		slog.Debug("Detected Redis DSN, configuring Redis store", "dsn_set", true)
		return store.NewRedisStore(store.WithDSN(dsn))
	default:
		slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", dsn)
		return store.NewSQLiteStore(store.WithDSN(dsn))
	}
}

// openMessagingService builds the configured WhatsApp transport.
func openMessagingService(flags Flags) (messaging.Service, error) {
	if *flags.twilio {
		client, err := twiliowhatsapp.NewClient()
		if err != nil {
			return nil, err
		}
		slog.Info("Using Twilio WhatsApp transport")
		return messaging.NewTwilioService(client), nil
	}

	var waOpts []whatsapp.Option
	if *flags.waDSN != "" {
		waOpts = append(waOpts, whatsapp.WithDBDSN(*flags.waDSN))
	}
	if *flags.qrOutput != "" {
		waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
	}
	if *flags.numeric {
		waOpts = append(waOpts, whatsapp.WithNumericCode())
	}
	client, err := whatsapp.NewClient(waOpts...)
	if err != nil {
		return nil, err
	}
	slog.Info("Using Whatsmeow WhatsApp transport")
	return messaging.NewWhatsAppService(client), nil
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	if *flags.model != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.model))
	}
	return genaiOpts
}

// buildOrchestratorOptions constructs the orchestrator options shared by the
// API and dispatcher instances.
func buildOrchestratorOptions(flags Flags) []flow.Option {
	var orcOpts []flow.Option
	if *flags.promptFile != "" {
		orcOpts = append(orcOpts, flow.WithPromptFile(strings.TrimSpace(*flags.promptFile)))
	}
	if *flags.heuristicsFile != "" {
		h, err := flow.LoadHeuristics(strings.TrimSpace(*flags.heuristicsFile))
		if err != nil {
			slog.Warn("Failed to load heuristics file, using defaults", "error", err, "path", *flags.heuristicsFile)
		}
		orcOpts = append(orcOpts, flow.WithHeuristics(h))
	}
	return orcOpts
}
